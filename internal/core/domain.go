package core

import (
	"errors"
	"regexp"
	"strings"
)

const (
	Normal CategoryType = "normal"
	Sparen CategoryType = "sparen"
)

// SparenUnit is the fixed unit for savings categories.
const SparenUnit = "€"

type (
	CategoryType string

	Category struct {
		ID         int64
		Name       string
		Icon       string
		Type       CategoryType
		Unit       string
		AutoCreate bool
	}

	// Entry is one time-stamped observation belonging to a category.
	// Date is a month-granularity period key (YYYY-MM). Value is an
	// independent observation for normal categories and a point-in-time
	// balance snapshot for sparen categories. Deposit is the cash
	// contributed during the period and is only meaningful for sparen.
	Entry struct {
		ID            int64
		CategoryID    int64
		Date          string
		Value         float64
		Deposit       *float64
		Comment       string
		AutoGenerated bool
	}
)

var (
	ErrEmptyName      = errors.New("empty category name")
	ErrInvalidType    = errors.New("invalid category type")
	ErrEmptyUnit      = errors.New("empty unit")
	ErrInvalidUnit    = errors.New("sparen category unit must be " + SparenUnit)
	ErrInvalidDate    = errors.New("date must be in YYYY-MM format")
	ErrCommentTooLong = errors.New("comment too long (max 500 characters)")
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsValid returns true if the category type is a known type.
func (t CategoryType) IsValid() bool {
	return t == Normal || t == Sparen
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	if c.Type == Sparen {
		// Unit is forced to the currency symbol for savings categories.
		if c.Unit != SparenUnit {
			return ErrInvalidUnit
		}
		return nil
	}
	if strings.TrimSpace(c.Unit) == "" {
		return ErrEmptyUnit
	}
	return nil
}

func (e Entry) Validate() error {
	if e.CategoryID <= 0 {
		return errors.New("entry must belong to a category")
	}
	if !monthKeyPattern.MatchString(e.Date) {
		return ErrInvalidDate
	}
	if len(e.Comment) > 500 {
		return ErrCommentTooLong
	}
	return nil
}

// DepositValue returns the deposit amount, treating a missing deposit as 0.
func (e Entry) DepositValue() float64 {
	if e.Deposit == nil {
		return 0
	}
	return *e.Deposit
}
