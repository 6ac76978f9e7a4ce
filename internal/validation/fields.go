// Package validation holds the client-side field checks run before any form is submitted.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "carservice/internal/errors"
)

const (
	// MinYear is the oldest model year accepted.
	MinYear = 1900
	// MinPasswordLength is the shortest password accepted.
	MinPasswordLength = 6
	// MaxMileage bounds the odometer reading of a service record.
	MaxMileage = 10_000_000
)

// MaxCost bounds the cost of a single service record.
var MaxCost = decimal.NewFromInt(10_000_000)

var (
	vinPattern   = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Now is the clock used by Year.
var Now = time.Now

// VIN accepts exactly 17 characters from [A-HJ-NPR-Z0-9].
func VIN(vin string) error {
	if !vinPattern.MatchString(vin) {
		return apperrors.Validation("VIN must be 17 characters (letters except I, O, Q, and digits).")
	}
	return nil
}

// Year accepts a number within [1900, current year].
func Year(year string) error {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	current := Now().Year()
	if err != nil || y < MinYear || y > current {
		return apperrors.Validation("Year must be between " + strconv.Itoa(MinYear) + " and " + strconv.Itoa(current) + ".")
	}
	return nil
}

// Email accepts a local@domain.tld shaped address without whitespace.
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return apperrors.Validation("Please provide a valid email address.")
	}
	return nil
}

// Password accepts anything of at least six characters.
func Password(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return apperrors.Validation("Password must be at least 6 characters long.")
	}
	return nil
}

// MileageCost accepts a whole, non-negative mileage and a non-negative cost, both bounded.
func MileageCost(mileage, cost string) error {
	if _, err := ParseMileage(mileage); err != nil {
		return err
	}
	if _, err := ParseCost(cost); err != nil {
		return err
	}
	return nil
}

// ParseMileage returns the mileage as an integer or a validation error.
func ParseMileage(mileage string) (int64, error) {
	m, err := strconv.ParseInt(strings.TrimSpace(mileage), 10, 64)
	if err != nil || m < 0 || m > MaxMileage {
		return 0, apperrors.Validation("Mileage must be a whole number between 0 and 10000000.")
	}
	return m, nil
}

// ParseCost returns the cost as a decimal or a validation error.
func ParseCost(cost string) (decimal.Decimal, error) {
	c, err := decimal.NewFromString(strings.TrimSpace(cost))
	if err != nil || c.IsNegative() || c.GreaterThan(MaxCost) {
		return decimal.Zero, apperrors.Validation("Cost must be a number between 0 and 10000000.")
	}
	return c, nil
}

// Date accepts a YYYY-MM-DD calendar date, the format the backend parses.
func Date(date string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(date)); err != nil {
		return apperrors.Validation("Date must be in YYYY-MM-DD format.")
	}
	return nil
}
