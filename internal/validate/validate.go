// Package validate holds the field-level checks for user records.
//
// Every function is pure: it takes the raw input (and, for dates, the
// reference time) and returns either the canonical form of the value or an
// *apperror.AppError naming the offending field. No function here touches
// the clock, the store or any global state.
//
// TWO LAYERS OF VALIDATION:
//
//  1. Structs (structs.go) runs go-playground/validator over the request
//     types: required fields, lengths, e-mail shape, salary >= 0.
//  2. The functions in this file run after that, one per typed field.
//     They return a CANONICAL value as well as an error, so the service
//     can store "+15551234567" when the client sent "+1 (555) 123-4567".
//
// Error kinds map onto HTTP statuses in internal/handler:
//
//	InvalidFormat, InvalidEnum, FutureDate, TooOld, InvalidRange → 400
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
)

const (
	// DateLayout is the canonical date-of-birth format.
	DateLayout = "2006-01-02"

	// MaxAgeYears bounds how far back a birth date may lie. A year is
	// counted as 365 days, without leap adjustment.
	MaxAgeYears = 120

	minCardDigits = 13
	maxCardDigits = 19
	cardBlockSize = 4
)

// Patterns are compiled once at package init. regexp.MustCompile panics on
// a bad pattern, which surfaces at startup rather than on the first request.
var (
	cardSeparators  = regexp.MustCompile(`[\s-]`)
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	cvvPattern      = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryPattern   = regexp.MustCompile(`^[0-9]{2}/[0-9]{4}$`)
)

// CardNumber strips whitespace and dashes and regroups the remaining 13–19
// digits into dash-separated blocks of four. The last block may be shorter.
func CardNumber(field, raw string) (string, error) {
	digits := cardSeparators.ReplaceAllString(raw, "")
	if len(digits) < minCardDigits || len(digits) > maxCardDigits || !allDigits(digits) {
		return "", apperror.InvalidFormat(field,
			fmt.Sprintf("%s must contain %d to %d digits", field, minCardDigits, maxCardDigits))
	}

	blocks := make([]string, 0, (len(digits)+cardBlockSize-1)/cardBlockSize)
	for i := 0; i < len(digits); i += cardBlockSize {
		end := min(i+cardBlockSize, len(digits))
		blocks = append(blocks, digits[i:end])
	}
	return strings.Join(blocks, "-"), nil
}

// CVV accepts exactly three or four digits.
func CVV(field, raw string) (string, error) {
	if !cvvPattern.MatchString(raw) {
		return "", apperror.InvalidFormat(field, fmt.Sprintf("%s must be 3 or 4 digits", field))
	}
	return raw, nil
}

// Expiry accepts MM/YYYY. Whether the date lies in the future is not checked.
func Expiry(field, raw string) (string, error) {
	if !expiryPattern.MatchString(raw) {
		return "", apperror.InvalidFormat(field, fmt.Sprintf("%s must be in MM/YYYY format", field))
	}
	return raw, nil
}

// Phone strips spaces, dashes and parentheses and accepts an optional
// leading "+" followed by 10–15 digits. The stripped form is returned.
func Phone(field, raw string) (string, error) {
	stripped := phoneSeparators.ReplaceAllString(raw, "")
	if !phonePattern.MatchString(stripped) {
		return "", apperror.InvalidFormat(field,
			fmt.Sprintf("%s must be an optional + followed by 10 to 15 digits", field))
	}
	return stripped, nil
}

// DateOfBirth parses a YYYY-MM-DD date and checks it against now: it must
// not be after today and not before today minus MaxAgeYears×365 days.
func DateOfBirth(field, raw string, now time.Time) (string, error) {
	d, err := ParseDate(field, raw)
	if err != nil {
		return "", err
	}

	today := truncateDay(now)
	if d.After(today) {
		return "", apperror.FutureDate(field)
	}
	if d.Before(today.AddDate(0, 0, -MaxAgeYears*365)) {
		return "", apperror.TooOld(field, MaxAgeYears)
	}
	return d.Format(DateLayout), nil
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(field, raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperror.InvalidFormat(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return d, nil
}

// Gender matches male, female or other case-insensitively and returns the
// lowercase form.
func Gender(field, raw string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(raw))
	for _, allowed := range model.Genders {
		if g == string(allowed) {
			return g, nil
		}
	}
	return "", apperror.InvalidEnum(field, raw, genderNames())
}

// DateRange checks an inclusive from/to pair of YYYY-MM-DD dates. Either
// side may be empty. An inverted range fails with InvalidRange.
func DateRange(fromField, from, toField, to string) (string, string, error) {
	var fromDate, toDate time.Time
	var err error

	if from != "" {
		if fromDate, err = ParseDate(fromField, from); err != nil {
			return "", "", err
		}
		from = fromDate.Format(DateLayout)
	}
	if to != "" {
		if toDate, err = ParseDate(toField, to); err != nil {
			return "", "", err
		}
		to = toDate.Format(DateLayout)
	}
	if from != "" && to != "" && fromDate.After(toDate) {
		return "", "", apperror.InvalidRange(fromField,
			fmt.Sprintf("%s (%s) must not be after %s (%s)", fromField, from, toField, to))
	}
	return from, to, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// truncateDay returns midnight UTC of now's calendar date.
func truncateDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func genderNames() []string {
	names := make([]string, len(model.Genders))
	for i, g := range model.Genders {
		names[i] = string(g)
	}
	return names
}
