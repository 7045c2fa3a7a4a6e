package utils

import (
	"fmt"
	"regexp"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// License plates are letters, digits, and dashes, 4 to 10 characters.
	plateRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{2,8}[A-Z0-9]$`)
	monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateLicensePlate validates a vehicle license plate
func ValidateLicensePlate(plate string) error {
	if !plateRegex.MatchString(plate) {
		return fmt.Errorf("invalid license plate format: %s", plate)
	}
	return nil
}

// ValidateMonth validates a calendar month in YYYY-MM form
func ValidateMonth(month string) error {
	if !monthRegex.MatchString(month) {
		return fmt.Errorf("invalid month, expected YYYY-MM: %s", month)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
