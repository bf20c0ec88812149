package auth

import (
	"strings"

	"samayog/services/apperror"
)

const (
	countryPrefix = "+91"
	phoneDigits   = 10
)

// Messages surfaced for malformed phone numbers.
const (
	MsgPhoneLength = "Phone number must be exactly 10 digits"
	MsgPhoneDigits = "Phone number should contain only digits"
)

// NormalizePhone strips the +91 prefix and any leading zeros and requires
// exactly ten digits to remain.
func NormalizePhone(raw string) (string, error) {
	phone := trimPhone(raw)
	if issues := phoneIssues(phone); len(issues) > 0 {
		return "", apperror.New(apperror.Validation, MsgPhoneLength)
	}
	return phone, nil
}

func trimPhone(raw string) string {
	phone := strings.TrimSpace(raw)
	phone = strings.TrimPrefix(phone, countryPrefix)
	return strings.TrimLeft(phone, "0")
}

func phoneIssues(phone string) []string {
	var issues []string
	if len(phone) != phoneDigits {
		issues = append(issues, MsgPhoneLength)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			issues = append(issues, MsgPhoneDigits)
			break
		}
	}
	return issues
}

// SplitName splits a display name into first name and the remainder.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func validOTP(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
