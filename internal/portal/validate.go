// File: internal/portal/validate.go
package portal

import (
	"regexp"
	"strings"
)

var (
	// 17 alphanumeric characters excluding I, O and Q.
	chassisPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	// 3 letters, 1 digit, 1 alphanumeric, 2 digits. Covers both the legacy
	// and the Mercosul plate layouts.
	platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

	renavamPattern = regexp.MustCompile(`^[0-9]{9,11}$`)

	nonDigits = regexp.MustCompile(`[^0-9]`)
)

// CheckChassis reports whether s is a well-formed 17-character VIN.
func CheckChassis(s string) bool {
	return chassisPattern.MatchString(strings.ToUpper(s))
}

// CheckLicensePlate reports whether s is a well-formed Brazilian plate.
func CheckLicensePlate(s string) bool {
	return platePattern.MatchString(strings.ToUpper(strings.ReplaceAll(s, "-", "")))
}

// CheckRenavam reports whether s is a plausible national registry number.
func CheckRenavam(s string) bool {
	return renavamPattern.MatchString(s)
}

// DocumentKind classifies an owner taxpayer document by digit count.
type DocumentKind int

const (
	DocumentInvalid DocumentKind = iota
	DocumentCPF                  // individual, exactly 11 digits
	DocumentCNPJ                 // corporate, more than 11 digits
)

// ClassifyDocument strips punctuation from a CPF/CNPJ and classifies it.
// The returned digits are what gets typed into the portal's form.
func ClassifyDocument(s string) (string, DocumentKind) {
	digits := nonDigits.ReplaceAllString(s, "")
	switch {
	case len(digits) == 11:
		return digits, DocumentCPF
	case len(digits) > 11:
		return digits, DocumentCNPJ
	default:
		return digits, DocumentInvalid
	}
}
