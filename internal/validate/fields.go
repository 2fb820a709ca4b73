// Package validate provides pure field validators for the data collected
// during a homologation case. Every function is side-effect free.
package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Current format: 4 digits + 3 consonants (vowels and Ñ/Q excluded).
	matriculaCurrentRegex = regexp.MustCompile(`^[0-9]{4}[BCDFGHJKLMNPRSTVWXYZ]{3}$`)
	// Historical provincial format: 1-2 province letters, 4 digits, 1-2 letters.
	matriculaOldRegex = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{4}[A-Z]{1,2}$`)

	dniRegex = regexp.MustCompile(`^[0-9]{8}[A-Z]$`)
	nieRegex = regexp.MustCompile(`^[XYZ][0-9]{7}[A-Z]$`)
	cifRegex = regexp.MustCompile(`^[A-HJ-NP-SUVW][0-9]{7,8}$`)

	postalCodeRegex = regexp.MustCompile(`^[0-9]{5}$`)
)

// ValidateEmail reports whether the address passes an RFC-light shape check.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// NormalizeMatricula strips spaces and hyphens and upper-cases a plate so
// both "1234 abc" and "1234-ABC" compare equal.
func NormalizeMatricula(matricula string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(matricula)))
}

// ValidateMatricula accepts the current and the historical provincial Spanish
// plate formats. The input is normalized before matching.
func ValidateMatricula(matricula string) bool {
	normalized := NormalizeMatricula(matricula)
	return matriculaCurrentRegex.MatchString(normalized) || matriculaOldRegex.MatchString(normalized)
}

// NormalizeDNICIF strips separators and upper-cases a national identifier.
func NormalizeDNICIF(id string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(id)))
}

// ValidateDNICIF accepts the three Spanish identifier sub-formats: DNI
// (8 digits + letter), NIE (X/Y/Z + 7 digits + letter), and CIF (company
// letter + 7-8 digits). Shape only; control letters are not verified.
func ValidateDNICIF(id string) bool {
	normalized := NormalizeDNICIF(id)
	return dniRegex.MatchString(normalized) ||
		nieRegex.MatchString(normalized) ||
		cifRegex.MatchString(normalized)
}

// ValidatePostalCode accepts 5-digit Spanish postal codes. The first two
// digits are the province and must fall in 01-52.
func ValidatePostalCode(code string) bool {
	trimmed := strings.TrimSpace(code)
	if !postalCodeRegex.MatchString(trimmed) {
		return false
	}

	province, err := strconv.Atoi(trimmed[:2])
	if err != nil {
		return false
	}
	return province >= 1 && province <= 52
}
