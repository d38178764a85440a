// Package normalize canonicalizes free text and phone numbers for matching
// and storage.
package normalize

import (
	"regexp"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`\D`)

	// Extension markers, most specific first. The last pattern catches a
	// bare 3-6 digit group separated from the base number by whitespace.
	extensionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(.*?)[\s,;]*(?:ext\.?|extension)\s*[:.]?\s*(\d{1,6})\s*$`),
		regexp.MustCompile(`(?i)^(.*?\d)\s*x\s*(\d{1,6})\s*$`),
		regexp.MustCompile(`^(.*?\d)\s*#\s*(\d{1,6})\s*$`),
		regexp.MustCompile(`^(.*\d[\s.\-)]*\d{4})\s+(\d{3,6})\s*$`),
	}
)

// String trims and lower-cases s. The empty string maps to itself.
func String(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone returns an E.164-style rendering of s when it carries enough digits
// to be a phone number, and the trimmed input otherwise.
func Phone(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	digits := nonDigits.ReplaceAllString(trimmed, "")
	if strings.HasPrefix(trimmed, "+") {
		if digits == "" {
			return trimmed
		}
		return "+" + digits
	}
	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) >= 8:
		return "+" + digits
	}
	return trimmed
}

// ParsePhoneWithExtension splits a trailing extension off s. When no
// extension marker is found the whole input is returned as the number.
func ParsePhoneWithExtension(s string) (number, extension string) {
	for i, re := range extensionPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		base := strings.TrimSpace(m[1])
		if base == "" {
			continue
		}
		// A bare trailing group only counts once the base is a full number,
		// otherwise "+44 7911 123456" would lose its subscriber digits.
		if i == len(extensionPatterns)-1 && len(nonDigits.ReplaceAllString(base, "")) < 10 {
			continue
		}
		return base, m[2]
	}
	return s, ""
}
