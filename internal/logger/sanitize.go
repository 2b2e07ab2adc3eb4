package logger

import (
	"strings"
	"unicode"
)

// Length caps applied before a value reaches a log field
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxLabelLength caps detection labels and waste types
	MaxLabelLength = 100
)

const ellipsis = "..."

// SanitizeString strips invalid UTF-8 and non-printable runes from s and caps it at
// maxLength runes. A non-positive maxLength uses MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	s = strings.Map(keepPrintable, strings.ToValidUTF8(s, ""))
	if n := 0; len(s) > maxLength {
		for i := range s {
			if n == maxLength {
				return s[:i] + ellipsis
			}
			n++
		}
	}
	return s
}

// keepPrintable drops control runes; tab and line breaks survive so multi-line errors stay readable
func keepPrintable(r rune) rune {
	if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return r
	}
	return -1
}

// SanitizePath sanitizes a request path
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError sanitizes err's message. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeErrorString sanitizes an error text received from a remote peer
func SanitizeErrorString(errStr string) string {
	return SanitizeString(errStr, MaxErrorMessageLength)
}

// SanitizeUserID sanitizes a user, session or job id taken from a request
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeLabel sanitizes a model label or user-entered waste type
func SanitizeLabel(label string) string {
	return SanitizeString(label, MaxLabelLength)
}
