package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidateAssetID validates an asset identifier for safety and correctness.
// IDs flow into cache keys and database filters, so the rules are conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 128 characters
func ValidateAssetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidAsset, "asset id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidAsset, "asset id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidAsset, "asset id contains control characters")
		}
	}

	if strings.ContainsAny(id, " \t\n") {
		return New(ErrCodeInvalidAsset, "asset id cannot contain whitespace")
	}

	return nil
}

// monthKeyRegex matches a calendar month key in YYYY-MM form.
var monthKeyRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidateMonthKey validates a chronological bucket key (e.g., "2025-07").
func ValidateMonthKey(month string) error {
	if month == "" {
		return New(ErrCodeInvalidCriteria, "month key cannot be empty")
	}

	if !monthKeyRegex.MatchString(month) {
		return New(ErrCodeInvalidCriteria, "invalid month key: %q (expected YYYY-MM)", month)
	}

	return nil
}

// ValidateSearchTerms validates free-text search terms.
// Terms are passed to the query backend verbatim, so reject control characters
// and unreasonable lengths up front.
func ValidateSearchTerms(terms string) error {
	if len(terms) > 512 {
		return New(ErrCodeInvalidCriteria, "search terms too long (max 512 characters)")
	}

	for _, r := range terms {
		if r == '\x00' || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidCriteria, "search terms contain invalid characters")
		}
	}

	return nil
}

// ValidateCursor validates a pagination cursor. Cursors produced by the query
// backends are decimal page numbers; an empty cursor means "first page".
func ValidateCursor(cursor string) error {
	if cursor == "" {
		return nil
	}

	n, err := strconv.Atoi(cursor)
	if err != nil || n < 1 {
		return New(ErrCodeInvalidCursor, "invalid pagination cursor: %q", cursor)
	}

	return nil
}
