package models

import "unicode/utf8"

// Free-text limits, in characters. They mirror the column widths in
// migrations/000001_init.up.sql.
const (
	MaxUsernameLength       = 50
	MaxDisplayNameLength    = 200
	MaxSkillNameLength      = 100
	MaxCategoryLength       = 50
	MaxDescriptionLength    = 500
	MaxNoteLength           = 1000
	MaxExchangeTextLength   = 1000 // exchange message, cancel reason, rating feedback
	MaxMessageContentLength = 2000
)

// TooLong reports whether s holds more than max characters
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
