package services

import (
	"fmt"
	"regexp"
)

const maxFilenameLength = 255

var (
	directoryPrefix = regexp.MustCompile(`(?s)^.*[\\/]`)
	disallowedChars = regexp.MustCompile(`[^\w\s.\-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes name safe for a Content-Disposition header: the
// directory part is dropped, every character outside letters, digits, '_',
// '.', '-' and whitespace becomes '_', whitespace runs collapse to a single
// '_', and the result is capped at 255 bytes.
func SanitizeFilename(name string) string {
	s := directoryPrefix.ReplaceAllString(name, "")
	s = disallowedChars.ReplaceAllString(s, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")

	if len(s) > maxFilenameLength {
		s = s[:maxFilenameLength]
	}
	if s == "" {
		return "unknown_file"
	}
	return s
}

// ContentDisposition renders the header value for mode and a raw file name.
func ContentDisposition(mode Mode, name string) string {
	return fmt.Sprintf("%s; filename=%q", mode, SanitizeFilename(name))
}
