package handler

import (
	"regexp"
	"strings"
)

// Maximum lengths applied to free text after sanitising.
const (
	maxName         = 50
	maxPhone        = 20
	maxDOB          = 10
	maxHistory      = 2000
	maxReason       = 200
	maxMedication   = 200
	maxInstructions = 500
	maxDescription  = 200
	maxMessage      = 500
)

var markupRe = regexp.MustCompile(`<[^>]*?>`)

// sanitize trims s, strips tag-like markup and truncates it to max runes.
func sanitize(s string, max int) string {
	s = markupRe.ReplaceAllString(strings.TrimSpace(s), "")
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}
	return s
}
