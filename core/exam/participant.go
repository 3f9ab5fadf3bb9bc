package exam

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidateParticipantID reports whether id satisfies every constraint set on rule.
// An empty rule accepts any identifier. Lengths count characters, not bytes.
func ValidateParticipantID(id string, rule ValidationRule) bool {
	n := utf8.RuneCountInString(id)
	if rule.MinLength != nil && n < *rule.MinLength {
		return false
	}
	if rule.MaxLength != nil && n > *rule.MaxLength {
		return false
	}
	if len(rule.StartsWith) > 0 && !hasAnyPrefix(id, rule.StartsWith) {
		return false
	}
	if rule.Regex != "" {
		// compiled per call: no cache survives a rule edit
		re, err := regexp.Compile(rule.Regex)
		if err != nil || !re.MatchString(id) {
			return false
		}
	}
	return true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
