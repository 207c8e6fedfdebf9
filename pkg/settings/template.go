package settings

import (
	"regexp"
	"strings"
)

var (
	invalidTemplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`<%[^=]([^<>%]*)%>`),
		regexp.MustCompile(`\$\{([^{}]*)\}`),
	}
	interpolationPattern = regexp.MustCompile(`<%=([^<>%=]*)%>`)

	authorizedTemplateKeys = map[string]bool{
		"URL":           true,
		"ADMIN_URL":     true,
		"SERVER_URL":    true,
		"CODE":          true,
		"USER":          true,
		"USER.email":    true,
		"USER.username": true,
		"TOKEN":         true,
	}
)

// IsValidEmailTemplate accepts only plain interpolations of known variables.
// Evaluation blocks and ${} expressions are rejected.
func IsValidEmailTemplate(template string) bool {
	for _, re := range invalidTemplatePatterns {
		if re.MatchString(template) {
			return false
		}
	}

	for _, match := range interpolationPattern.FindAllStringSubmatch(template, -1) {
		if !authorizedTemplateKeys[strings.TrimSpace(match[1])] {
			return false
		}
	}
	return true
}
