package survey

import (
	"strings"

	"p9e.in/idfsurvey/models"
)

// Validate computes the missing-field list for a session against a rule.
// Pure: no side effects, idempotent, callable on every input edit.
//
// Order is stable for user-facing messaging: the category's fields in rule
// order, then MOBILE_NO last when the mobile check fails.
func Validate(s *Session, rule models.CategoryRule) []string {
	var missing []string

	for _, field := range rule.Fields {
		if models.FieldIsAttachment(field) {
			if len(s.Attachments[field]) == 0 {
				missing = append(missing, field)
			}
			continue
		}
		if strings.TrimSpace(s.TextValues[field]) == "" {
			missing = append(missing, field)
		}
	}

	if !s.Category.MobileExempt() && !validMobile(s.MobileNo) {
		missing = append(missing, models.MobileFieldKey)
	}

	return missing
}

// validMobile requires exactly 10 ASCII digits.
func validMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
