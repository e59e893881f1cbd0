package service

import (
	"fmt"
	"strings"

	"callaudit-backend/models"
)

// NormalizeRules canonicalizes a parameter group's rule list. Input order
// is preserved: the oracle prompt enumerates rules in this order and
// verdicts are matched back positionally when no ruleId is present.
// Embedded line breaks are collapsed to spaces because the prompt's rule
// enumeration is line-oriented.
func NormalizeRules(group models.ParameterRule) ([]models.RuleSpec, error) {
	if len(group.RuleList) == 0 {
		return nil, fmt.Errorf("%w: group %s", ErrEmptyRuleList, group.ID)
	}

	specs := make([]models.RuleSpec, len(group.RuleList))
	for i, rule := range group.RuleList {
		text := collapseLines(rule.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: group %s, rule %d", ErrBlankRule, group.ID, i)
		}
		specs[i] = models.RuleSpec{
			RuleID: rule.RuleID,
			Text:   text,
		}
	}

	return specs, nil
}

// collapseLines replaces embedded line breaks with spaces and trims the
// result.
func collapseLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
