// =============================================================================
// Excel Analytics - Label Rules
// =============================================================================
//
// This module rewrites X axis labels after a payload has been built, using
// the label_rules of a job configuration.
//
// RULE TYPES:
//   - trim, uppercase, lowercase
//   - prepend_string, append_string
//   - pad_zeros_to_length
//   - replace, regex_replace
//   - lookup
//
// Rules are applied in order, each to the output of the previous one.
// Datasets are never touched, so label and series alignment holds.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/excel-analytics/internal/config"
)

// LabelTransformer applies a compiled list of label rules.
type LabelTransformer struct {
	rules    []config.LabelRule
	patterns []*regexp.Regexp
}

// NewLabelTransformer compiles rules.
//
// RETURNS:
//   - A transformer ready for concurrent use.
//   - An error for an unknown rule type or an invalid regex.
func NewLabelTransformer(rules []config.LabelRule) (*LabelTransformer, error) {
	t := &LabelTransformer{
		rules:    rules,
		patterns: make([]*regexp.Regexp, len(rules)),
	}

	for i, rule := range rules {
		switch rule.Type {
		case config.RuleTrim, config.RuleUppercase, config.RuleLowercase,
			config.RulePrependString, config.RuleAppendString,
			config.RulePadZerosToLength, config.RuleReplace, config.RuleLookup:
		case config.RuleRegexReplace:
			re, err := regexp.Compile(rule.Find)
			if err != nil {
				return nil, fmt.Errorf("label rule %d: invalid regex pattern: %w", i, err)
			}
			t.patterns[i] = re
		default:
			return nil, fmt.Errorf("label rule %d: unknown type: %s", i, rule.Type)
		}
	}

	return t, nil
}

// Len returns the number of rules.
func (t *LabelTransformer) Len() int {
	return len(t.rules)
}

// Transform applies every rule to label.
func (t *LabelTransformer) Transform(label string) string {
	for i, rule := range t.rules {
		label = applyRule(label, rule, t.patterns[i])
	}
	return label
}

// applyRule applies a single compiled rule.
func applyRule(value string, rule config.LabelRule, re *regexp.Regexp) string {
	switch rule.Type {
	case config.RuleTrim:
		return strings.TrimSpace(value)

	case config.RuleUppercase:
		return strings.ToUpper(value)

	case config.RuleLowercase:
		return strings.ToLower(value)

	case config.RulePrependString:
		// "123" with "Q" becomes "Q123"
		return rule.Value + value

	case config.RuleAppendString:
		return value + rule.Value

	case config.RulePadZerosToLength:
		// "7" with "3" becomes "007"
		targetLength, err := strconv.Atoi(rule.Value)
		if err != nil || targetLength <= 0 {
			return value
		}
		return PadLeft(value, targetLength, '0')

	case config.RuleReplace:
		if rule.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, rule.Find, rule.Value)

	case config.RuleRegexReplace:
		if re == nil || rule.Find == "" {
			return value
		}
		return re.ReplaceAllString(value, rule.Value)

	case config.RuleLookup:
		// Labels not in the table are left unchanged.
		if replacement, ok := rule.LookupTable[value]; ok {
			return replacement
		}
		return value
	}
	return value
}

// PadLeft pads a string with a character on the left to reach the target
// length, counted in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
