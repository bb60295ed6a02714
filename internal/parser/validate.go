package parser

import (
	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/pkg/wellknown"
)

// Validate checks every line of text independently and collects one error
// per bad line, in line order. It never fails: malformed input is reported
// in the result.
func Validate(text string) model.ValidationResult {
	result := model.ValidationResult{Errors: []model.ValidationError{}}
	for _, line := range SplitLines(text) {
		if line.IsBlankOrComment() {
			continue
		}
		if _, verr := ParseRule(line.Effective, line.Number); verr != nil {
			result.Errors = append(result.Errors, *verr)
			continue
		}
		result.RuleCount++
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ParseDocument validates text like Validate and also returns the valid
// rules, with single ports annotated by their well-known service name.
func ParseDocument(text string) ([]model.ParsedRule, model.ValidationResult) {
	rules := []model.ParsedRule{}
	result := model.ValidationResult{Errors: []model.ValidationError{}}
	for _, line := range SplitLines(text) {
		if line.IsBlankOrComment() {
			continue
		}
		rule, verr := ParseRule(line.Effective, line.Number)
		if verr != nil {
			result.Errors = append(result.Errors, *verr)
			continue
		}
		annotateServices(&rule)
		rules = append(rules, rule)
		result.RuleCount++
	}
	result.Valid = len(result.Errors) == 0
	return rules, result
}

func annotateServices(rule *model.ParsedRule) {
	for i := range rule.Ports {
		p := &rule.Ports[i]
		if p.IsRange {
			continue
		}
		p.Service = wellknown.ServiceName(p.Start, rule.Protocol)
	}
}
