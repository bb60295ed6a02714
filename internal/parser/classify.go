package parser

import (
	"strings"

	"firewall-rule-engine/internal/utils"
)

// Line is one line of a rule document.
type Line struct {
	Number int    // 1-based
	Raw    string // exactly as submitted
	// Effective is the rule candidate: trimmed, with any trailing "#..."
	// comment removed. Empty for blank and comment lines.
	Effective string
}

// IsBlankOrComment reports whether the line carries no rule.
func (l Line) IsBlankOrComment() bool {
	return l.Effective == ""
}

// SplitLines splits text on "\n" and classifies every line. Empty text is a
// single blank line.
func SplitLines(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, r := range raw {
		lines[i] = classifyLine(i+1, r)
	}
	return lines
}

func classifyLine(number int, raw string) Line {
	line := Line{Number: number, Raw: raw}
	trimmed := utils.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return line
	}
	if i := strings.IndexByte(trimmed, '#'); i >= 0 {
		trimmed = utils.TrimSpace(trimmed[:i])
	}
	line.Effective = trimmed
	return line
}
