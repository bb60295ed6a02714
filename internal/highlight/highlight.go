// Package highlight renders rule text as HTML with syntax-* span classes.
//
// Highlighting is lexical and independent of validation: invalid rules are
// still colored. Every line of input produces exactly one line of output.
package highlight

import (
	"strings"

	"firewall-rule-engine/internal/utils"
)

const (
	ClassAction    = "syntax-action"
	ClassDirection = "syntax-direction"
	ClassProtocol  = "syntax-protocol"
	ClassAddress   = "syntax-address"
	ClassAny       = "syntax-any"
	ClassPort      = "syntax-port"
	ClassComment   = "syntax-comment"
)

// Quotes are left unescaped.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\u00a0", "&nbsp;",
)

func escape(s string) string {
	return htmlEscaper.Replace(s)
}

func span(class, inner string) string {
	return `<span class="` + class + `">` + inner + `</span>`
}

// Highlight returns text with each line replaced by its annotated form.
func Highlight(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = Line(line)
	}
	return strings.Join(lines, "\n")
}

// Line highlights a single raw line.
func Line(line string) string {
	trimmed := utils.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return span(ClassComment, escape(line))
	}
	if trimmed == "" {
		return line
	}

	rule, comment := line, ""
	if i := strings.IndexByte(line, '#'); i > 0 {
		rule, comment = line[:i], line[i:]
	}

	out := highlightRule(rule)
	if comment != "" {
		out += span(ClassComment, escape(comment))
	}
	return out
}
