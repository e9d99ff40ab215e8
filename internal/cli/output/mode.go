// Package output renders command results for terminals, scripts and agents.
//
// In auto mode a terminal gets styled text and anything else gets Markdown,
// which reads well both for people and for tools consuming piped output.
package output

import (
	"strings"
)

// OutputMode selects how results are rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode converts a configured format name into an OutputMode. Unknown and
// empty names select ModeAuto; "md" is accepted for Markdown.
func Mode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return ModeText
	case "markdown", "md":
		return ModeMarkdown
	case "json":
		return ModeJSON
	default:
		return ModeAuto
	}
}
