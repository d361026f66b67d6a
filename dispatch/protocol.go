package dispatch

import "strings"

const (
	// DirectivePrefix marks a line addressed to the dispatcher itself.
	DirectivePrefix = "#ag:"

	// DirectiveExit requests a graceful shutdown.
	DirectiveExit = "exit"

	ackOK  = "ok"
	ackDud = "rs 0 Dud"
)

// IsAck returns true if a device line acknowledges a sent line, either as
// success ("ok") or as a rejected line ("rs 0 Dud ...").
//
// Lines that merely start with "ok", such as temperature reports, are not
// acknowledgements.
func IsAck(s string) bool {
	s = strings.TrimSpace(s)
	return s == ackOK || strings.HasPrefix(s, ackDud)
}

// ParseDirective returns the directive named by s, if s is one.
func ParseDirective(s string) (string, bool) {
	if !strings.HasPrefix(s, DirectivePrefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(DirectivePrefix):]), true
}
