package query

import "strings"

// ErrorNode is one message in a ParseError, with optional sub-messages that
// explain it (for example each alternative of a union).
type ErrorNode struct {
	Message  string      `json:"message"`
	Children []ErrorNode `json:"children,omitempty"`
}

// ParseError reports every problem found in a query block. A block with a
// ParseError is not rendered at all.
type ParseError struct {
	Messages []ErrorNode `json:"messages"`
}

func (e *ParseError) Error() string {
	if len(e.Messages) == 1 && len(e.Messages[0].Children) == 0 {
		return "invalid query: " + e.Messages[0].Message
	}
	return "invalid query:\n" + strings.Join(e.Lines(), "\n")
}

// Lines renders the message tree as indented bullet lines.
func (e *ParseError) Lines() []string {
	var lines []string
	var walk func(nodes []ErrorNode, depth int)
	walk = func(nodes []ErrorNode, depth int) {
		for _, n := range nodes {
			lines = append(lines, strings.Repeat("  ", depth)+"- "+n.Message)
			walk(n.Children, depth+1)
		}
	}
	walk(e.Messages, 0)
	return lines
}

func newParseError(msg string) *ParseError {
	return &ParseError{Messages: []ErrorNode{{Message: msg}}}
}
