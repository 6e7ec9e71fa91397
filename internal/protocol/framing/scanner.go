package framing

import (
	"errors"
	"fmt"
)

var errNoObjects = errors.New("framing: no JSON objects in response")

// splitObjects cuts raw into its top-level brace-balanced runs. Braces inside
// string literals do not count, and whitespace between runs is ignored.
func splitObjects(raw []byte) ([][]byte, error) {
	var (
		out      [][]byte
		depth    int
		start    int
		inString bool
		escaped  bool
	)
	for i, c := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth == 0 {
				return nil, fmt.Errorf("framing: stray string at offset %d", i)
			}
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				return nil, fmt.Errorf("framing: unbalanced '}' at offset %d", i)
			}
			depth--
			if depth == 0 {
				out = append(out, raw[start:i+1])
			}
		case ' ', '\t', '\r', '\n':
		default:
			if depth == 0 {
				return nil, fmt.Errorf("framing: unexpected %q at offset %d", c, i)
			}
		}
	}
	if depth != 0 || inString {
		return nil, fmt.Errorf("framing: truncated object at offset %d", start)
	}
	if len(out) == 0 {
		return nil, errNoObjects
	}
	return out, nil
}
