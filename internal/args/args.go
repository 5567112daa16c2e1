// Package args splits interactive input into fields, honoring quotes and backslash escapes.
package args

import (
	"fmt"
	"strings"
	"unicode"
)

// Parse splits line into fields separated by whitespace.  A field may be wrapped in single or double quotes to
// include whitespace, and a backslash includes the following character literally, inside quotes or out.  A closing
// quote must be followed by whitespace or the end of the line.
func Parse(line string) ([]string, error) {
	fields := make([]string, 0, 4)
	var field strings.Builder
	inField := false
	quote := rune(0)
	closed := false // true right after a closing quote
	escaped := false
	for i, ch := range line {
		switch {
		case escaped:
			field.WriteRune(ch)
			escaped = false
		case ch == '\\':
			if closed {
				return nil, fmt.Errorf(`unexpected %q after quote at offset %v`, ch, i)
			}
			escaped, inField = true, true
		case quote != 0:
			if ch == quote {
				quote, closed = 0, true
				continue
			}
			field.WriteRune(ch)
		case unicode.IsSpace(ch):
			if inField {
				fields = append(fields, field.String())
				field.Reset()
				inField = false
			}
			closed = false
		case closed:
			return nil, fmt.Errorf(`unexpected %q after quote at offset %v`, ch, i)
		case ch == '"' || ch == '\'':
			if inField {
				return nil, fmt.Errorf(`unexpected %q inside field at offset %v`, ch, i)
			}
			quote, inField = ch, true
		default:
			field.WriteRune(ch)
			inField = true
		}
	}
	switch {
	case escaped:
		return nil, fmt.Errorf(`trailing backslash`)
	case quote != 0:
		return nil, fmt.Errorf(`unterminated %q quote`, quote)
	}
	if inField {
		fields = append(fields, field.String())
	}
	return fields, nil
}
