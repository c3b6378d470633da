package expression

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	refOpen  = "<+"
	refClose = ">"
	refIdent = "__ref"
)

// rewrite replaces every <+path> reference in expression.
// Outside string literals a reference becomes a generated identifier bound in
// the returned env; inside a string literal the resolved value is spliced in
// as text, so "<+pipeline.name>-suffix" keeps working.
func rewrite(expression string, resolve func(path string) (any, error)) (string, map[string]any, error) {
	var (
		out   strings.Builder
		env   = make(map[string]any)
		quote byte
		n     int
	)

	for i := 0; i < len(expression); {
		c := expression[i]

		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(expression):
				out.WriteByte(c)
				out.WriteByte(expression[i+1])
				i += 2
				continue
			case c == quote:
				quote = 0
			case strings.HasPrefix(expression[i:], refOpen):
				path, width, err := readReference(expression[i:])
				if err != nil {
					return "", nil, err
				}
				value, err := resolve(path)
				if err != nil {
					return "", nil, err
				}
				out.WriteString(escapeInQuote(fmt.Sprint(value), quote))
				i += width
				continue
			}
			out.WriteByte(c)
			i++
			continue
		}

		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
			out.WriteByte(c)
			i++
		case strings.HasPrefix(expression[i:], refOpen):
			path, width, err := readReference(expression[i:])
			if err != nil {
				return "", nil, err
			}
			value, err := resolve(path)
			if err != nil {
				return "", nil, err
			}
			name := refIdent + strconv.Itoa(n)
			n++
			env[name] = value
			out.WriteString(name)
			i += width
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), env, nil
}

// readReference parses "<+path>" at the start of s.
func readReference(s string) (string, int, error) {
	end := strings.Index(s, refClose)
	if end < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedReference, s)
	}
	path := strings.TrimSpace(s[len(refOpen):end])
	if path == "" {
		return "", 0, fmt.Errorf("%w: empty reference", ErrMalformedReference)
	}
	return path, end + len(refClose), nil
}

func escapeInQuote(s string, quote byte) string {
	if quote == '`' {
		return strings.ReplaceAll(s, "`", "")
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, string(quote), `\`+string(quote))
}

// lookup walks a dotted path through nested maps.
func lookup(vars map[string]any, path string) (any, bool) {
	var current any = vars
	for _, part := range strings.Split(path, ".") {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[any]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}
