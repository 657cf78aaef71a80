package tags

import "strings"

// matchBracket returns the index of the bracket closing the one at open,
// ignoring brackets inside JSON strings, or -1.
func matchBracket(s string, open int) int {
	var stack []byte
	inString, escaped := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
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
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// repairJSON drops trailing commas before a closing bracket, the most common
// slip in generated JSON. String contents are left alone.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := skipSpace(s, i+1)
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// skipFence steps over a markdown code fence the model sometimes wraps payloads in.
func skipFence(s string, i int) int {
	i = skipSpace(s, i)
	if !strings.HasPrefix(s[i:], "```") {
		return i
	}
	i += 3
	if strings.HasPrefix(strings.ToLower(s[i:]), "json") {
		i += 4
	}
	return skipSpace(s, i)
}

// rawUntilClose returns the text after a marker up to its closing bracket or line end.
func rawUntilClose(s string, from int) string {
	rest := s[from:]
	if i := strings.IndexAny(rest, "]\n"); i >= 0 {
		return rest[:i]
	}
	return rest
}
