// Package costmodel evaluates an indexer's declared cost model against a
// client's query shape, producing the per-query fee the selection engine
// weighs against the client's fee budget.
//
// Parsing a full GraphQL document is out of scope here (see the gateway's
// Non-goals): Context extracts just enough structure - the operation's top
// level field name and its argument count - for a cost model's rules to
// match against.
package costmodel

import "fmt"

// Context holds the query-shape facts a cost model evaluates rules
// against, plus a scratch map a cost model's rules may use to stash
// intermediate values across a single Evaluate call. Reset clears the
// scratch map; it does not re-parse the query.
type Context struct {
	operation string
	field     string
	argCount  int
	fields    map[string]bool
	scratch   map[string]string
}

// NewContext extracts the top-level operation name, field name, and
// argument count from a GraphQL query string. It returns an error for
// queries it cannot make sense of structurally (unbalanced braces, no
// selection set at all) - the caller should surface that as a malformed
// query rather than attempting evaluation.
func NewContext(query string) (*Context, error) {
	op, body, err := splitOperationAndBody(query)
	if err != nil {
		return nil, err
	}
	field, argCount, fields, err := parseSelectionSet(body)
	if err != nil {
		return nil, err
	}
	return &Context{
		operation: op,
		field:     field,
		argCount:  argCount,
		fields:    fields,
		scratch:   make(map[string]string),
	}, nil
}

// Operation returns the operation kind: "query", "mutation", or
// "subscription".
func (c *Context) Operation() string { return c.operation }

// Field returns the top-level selection's field name, e.g. "transactions"
// in "{ transactions(first: 10) { id } }".
func (c *Context) Field() string { return c.field }

// ArgCount returns the number of top-level arguments passed to the
// top-level field.
func (c *Context) ArgCount() int { return c.argCount }

// HasField reports whether name appears anywhere as a field selection in
// the query (top-level or nested).
func (c *Context) HasField(name string) bool { return c.fields[name] }

// Scratch returns the value previously stashed under key by a rule, and
// whether one was set.
func (c *Context) Scratch(key string) (string, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

// SetScratch stashes a value under key for later rules in the same
// Evaluate call to read back.
func (c *Context) SetScratch(key, value string) {
	c.scratch[key] = value
}

// Reset clears the scratch map. A cost model evaluator calls this before
// evaluating against a fresh candidate so one candidate's intermediate
// state never leaks into the next.
func (c *Context) Reset() {
	c.scratch = make(map[string]string)
}

func splitOperationAndBody(query string) (op string, body string, err error) {
	start := -1
	for i, r := range query {
		if r == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", "", fmt.Errorf("costmodel: no selection set in query")
	}
	end := matchingBrace(query, start)
	if end < 0 {
		return "", "", fmt.Errorf("costmodel: unbalanced braces in query")
	}

	head := query[:start]
	op = "query"
	for _, candidate := range []string{"subscription", "mutation", "query"} {
		if containsWord(head, candidate) {
			op = candidate
			break
		}
	}
	return op, query[start+1 : end], nil
}

func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func containsWord(s, word string) bool {
	idx := 0
	for {
		i := indexFrom(s, word, idx)
		if i < 0 {
			return false
		}
		before := i == 0 || !isIdentByte(s[i-1])
		after := i+len(word) >= len(s) || !isIdentByte(s[i+len(word)])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func indexFrom(s, substr string, from int) int {
	if from >= len(s) {
		return -1
	}
	for i := from; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// parseSelectionSet walks the contents of the outermost {...} and returns
// the first field's name and argument count, plus the set of every field
// name found anywhere in the selection set (used for HasField).
func parseSelectionSet(body string) (field string, argCount int, fields map[string]bool, err error) {
	fields = make(map[string]bool)
	first := true
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case isIdentStart(c):
			j := i
			for j < len(body) && isIdentByte(body[j]) {
				j++
			}
			name := body[i:j]
			fields[name] = true
			args := 0
			k := skipSpace(body, j)
			if k < len(body) && body[k] == '(' {
				end := matchingParen(body, k)
				if end < 0 {
					return "", 0, nil, fmt.Errorf("costmodel: unbalanced parens in query")
				}
				args = countTopLevelArgs(body[k+1 : end])
				k = end + 1
			}
			if first {
				field = name
				argCount = args
				first = false
			}
			k = skipSpace(body, k)
			if k < len(body) && body[k] == '{' {
				end := matchingBrace(body, k)
				if end < 0 {
					return "", 0, nil, fmt.Errorf("costmodel: unbalanced braces in query")
				}
				_, _, nested, nerr := parseSelectionSet(body[k+1 : end])
				if nerr != nil {
					return "", 0, nil, nerr
				}
				for n := range nested {
					fields[n] = true
				}
				k = end + 1
			}
			i = k
		default:
			i++
		}
	}
	if first {
		return "", 0, nil, fmt.Errorf("costmodel: empty selection set")
	}
	return field, argCount, fields, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func countTopLevelArgs(s string) int {
	trimmed := true
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			trimmed = false
			break
		}
	}
	if trimmed {
		return 0
	}
	depth := 0
	count := 1
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}
