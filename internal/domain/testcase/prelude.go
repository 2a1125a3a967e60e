package testcase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultArray  = "[]"
	defaultScalar = "0"
)

var (
	bindingPattern    = regexp.MustCompile(`([A-Za-z_]\w*)\s*=\s*`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

type binding struct {
	name  string
	value string
}

// parseBindings extracts "name = value" pairs from legacy input text.
// Array values must be a closed bracketed literal and scalars a number,
// a quoted string or a boolean; anything else falls back to [] or 0.
func parseBindings(text string) []binding {
	inQuotes := quotedBytes(text)
	var matches [][]int
	for _, m := range bindingPattern.FindAllStringSubmatchIndex(text, -1) {
		if !inQuotes[m[0]] {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	bindings := make([]binding, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		name := text[m[2]:m[3]]
		raw := strings.TrimRight(strings.TrimSpace(text[m[1]:end]), ", \t\n")
		bindings = append(bindings, binding{name: name, value: bindingValue(raw)})
	}
	return bindings
}

func bindingValue(raw string) string {
	if strings.HasPrefix(raw, "[") {
		if closing := matchingBracket(raw); closing > 0 {
			return raw[:closing+1]
		}
		return defaultArray
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return raw
	}
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw
	}
	switch raw {
	case "True", "true":
		return "True"
	case "False", "false":
		return "False"
	}
	return defaultScalar
}

// matchingBracket returns the index of the bracket closing s[0], or -1.
func matchingBracket(s string) int {
	inQuotes := quotedBytes(s)
	depth := 0
	for i := 0; i < len(s); i++ {
		if inQuotes[i] {
			continue
		}
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// quotedBytes marks every byte of s that belongs to a quoted literal,
// quotes included.
func quotedBytes(s string) []bool {
	marks := make([]bool, len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			marks[i] = true
			if c == '\\' && i+1 < len(s) {
				i++
				marks[i] = true
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			marks[i] = true
		}
	}
	return marks
}

func renderBindings(bindings []binding) string {
	lines := make([]string, 0, len(bindings))
	for _, b := range bindings {
		lines = append(lines, b.name+" = "+b.value)
	}
	return strings.Join(lines, "\n")
}

func renderParams(params []Param) (string, error) {
	lines := make([]string, 0, len(params))
	for _, p := range params {
		if !identifierPattern.MatchString(p.Name) {
			return "", fmt.Errorf("invalid parameter name %q", p.Name)
		}
		literal, err := pythonLiteral(p.Value)
		if err != nil {
			return "", fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		lines = append(lines, p.Name+" = "+literal)
	}
	return strings.Join(lines, "\n"), nil
}

// pythonLiteral renders a JSON value as a Python literal.
func pythonLiteral(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", errors.New("missing value")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := writeLiteral(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeLiteral(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("None")
	case bool:
		if val {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case json.Number:
		sb.WriteString(val.String())
	case string:
		quoted, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(quoted)
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeLiteral(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeLiteral(sb, k); err != nil {
				return err
			}
			sb.WriteString(": ")
			if err := writeLiteral(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value of type %T", v)
	}
	return nil
}
