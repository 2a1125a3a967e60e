// Package testcase turns the test cases stored on a problem into the
// executable form sent to the execution service.
//
// Stored test cases come in two shapes: the structured authoring schema,
// where every input parameter is named and carries a typed JSON value, and
// legacy free text such as "nums = [2,7,11,15], target = 9". Both are
// rendered as a prelude of variable declarations placed before the user's
// code. Legacy text without any binding is passed to the program on stdin.
package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"daily_judge/internal/common"
)

var ErrNoTestCases = fmt.Errorf("%w: problem has no test cases", common.ErrValidation)

// Text accepts either a JSON string or any other JSON value, which is kept
// in its compact textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// Param is one named input of a structured test case.
type Param struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Stored is a test case as it is persisted on a problem.
type Stored struct {
	Input  Text    `json:"input,omitempty"`
	Output Text    `json:"output"`
	Params []Param `json:"params,omitempty"`
}

// List is the ordered set of stored test cases of a problem. It decodes from
// an array, from an object keyed by numeric-like strings, or from nothing.
type List []Stored

func (l *List) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*l = decoded
	return nil
}

// Decode reads the raw stored test-case field. Object keys are ordered
// numerically; keys that are not numbers follow, in lexical order.
// Shapes other than array or object decode to an empty list.
func Decode(raw json.RawMessage) (List, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []Stored
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode test case array: %w", err)
		}
		return list, nil
	case '{':
		var keyed map[string]Stored
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("decode keyed test cases: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

		list := make([]Stored, 0, len(keys))
		for _, k := range keys {
			list = append(list, keyed[k])
		}
		return list, nil
	default:
		return nil, nil
	}
}

func keyLess(a, b string) bool {
	na, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	nb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Case is a test case ready to be executed.
type Case struct {
	Prelude  string
	Stdin    string
	Expected string
}

// Source joins the prelude and the user's code into the program to run.
func (c Case) Source(code string) string {
	if c.Prelude == "" {
		return code
	}
	return c.Prelude + "\n\n" + code
}

// Prepare renders every stored test case, preserving order. An empty list is
// a validation error.
func Prepare(list List) ([]Case, error) {
	if len(list) == 0 {
		return nil, ErrNoTestCases
	}

	cases := make([]Case, 0, len(list))
	for i, stored := range list {
		c := Case{Expected: string(stored.Output)}
		if len(stored.Params) > 0 {
			prelude, err := renderParams(stored.Params)
			if err != nil {
				return nil, fmt.Errorf("%w: test case %d: %v", common.ErrValidation, i+1, err)
			}
			c.Prelude = prelude
		} else if bindings := parseBindings(string(stored.Input)); len(bindings) > 0 {
			c.Prelude = renderBindings(bindings)
		} else {
			c.Stdin = string(stored.Input)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Normalize decodes and prepares a raw stored test-case field in one step.
func Normalize(raw json.RawMessage) ([]Case, error) {
	list, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Prepare(list)
}
