package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/defcon/pkg/state"
)

// ErrRender is wrapped by every RenderError.
var ErrRender = errors.New("render failed")

// RenderError reports a template that cannot be rendered against a state.
type RenderError struct {
	Field  string
	Reason string
}

func (e *RenderError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("render: %s", e.Reason)
	}
	return fmt.Sprintf("render: %s %q", e.Reason, e.Field)
}

func (e *RenderError) Unwrap() error {
	return ErrRender
}

// Render substitutes {field} placeholders with values from the state.
// "{{" and "}}" produce literal braces.
func Render(text string, st *state.PlayerState) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	err := scan(text, func(literal string) {
		b.WriteString(literal)
	}, func(field string) error {
		v, ok := st.Lookup(field)
		if !ok {
			return &RenderError{Field: field, Reason: "unknown attribute"}
		}
		b.WriteString(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Placeholders returns the field names referenced by text, in order of appearance.
func Placeholders(text string) ([]string, error) {
	var fields []string
	err := scan(text, func(string) {}, func(field string) error {
		fields = append(fields, field)
		return nil
	})
	return fields, err
}

func scan(text string, literal func(string), field func(string) error) error {
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				literal("{")
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return &RenderError{Field: text[i+1:], Reason: "unclosed placeholder"}
			}
			name := strings.TrimSpace(text[i+1 : i+1+end])
			if name == "" {
				return &RenderError{Reason: "empty placeholder"}
			}
			if err := field(name); err != nil {
				return err
			}
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				literal("}")
				i++
				continue
			}
			return &RenderError{Reason: "single '}' in template"}
		default:
			// copy the run up to the next brace in one go
			j := i
			for j < len(text) && text[j] != '{' && text[j] != '}' {
				j++
			}
			literal(text[i:j])
			i = j - 1
		}
	}
	return nil
}
