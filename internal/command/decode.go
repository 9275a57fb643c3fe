package command

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"
)

// Plan generators often quote numbers ("duration": "500") or emit bare
// numbers for text fields, so decoding is fuzzy.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func init() {
	extra.RegisterFuzzyDecoders()
}

var factories = map[Action]func() Command{
	ActionNavigate:               func() Command { return &Navigate{} },
	ActionWaitForSelector:        func() Command { return &WaitForSelector{} },
	ActionWaitForSelectorPartial: func() Command { return &WaitForSelectorPartial{} },
	ActionType:                   func() Command { return &Type{} },
	ActionTypePartial:            func() Command { return &TypePartial{} },
	ActionClick:                  func() Command { return &Click{} },
	ActionClickPartial:           func() Command { return &ClickPartial{} },
	ActionSelectOption:           func() Command { return &SelectOption{} },
	ActionHover:                  func() Command { return &Hover{} },
	ActionScroll:                 func() Command { return &Scroll{} },
	ActionWait:                   func() Command { return &Wait{} },
	ActionWaitForNavigation:      func() Command { return &WaitForNavigation{} },
	ActionWaitForText:            func() Command { return &WaitForText{} },
	ActionScreenshot:             func() Command { return &Screenshot{} },
	ActionGetCookies:             func() Command { return &GetCookies{} },
	ActionSetCookie:              func() Command { return &SetCookie{} },
	ActionEvaluate:               func() Command { return &Evaluate{} },
	ActionAssertText:             func() Command { return &AssertText{} },
	ActionAssertElementExists:    func() Command { return &AssertElementExists{} },
	ActionClearInput:             func() Command { return &ClearInput{} },
}

// Known reports whether a is part of the command vocabulary.
func Known(a Action) bool {
	_, ok := factories[a]
	return ok
}

// Parse decodes a JSON command list. It rejects input that is empty, not a
// list, or contains entries without an action tag. Field contents are not
// checked here: missing fields, and fields of the wrong type, surface when
// the command runs.
func Parse(data []byte) ([]Command, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ValidationError{Index: -1, Reason: "commands must be a non-empty list", Err: ErrNoCommands}
	}
	if trimmed[0] != '[' {
		return nil, &ValidationError{Index: -1, Reason: "commands must be a JSON list"}
	}

	var raws []jsoniter.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, &ValidationError{Index: -1, Reason: "malformed command list", Err: err}
	}
	if len(raws) == 0 {
		return nil, &ValidationError{Index: -1, Reason: "commands must be a non-empty list", Err: ErrNoCommands}
	}

	cmds := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := decodeOne(raw)
		if err != nil {
			return nil, &ValidationError{Index: i, Reason: "malformed command", Err: err}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func decodeOne(raw []byte) (Command, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("entry is not an object")
	}

	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return nil, err
	}
	if head.Action == "" {
		return nil, errors.New(`missing "action"`)
	}

	factory, ok := factories[Action(head.Action)]
	if !ok {
		u := &Unknown{Name: head.Action, Raw: append([]byte(nil), trimmed...)}
		// description is best effort for unknown entries
		_ = json.Unmarshal(trimmed, &u.Base)
		return u, nil
	}

	cmd := factory()
	if err := json.Unmarshal(trimmed, cmd); err != nil {
		m := &Malformed{
			Name: Action(head.Action),
			Err:  fmt.Errorf("invalid fields: %w", err),
			Raw:  append([]byte(nil), trimmed...),
		}
		_ = json.Unmarshal(trimmed, &m.Base)
		return m, nil
	}
	return cmd, nil
}

// Encode renders a command as a JSON object including its action tag.
func Encode(c Command) ([]byte, error) {
	switch x := c.(type) {
	case *Unknown:
		if len(x.Raw) > 0 {
			return x.Raw, nil
		}
	case *Malformed:
		if len(x.Raw) > 0 {
			return x.Raw, nil
		}
	}

	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	fields := map[string]jsoniter.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(string(c.Action()))
	if err != nil {
		return nil, err
	}
	fields["action"] = tag
	return json.Marshal(fields)
}

// EncodeList renders a command list as a JSON array.
func EncodeList(cmds []Command) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range cmds {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := Encode(c)
		if err != nil {
			return nil, fmt.Errorf("encode command %d: %w", i+1, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
