package command

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// Plan is a named command list, as stored in command files and returned by
// plan generators.
type Plan struct {
	TestName        string
	TestDescription string
	Commands        []Command
}

type planEnvelope struct {
	TestName        string              `json:"testName,omitempty"`
	TestDescription string              `json:"testDescription,omitempty"`
	Commands        jsoniter.RawMessage `json:"commands"`
}

// ParsePlan accepts either a bare command array or an object of the form
// {"testName", "testDescription", "commands"}.
func ParsePlan(data []byte) (*Plan, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env planEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, &ValidationError{Index: -1, Reason: "malformed plan", Err: err}
		}
		cmds, err := Parse(env.Commands)
		if err != nil {
			return nil, err
		}
		return &Plan{TestName: env.TestName, TestDescription: env.TestDescription, Commands: cmds}, nil
	}

	cmds, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}
	return &Plan{Commands: cmds}, nil
}

// MarshalJSON renders the plan in its object form.
func (p *Plan) MarshalJSON() ([]byte, error) {
	cmds, err := EncodeList(p.Commands)
	if err != nil {
		return nil, err
	}
	return json.Marshal(planEnvelope{
		TestName:        p.TestName,
		TestDescription: p.TestDescription,
		Commands:        cmds,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON and accepts the bare array form.
func (p *Plan) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePlan(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}
