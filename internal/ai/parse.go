package ai

import (
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/v0xg/hatter/internal/command"
)

// parsePlan extracts a plan from a model reply. The reply may wrap the JSON
// in prose or a code fence, and may use the relaxed object syntax models
// tend to copy from examples (unquoted keys, trailing commas, comments).
func parsePlan(reply string) (*command.Plan, error) {
	candidate := strings.TrimSpace(reply)
	if p, err := command.ParsePlan([]byte(candidate)); err == nil {
		return p, nil
	}

	if fenced, ok := codeFence(candidate); ok {
		candidate = fenced
	}
	if extracted, ok := balanced(candidate); ok {
		candidate = extracted
	} else {
		return nil, errors.New("no JSON object or array found in response")
	}

	p, err := command.ParsePlan([]byte(candidate))
	if err == nil {
		return p, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(candidate)
	if rerr != nil {
		return nil, err
	}
	return command.ParsePlan([]byte(repaired))
}

// codeFence returns the body of the first ``` block.
func codeFence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		// drop the language tag
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return body, true
	}
	return body[:end], true
}

// balanced returns the first bracketed JSON value in s, skipping brackets
// inside string literals.
func balanced(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return "", false
	}

	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	// unterminated; let the repair pass close it
	return s[start:], true
}
