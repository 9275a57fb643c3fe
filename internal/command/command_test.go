package command

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/hatter/internal/selector"
)

func TestParse_RejectsStructurallyInvalidInput(t *testing.T) {
	cases := map[string]string{
		"empty input":    ``,
		"null":           `null`,
		"empty list":     `[]`,
		"object":         `{"action":"navigate"}`,
		"string":         `"navigate"`,
		"non-object":     `[1, 2]`,
		"missing action": `[{"url":"http://example.com"}]`,
		"blank action":   `[{"action":""}]`,
		"broken json":    `[{"action":"navigate",}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			cmds, err := Parse([]byte(input))
			require.Error(t, err)
			assert.Nil(t, cmds)
			assert.True(t, IsValidation(err), "want ValidationError, got %T", err)
		})
	}
}

func TestParse_EmptyListWrapsErrNoCommands(t *testing.T) {
	_, err := Parse([]byte(" [ ] "))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCommands))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, -1, verr.Index)
}

func TestParse_EntryIndexReported(t *testing.T) {
	_, err := Parse([]byte(`[{"action":"wait"}, 42]`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Index)
	assert.Contains(t, verr.Error(), "command 2")
}

func TestParse_DecodesEveryVariant(t *testing.T) {
	input := `[
		{"action":"navigate","url":"https://example.com","description":"open"},
		{"action":"waitForSelector","selector":"#login"},
		{"action":"waitForSelectorPartial","partialId":"login"},
		{"action":"type","selector":"#user","text":"alice"},
		{"action":"typePartial","partialId":"pass","text":"secret"},
		{"action":"click","selector":"button[type=submit]"},
		{"action":"clickPartial","partialId":"submit"},
		{"action":"selectOption","selector":"#country","value":"nz"},
		{"action":"hover","selector":".menu"},
		{"action":"scroll","y":400},
		{"action":"wait","duration":250},
		{"action":"waitForNavigation"},
		{"action":"waitForText","text":"Welcome"},
		{"action":"screenshot","filename":"done.png"},
		{"action":"getCookies"},
		{"action":"setCookie","cookie":{"name":"sid","value":"abc","secure":true}},
		{"action":"evaluate","code":"return 1"},
		{"action":"assertText","selector":"h1","expectedText":"Dashboard"},
		{"action":"assertElementExists","selector":".avatar"},
		{"action":"clearInput","selector":"#search"},
		{"action":"teleport","where":"mars","description":"??"}
	]`

	cmds, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, cmds, 21)

	assert.Equal(t, &Navigate{Base: Base{Description: "open"}, URL: "https://example.com"}, cmds[0])
	assert.Equal(t, "#login", cmds[1].(*WaitForSelector).Selector)
	assert.Equal(t, "login", cmds[2].(*WaitForSelectorPartial).PartialID)
	assert.Equal(t, &Type{Selector: "#user", Text: "alice"}, cmds[3])
	assert.Equal(t, &TypePartial{PartialID: "pass", Text: "secret"}, cmds[4])
	assert.Equal(t, "nz", cmds[7].(*SelectOption).Value)

	scroll := cmds[9].(*Scroll)
	require.NotNil(t, scroll.Y)
	assert.Equal(t, 400, *scroll.Y)

	assert.Equal(t, 250, cmds[10].(*Wait).Millis())

	cookie := cmds[15].(*SetCookie).Cookie
	require.NotNil(t, cookie)
	assert.Equal(t, "sid", cookie.Name)
	assert.True(t, cookie.Secure)

	assert.Equal(t, "Dashboard", cmds[17].(*AssertText).ExpectedText)

	unknown, ok := cmds[20].(*Unknown)
	require.True(t, ok)
	assert.Equal(t, Action("teleport"), unknown.Action())
	assert.Equal(t, "??", unknown.Describe())
	assert.JSONEq(t, `{"action":"teleport","where":"mars","description":"??"}`, string(unknown.Raw))
	assert.False(t, Known(unknown.Action()))
}

func TestParse_FuzzyNumbers(t *testing.T) {
	cmds, err := Parse([]byte(`[{"action":"wait","duration":"500"},{"action":"scroll","y":"0"},{"action":"type","selector":"#n","text":42}]`))
	require.NoError(t, err)

	assert.Equal(t, 500, cmds[0].(*Wait).Millis())
	y := cmds[1].(*Scroll).Y
	require.NotNil(t, y)
	assert.Equal(t, 0, *y)
	assert.Equal(t, "42", cmds[2].(*Type).Text)
}

func TestParse_MissingFieldsDeferredToExecution(t *testing.T) {
	cmds, err := Parse([]byte(`[{"action":"type","text":"hi"},{"action":"scroll"}]`))
	require.NoError(t, err)

	_, err = cmds[0].(Targeted).Target()
	assert.ErrorIs(t, err, selector.ErrEmpty)
	assert.Nil(t, cmds[1].(*Scroll).Y)
}

func TestParse_MistypedFieldsDeferredToExecution(t *testing.T) {
	input := `[{"action":"setCookie","cookie":"abc","description":"bad cookie"},{"action":"navigate","url":{"x":1}}]`
	cmds, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	m, ok := cmds[0].(*Malformed)
	require.True(t, ok, "got %T", cmds[0])
	assert.Equal(t, ActionSetCookie, m.Action())
	assert.Equal(t, "bad cookie", m.Describe())
	assert.ErrorContains(t, m.Err, "invalid fields")
	assert.Equal(t, ActionNavigate, cmds[1].Action())

	out, err := Encode(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"setCookie","cookie":"abc","description":"bad cookie"}`, string(out))
}

func TestWait_MillisDefault(t *testing.T) {
	assert.Equal(t, 1000, (&Wait{}).Millis())
	assert.Equal(t, 1000, (&Wait{Duration: -5}).Millis())
	assert.Equal(t, 10, (&Wait{Duration: 10}).Millis())
}

func TestScreenshot_Name(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "screenshot-1700000000123.png", (&Screenshot{}).Name(now))
	assert.Equal(t, "a.png", (&Screenshot{Filename: "a.png"}).Name(now))
}

func TestTarget_PartialResolution(t *testing.T) {
	sel, err := (&TypePartial{PartialID: "foo"}).Target()
	require.NoError(t, err)
	assert.Equal(t, `[id*="foo"]`, sel)

	sel, err = (&Click{Selector: "#go"}).Target()
	require.NoError(t, err)
	assert.Equal(t, "#go", sel)
}

func TestEncode_RoundTrip(t *testing.T) {
	y := 0
	cmds := []Command{
		&Navigate{URL: "https://example.com"},
		&Scroll{Y: &y},
		&AssertText{Base: Base{Description: "heading"}, Selector: "h1", ExpectedText: `say "hi"`},
		&Unknown{Name: "teleport", Raw: []byte(`{"action":"teleport"}`)},
	}

	out, err := EncodeList(cmds)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"action":"navigate","url":"https://example.com"},
		{"action":"scroll","y":0},
		{"action":"assertText","description":"heading","selector":"h1","expectedText":"say \"hi\""},
		{"action":"teleport"}
	]`, string(out))

	back, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, cmds[:3], back[:3])
}

func TestParsePlan(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		p, err := ParsePlan([]byte(`[{"action":"wait"}]`))
		require.NoError(t, err)
		assert.Empty(t, p.TestName)
		assert.Len(t, p.Commands, 1)
	})

	t.Run("object", func(t *testing.T) {
		p, err := ParsePlan([]byte(`{"testName":"Login","testDescription":"logs in","commands":[{"action":"navigate","url":"http://x"}]}`))
		require.NoError(t, err)
		assert.Equal(t, "Login", p.TestName)
		assert.Equal(t, "logs in", p.TestDescription)
		require.Len(t, p.Commands, 1)
		assert.Equal(t, ActionNavigate, p.Commands[0].Action())
	})

	t.Run("object without commands", func(t *testing.T) {
		_, err := ParsePlan([]byte(`{"testName":"Login"}`))
		assert.True(t, IsValidation(err))
	})

	t.Run("marshal round trip", func(t *testing.T) {
		p := &Plan{TestName: "T", Commands: []Command{&WaitForNavigation{}}}
		b, err := p.MarshalJSON()
		require.NoError(t, err)

		var back Plan
		require.NoError(t, back.UnmarshalJSON(b))
		assert.Equal(t, "T", back.TestName)
		assert.Equal(t, []Command{&WaitForNavigation{}}, back.Commands)
	})
}

func TestActionError(t *testing.T) {
	cause := errors.New("boom")
	err := &ActionError{Step: 3, Action: ActionClick, Err: cause}
	assert.Equal(t, "step 3 (click): boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
}
