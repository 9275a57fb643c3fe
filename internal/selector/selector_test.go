package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExact(t *testing.T) {
	sel, err := Exact("#email")
	require.NoError(t, err)
	assert.Equal(t, "#email", sel)

	sel, err = Exact("button[type=submit]")
	require.NoError(t, err)
	assert.Equal(t, "button[type=submit]", sel)

	_, err = Exact("   ")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPartial(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"plain", "foo", `[id*="foo"]`},
		{"dashed", "fleece-jacket", `[id*="fleece-jacket"]`},
		{"quote", `a"b`, `[id*="a\"b"]`},
		{"backslash", `a\b`, `[id*="a\\b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Partial(tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Partial("")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestAttributeEquals(t *testing.T) {
	assert.Equal(t, `[value="us"]`, AttributeEquals("value", "us"))
	assert.Equal(t, `[value="say \"hi\""]`, AttributeEquals("value", `say "hi"`))
}
