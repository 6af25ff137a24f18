package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

func decode(t *testing.T, s string) model.RawRecord {
	t.Helper()
	var raw model.RawRecord
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestPath(t *testing.T) {
	raw := decode(t, `{"a": {"b": {"c": "deep"}}, "s": "flat"}`)

	assert.Equal(t, "deep", Path("a", "b", "c")(raw))
	assert.Equal(t, "flat", Path("s")(raw))
	assert.Nil(t, Path("a", "x", "c")(raw))
	assert.Nil(t, Path("s", "nested")(raw))
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	raw := decode(t, `{"empty": "  ", "list": [], "obj": {}, "name": "Stand 42", "alt": "other"}`)

	c := First("missing", "empty", "list", "obj", "name", "alt")
	assert.Equal(t, "Stand 42", c.String(raw))
	assert.Equal(t, "Stand 42", c.Value(raw))
}

func TestChain_LiteralFallback(t *testing.T) {
	c := append(First("country"), Literal("US"))

	assert.Equal(t, "US", c.String(decode(t, `{}`)))
	assert.Equal(t, "CA", c.String(decode(t, `{"country": "CA"}`)))
}

func TestChain_Float(t *testing.T) {
	raw := decode(t, `{"bad": "n/a", "str": " 45.5 ", "num": 12.25}`)

	f, ok := First("bad", "str").Float(raw)
	require.True(t, ok)
	assert.Equal(t, 45.5, f)

	f, ok = First("num").Float(raw)
	require.True(t, ok)
	assert.Equal(t, 12.25, f)

	_, ok = First("bad", "missing").Float(raw)
	assert.False(t, ok)
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "", safeString(nil))
	assert.Equal(t, "true", safeString(true))
	assert.Equal(t, "12345", safeString(12345.0))
	assert.Equal(t, "1.5", safeString(json.Number("1.5")))
	assert.Equal(t, `[{"day":"mon"}]`, safeString([]any{map[string]any{"day": "mon"}}))
	assert.Equal(t, "", safeString([]any{}))
}
