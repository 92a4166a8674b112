package mockbridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_FindFirstRegisteredWins(t *testing.T) {
	rules := NewRuleSet().
		Add("https://api.example.com/v1/*", Rule{Status: 201}).
		Add("https://api.example.com/*", Rule{Status: 500}).
		Add("https://api.example.com/v1/charges", Rule{Status: 404})

	entry, ok := rules.Find("https://api.example.com/v1/charges")
	require.True(t, ok)
	assert.Equal(t, "https://api.example.com/v1/*", entry.Pattern)
	assert.Equal(t, 201, entry.Rule.Status)

	entry, ok = rules.Find("https://api.example.com/v2")
	require.True(t, ok)
	assert.Equal(t, 500, entry.Rule.Status)

	_, ok = rules.Find("https://elsewhere.test/")
	assert.False(t, ok)
}

func TestRuleSet_ReplaceKeepsPosition(t *testing.T) {
	rules := NewRuleSet().Add("b", Rule{Status: 1}).Add("a", Rule{Status: 2}).Add("b", Rule{Status: 3})

	entries := rules.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Pattern)
	assert.Equal(t, 3, entries[0].Rule.Status)
	assert.Equal(t, "a", entries[1].Pattern)
}

func TestRuleSet_JSONKeepsOrder(t *testing.T) {
	rules := NewRuleSet().
		Add("z/*", Rule{Status: 200, Body: "z"}).
		Add("a/*", Rule{Status: 404}).
		Add("m/*", Rule{Headers: map[string]string{"X-Test": "1"}})

	data, err := json.Marshal(rules)
	require.NoError(t, err)
	assert.Equal(t, `{"z/*":{"status":200,"body":"z"},"a/*":{"status":404},"m/*":{"headers":{"X-Test":"1"}}}`, string(data))

	decoded := NewRuleSet()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, rules.Entries(), decoded.Entries())
}

func TestRuleSet_Empty(t *testing.T) {
	var nilSet *RuleSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Empty(t, nilSet.Entries())

	data, err := json.Marshal(NewRuleSet())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestParseRules(t *testing.T) {
	t.Run("yaml keeps document order", func(t *testing.T) {
		rules, err := ParseRules([]byte(`
"https://api.stripe.com/*":
  status: 200
  body:
    id: ch_1
    paid: true
"https://api.example.com/health":
  status: 503
  headers:
    Retry-After: "5"
`))
		require.NoError(t, err)

		entries := rules.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "https://api.stripe.com/*", entries[0].Pattern)
		assert.Equal(t, map[string]any{"id": "ch_1", "paid": true}, entries[0].Rule.Body)
		assert.Equal(t, 503, entries[1].Rule.Status)
		assert.Equal(t, "5", entries[1].Rule.Headers["Retry-After"])
	})

	t.Run("json input", func(t *testing.T) {
		rules, err := ParseRules([]byte(`{"b/*": {"status": 201}, "a/*": {"body": "ok"}}`))
		require.NoError(t, err)
		entries := rules.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "b/*", entries[0].Pattern)
		assert.Equal(t, "ok", entries[1].Rule.Body)
	})

	t.Run("empty input", func(t *testing.T) {
		rules, err := ParseRules([]byte("  \n"))
		require.NoError(t, err)
		assert.Equal(t, 0, rules.Len())
	})

	t.Run("not a mapping", func(t *testing.T) {
		_, err := ParseRules([]byte("- a\n- b\n"))
		assert.Error(t, err)
	})

	t.Run("bad rule", func(t *testing.T) {
		_, err := ParseRules([]byte("\"a/*\":\n  status: nope\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `rule "a/*"`)
	})
}

func TestRule_EncodeBody(t *testing.T) {
	body, isJSON, err := Rule{Body: "plain"}.EncodeBody()
	require.NoError(t, err)
	assert.False(t, isJSON)
	assert.Equal(t, "plain", string(body))

	body, isJSON, err = Rule{Body: map[string]int{"n": 1}}.EncodeBody()
	require.NoError(t, err)
	assert.True(t, isJSON)
	assert.JSONEq(t, `{"n":1}`, string(body))

	body, _, err = Rule{}.EncodeBody()
	require.NoError(t, err)
	assert.Nil(t, body)

	assert.Equal(t, 200, Rule{}.StatusCode())
	assert.Equal(t, 418, Rule{Status: 418}.StatusCode())
}
