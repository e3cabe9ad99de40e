package credentials

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord_ReadsTokens(t *testing.T) {
	rec, err := parseRecord([]byte(`{"claudeAiOauth":{"accessToken":"sk-ant-oat01-abc","refreshToken":"sk-ant-ort01-def","expiresAt":1767225600000,"scopes":["user:inference"]}}`))
	require.NoError(t, err)

	cred := rec.credential()
	assert.Equal(t, "sk-ant-oat01-abc", cred.AccessToken)
	assert.Equal(t, "sk-ant-ort01-def", cred.RefreshToken)
	assert.Equal(t, "1767225600000", cred.ExpiresAt)
}

func TestParseRecord_StringExpiry(t *testing.T) {
	rec, err := parseRecord([]byte(`{"claudeAiOauth":{"accessToken":"a","expiresAt":"2026-01-01T00:00:00Z"}}`))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:00:00Z", rec.credential().ExpiresAt)
}

func TestParseRecord_MissingOAuth(t *testing.T) {
	for _, in := range []string{`{}`, `{"claudeAiOauth":null}`, `{"other":1}`} {
		rec, err := parseRecord([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, rec.credential().AccessToken, in)
	}
}

func TestParseRecord_Invalid(t *testing.T) {
	for _, in := range []string{``, `   `, `not json`, `{"claudeAiOauth":"nope"}`} {
		_, err := parseRecord([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestSetTokens_PreservesSiblings(t *testing.T) {
	rec, err := parseRecord([]byte(`{"mcpOAuth":{"x":1},"claudeAiOauth":{"accessToken":"old","refreshToken":"r-old","expiresAt":1,"scopes":["a","b"],"subscriptionType":"max"}}`))
	require.NoError(t, err)

	rec.setTokens("new", "", "1767225600000")
	out, err := rec.marshal()
	require.NoError(t, err)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	oauth := got["claudeAiOauth"]
	assert.Equal(t, "new", oauth["accessToken"])
	assert.Equal(t, "r-old", oauth["refreshToken"])
	assert.Equal(t, float64(1767225600000), oauth["expiresAt"])
	assert.Equal(t, "max", oauth["subscriptionType"])
	assert.Equal(t, []any{"a", "b"}, oauth["scopes"])
	assert.Equal(t, float64(1), got["mcpOAuth"]["x"])
}

func TestSetTokens_NonNumericExpiryStaysString(t *testing.T) {
	rec := newRecord()
	rec.setTokens("a", "r", "2026-01-01T00:00:00Z")
	assert.JSONEq(t, `"2026-01-01T00:00:00Z"`, string(rec.oauth["expiresAt"]))
}
