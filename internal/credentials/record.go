package credentials

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const oauthKey = "claudeAiOauth"

// record is the secret-store JSON kept as raw members at both levels so a
// write only touches the three token fields.
type record struct {
	top   map[string]json.RawMessage
	oauth map[string]json.RawMessage
}

func newRecord() record {
	return record{
		top:   make(map[string]json.RawMessage),
		oauth: make(map[string]json.RawMessage),
	}
}

func parseRecord(data []byte) (record, error) {
	r := newRecord()
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return r, fmt.Errorf("empty credentials record")
	}
	if err := json.Unmarshal(data, &r.top); err != nil {
		return newRecord(), fmt.Errorf("parsing credentials record: %w", err)
	}
	if r.top == nil {
		r.top = make(map[string]json.RawMessage)
	}
	if raw, ok := r.top[oauthKey]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.oauth); err != nil {
			return newRecord(), fmt.Errorf("parsing %s: %w", oauthKey, err)
		}
	}
	if r.oauth == nil {
		r.oauth = make(map[string]json.RawMessage)
	}
	return r, nil
}

func (r record) credential() Credential {
	return Credential{
		AccessToken:  r.stringField("accessToken"),
		RefreshToken: r.stringField("refreshToken"),
		ExpiresAt:    r.stringField("expiresAt"),
	}
}

// stringField reads a string member, rendering numbers in their JSON form.
func (r record) stringField(key string) string {
	raw, ok := r.oauth[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (r *record) setTokens(access, refresh, expiresAt string) {
	r.oauth["accessToken"] = quote(access)
	if refresh != "" {
		r.oauth["refreshToken"] = quote(refresh)
	}
	if expiresAt = strings.TrimSpace(expiresAt); expiresAt != "" {
		if _, err := strconv.ParseInt(expiresAt, 10, 64); err == nil {
			r.oauth["expiresAt"] = json.RawMessage(expiresAt)
		} else {
			r.oauth["expiresAt"] = quote(expiresAt)
		}
	}
}

func (r record) marshal() ([]byte, error) {
	inner, err := json.Marshal(r.oauth)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", oauthKey, err)
	}
	r.top[oauthKey] = inner
	data, err := json.Marshal(r.top)
	if err != nil {
		return nil, fmt.Errorf("marshaling credentials record: %w", err)
	}
	return data, nil
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
