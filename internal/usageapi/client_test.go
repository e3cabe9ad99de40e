package usageapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, ClientVersion: "2.1.5"})
}

func TestFetchUsage_SendsHeaders(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.FetchUsage(context.Background(), "tok-123")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/oauth/usage", got.URL.Path)
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "claude-code/2.1.5", got.Header.Get("User-Agent"))
	assert.Equal(t, "oauth-2025-04-20", got.Header.Get("anthropic-beta"))
}

func TestFetchUsage_ParsesBuckets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"five_hour": {"utilization": 45, "resets_at": "2025-01-01T12:00:00Z"},
			"seven_day": {"utilization": 12.5, "resets_at": null},
			"seven_day_opus": null,
			"extra_usage": {"is_enabled": true, "monthly_limit": 5000, "used_credits": 1234.5, "utilization": 24.69},
			"iguana_necktie": null
		}`))
	})

	usage, err := c.FetchUsage(context.Background(), "tok")
	require.NoError(t, err)

	require.NotNil(t, usage.FiveHour)
	assert.Equal(t, 45.0, usage.FiveHour.Utilization)
	require.NotNil(t, usage.FiveHour.ResetsAt)
	assert.Equal(t, "2025-01-01T12:00:00Z", *usage.FiveHour.ResetsAt)

	require.NotNil(t, usage.SevenDay)
	assert.Nil(t, usage.SevenDay.ResetsAt)

	require.NotNil(t, usage.ExtraUsage)
	assert.True(t, usage.ExtraUsage.IsEnabled)
	assert.Equal(t, 5000.0, *usage.ExtraUsage.MonthlyLimit)
	assert.Equal(t, 1234.5, *usage.ExtraUsage.UsedCredits)
}

func TestFetchUsage_FloatMonthlyLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"five_hour": {"utilization": 45, "resets_at": "2025-01-01T12:00:00Z"},
			"seven_day": {"utilization": 10, "resets_at": null},
			"extra_usage": {"is_enabled": true, "monthly_limit": 2500.75, "used_credits": 0, "utilization": null}
		}`))
	})

	usage, err := c.FetchUsage(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, usage.FiveHour)
	assert.Equal(t, 45.0, usage.FiveHour.Utilization)
	require.NotNil(t, usage.SevenDay)
	assert.Equal(t, 10.0, usage.SevenDay.Utilization)
	require.NotNil(t, usage.ExtraUsage)
	assert.Equal(t, 2500.75, *usage.ExtraUsage.MonthlyLimit)
	assert.Nil(t, usage.ExtraUsage.Utilization)
}

func TestFetchUsage_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
		msg    string
	}{
		{http.StatusUnauthorized, KindUnauthorized, "Authentication expired. Run `claude login` to reconnect."},
		{http.StatusForbidden, KindForbidden, "Access denied. Check your Claude subscription."},
		{http.StatusTooManyRequests, KindUnexpectedStatus, "API returned status 429."},
		{http.StatusInternalServerError, KindUnexpectedStatus, "API returned status 500."},
		{http.StatusNoContent, KindUnexpectedStatus, "API returned status 204."},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			})

			usage, err := c.FetchUsage(context.Background(), "tok")
			require.Error(t, err)
			assert.Nil(t, usage)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			if tt.kind == KindUnexpectedStatus {
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

func TestFetchUsage_DecodingError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"five_hour": "not an object"}`))
	})

	_, err := c.FetchUsage(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, KindDecoding, KindOf(err))
	assert.Equal(t, "Unexpected API response format.", err.Error())
	assert.NotNil(t, errors.Unwrap(err))
}

func TestFetchUsage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, HTTPClient: &http.Client{Timeout: time.Second}})
	_, err := c.FetchUsage(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Contains(t, err.Error(), "Network error: ")
}

func TestFetchUsage_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchUsage(ctx, "tok")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsCanceled(err))
}

func TestFetchProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"account":{"email":"cat@example.com","uuid":"u-1"},"organization":{"organization_type":"claude_max"}}`))
	})

	profile, err := c.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "cat@example.com", profile.Account.Email)
	assert.Equal(t, TierMax, profile.Tier())
}

func TestFetchProfile_NoOrganization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"account":{"email":"cat@example.com"},"organization":null}`))
	})

	profile, err := c.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, TierNone, profile.Tier())
}

func TestErrorIs(t *testing.T) {
	err := error(&Error{Kind: KindUnauthorized, StatusCode: 401})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}
