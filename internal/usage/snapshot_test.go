package usage

import (
	"math"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

func TestUsageRatio(t *testing.T) {
	assert.Equal(t, 0.0, UsageRatio(-5))
	assert.Equal(t, 0.0, UsageRatio(0))
	assert.InDelta(t, 0.45, UsageRatio(45), 1e-9)
	assert.Equal(t, 1.0, UsageRatio(100))
	assert.Equal(t, 1.0, UsageRatio(250))
	assert.Equal(t, 0.0, UsageRatio(math.NaN()))
}

func TestSnapshot_UsagePercent(t *testing.T) {
	assert.Equal(t, 45, Snapshot{SessionUtilization: 45.9}.UsagePercent())
	assert.Equal(t, 100, Snapshot{SessionUtilization: 180}.UsagePercent())
	assert.Equal(t, 0, Snapshot{SessionUtilization: -1}.UsagePercent())
	assert.Equal(t, 29, Snapshot{SessionUtilization: 29}.UsagePercent())
	assert.Equal(t, 0, WholePercent(math.NaN()))
}

func TestSnapshot_ResetText(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "No active session", Snapshot{}.ResetText(now))

	s := Snapshot{SessionResetAt: lo.ToPtr(now.Add(2*time.Hour + 15*time.Minute + 30*time.Second))}
	assert.Equal(t, "Resets in 2h 15m", s.ResetText(now))

	s.SessionResetAt = lo.ToPtr(now.Add(-time.Minute))
	assert.Equal(t, "Session reset", s.ResetText(now))
	remaining, ok := s.TimeRemaining(now)
	assert.True(t, ok)
	assert.Zero(t, remaining)
}

func TestSnapshot_Sections(t *testing.T) {
	live := Snapshot{WeeklyUtilization: 12, ExtraUsage: &ExtraUsage{Enabled: true, UsedCredits: 1234, MonthlyLimitCredits: 5000}}
	assert.True(t, live.ShowWeekly())
	assert.True(t, live.ShowExtraUsage())
	assert.Equal(t, "$12.34 / $50", live.ExtraUsageText())

	live.WeeklyUtilization = 0
	assert.False(t, live.ShowWeekly(), "zero weekly usage hides the section")

	live.ExtraUsage.Enabled = false
	assert.False(t, live.ShowExtraUsage())

	mock := SeedMock(credentials.StatusNotFound)
	mock.WeeklyUtilization = 50
	assert.False(t, mock.ShowWeekly())
	assert.Empty(t, mock.ExtraUsageText())
}

func TestSnapshot_ConnectionHint(t *testing.T) {
	assert.Empty(t, Snapshot{}.ConnectionHint())
	assert.Equal(t, "Run `claude login` to connect", SeedMock(credentials.StatusNotFound).ConnectionHint())
	assert.Contains(t, SeedMock(credentials.StatusAccessDenied).ConnectionHint(), credentials.ServiceName)
}

func TestApplyUsage(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := Snapshot{
		Err:        &usageapi.Error{Kind: usageapi.KindForbidden, StatusCode: 403},
		ExtraUsage: &ExtraUsage{Enabled: true, UsedCredits: 100, MonthlyLimitCredits: 1000},
	}

	applyUsage(&s, &usageapi.UsagePayload{
		FiveHour: &usageapi.Bucket{Utilization: 62, ResetsAt: lo.ToPtr("2026-01-01T12:30:00.123456+00:00")},
		SevenDay: &usageapi.Bucket{Utilization: 18},
	}, now)

	assert.Nil(t, s.Err)
	assert.Equal(t, uint64(1), s.Polls)
	require.NotNil(t, s.LastUpdated)
	assert.Equal(t, now, *s.LastUpdated)
	assert.Equal(t, 62.0, s.SessionUtilization)
	assert.True(t, s.SessionActive)
	require.NotNil(t, s.SessionResetAt)
	assert.Equal(t, 18.0, s.WeeklyUtilization)
	assert.Equal(t, 100.0, s.ExtraUsage.UsedCredits, "absent extra usage keeps the last value")

	applyUsage(&s, &usageapi.UsagePayload{}, now)
	assert.Zero(t, s.SessionUtilization)
	assert.False(t, s.SessionActive)
	assert.Nil(t, s.SessionResetAt)
	assert.Zero(t, s.WeeklyUtilization)
}

func TestApplyUsage_ZeroUtilizationIsInactive(t *testing.T) {
	var s Snapshot
	applyUsage(&s, &usageapi.UsagePayload{
		FiveHour: &usageapi.Bucket{Utilization: 0, ResetsAt: lo.ToPtr("2026-01-01T12:30:00Z")},
	}, time.Now())
	assert.False(t, s.SessionActive)
	assert.NotNil(t, s.SessionResetAt)
	assert.Equal(t, CatIdle, s.CatState())
}

func TestApplyUsage_ExtraUsage(t *testing.T) {
	var s Snapshot
	applyUsage(&s, &usageapi.UsagePayload{
		ExtraUsage: &usageapi.ExtraUsage{
			IsEnabled:    true,
			MonthlyLimit: lo.ToPtr(2000.0),
			UsedCredits:  lo.ToPtr(550.0),
		},
	}, time.Now())
	require.NotNil(t, s.ExtraUsage)
	assert.True(t, s.ShowExtraUsage())
	assert.Equal(t, "$5.50 / $20", s.ExtraUsageText())
	assert.Zero(t, s.ExtraUsage.Utilization)
}

func TestApplyUsage_FractionalMonthlyLimit(t *testing.T) {
	var s Snapshot
	applyUsage(&s, &usageapi.UsagePayload{
		FiveHour:   bucket(45, "2030-01-01T00:00:00Z"),
		ExtraUsage: &usageapi.ExtraUsage{IsEnabled: true, MonthlyLimit: lo.ToPtr(4999.6), UsedCredits: lo.ToPtr(1250.0)},
	}, time.Now())
	assert.Equal(t, 45.0, s.SessionUtilization)
	require.NotNil(t, s.ExtraUsage)
	assert.Equal(t, 5000, s.ExtraUsage.MonthlyLimitCredits)
	assert.Equal(t, "$12.50 / $50", s.ExtraUsageText())
}

func TestApplyPollError_KeepsData(t *testing.T) {
	now := time.Now()
	s := Snapshot{SessionUtilization: 30, LastUpdated: &now, Polls: 3}
	applyPollError(&s, &usageapi.Error{Kind: usageapi.KindForbidden, StatusCode: 403})
	assert.Equal(t, uint64(4), s.Polls)
	assert.Equal(t, 30.0, s.SessionUtilization)
	assert.Equal(t, &now, s.LastUpdated)
	assert.Equal(t, "Access denied. Check your Claude subscription.", s.ErrorMessage())
}

func TestSnapshot_ExtraUsagePercent(t *testing.T) {
	assert.Zero(t, Snapshot{}.ExtraUsagePercent())
	assert.Equal(t, 40.0, Snapshot{ExtraUsage: &ExtraUsage{Utilization: 40, UsedCredits: 1, MonthlyLimitCredits: 1000}}.ExtraUsagePercent())
	assert.Equal(t, 25.0, Snapshot{ExtraUsage: &ExtraUsage{UsedCredits: 250, MonthlyLimitCredits: 1000}}.ExtraUsagePercent())
	assert.Zero(t, Snapshot{ExtraUsage: &ExtraUsage{UsedCredits: 250}}.ExtraUsagePercent())
}
