package usage

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

type Mode int

const (
	ModeUninitialized Mode = iota
	ModeMock
	ModeRealPolling
)

func (m Mode) String() string {
	switch m {
	case ModeMock:
		return "mock"
	case ModeRealPolling:
		return "real"
	default:
		return "uninitialized"
	}
}

// ExtraUsage is metered usage beyond the plan. Credits are cents.
type ExtraUsage struct {
	Enabled             bool
	UsedCredits         float64
	MonthlyLimitCredits int
	Utilization         float64
}

// Snapshot is the engine's published state. The engine replaces it as a
// whole; pointer members are never mutated after publication.
type Snapshot struct {
	SessionUtilization float64
	SessionActive      bool
	SessionResetAt     *time.Time
	WeeklyUtilization  float64 // 0 hides the weekly section
	ExtraUsage         *ExtraUsage

	AccountEmail string
	Tier         usageapi.Tier

	LastUpdated *time.Time
	Err         *usageapi.Error
	// Polls counts usage polls that ended in data or an error.
	Polls uint64

	UsingMockData    bool
	CredentialStatus credentials.Status
}

func (s Snapshot) CatState() CatState {
	return CatStateOf(s.SessionActive, s.SessionUtilization)
}

// UsagePercent is the session utilization as a whole percentage in [0,100].
func (s Snapshot) UsagePercent() int {
	return WholePercent(s.SessionUtilization)
}

func (s Snapshot) UsageRatio() float64 {
	return UsageRatio(s.SessionUtilization)
}

// WholePercent floors a percentage clamped to [0,100].
func WholePercent(percent float64) int {
	if math.IsNaN(percent) {
		return 0
	}
	return int(math.Floor(lo.Clamp(percent, 0, 100)))
}

// UsageRatio converts a percentage into a bar fill in [0,1].
func UsageRatio(percent float64) float64 {
	if math.IsNaN(percent) {
		return 0
	}
	return lo.Clamp(percent/100, 0, 1)
}

func (s Snapshot) ShowWeekly() bool {
	return !s.UsingMockData && s.WeeklyUtilization > 0
}

func (s Snapshot) ShowExtraUsage() bool {
	return !s.UsingMockData && s.ExtraUsage != nil && s.ExtraUsage.Enabled
}

// ExtraUsagePercent is the share of the monthly extra-usage limit spent.
// The server's utilization wins; credits are the fallback.
func (s Snapshot) ExtraUsagePercent() float64 {
	x := s.ExtraUsage
	switch {
	case x == nil:
		return 0
	case x.Utilization > 0:
		return x.Utilization
	case x.MonthlyLimitCredits > 0:
		return x.UsedCredits / float64(x.MonthlyLimitCredits) * 100
	}
	return 0
}

// ExtraUsageText renders extra usage as dollars, e.g. "$12.34 / $50".
func (s Snapshot) ExtraUsageText() string {
	if s.ExtraUsage == nil {
		return ""
	}
	return fmt.Sprintf("$%.2f / $%d", s.ExtraUsage.UsedCredits/100, s.ExtraUsage.MonthlyLimitCredits/100)
}

// TimeRemaining is the time left until the session resets, clamped at 0.
func (s Snapshot) TimeRemaining(now time.Time) (time.Duration, bool) {
	if s.SessionResetAt == nil {
		return 0, false
	}
	return max(s.SessionResetAt.Sub(now), 0), true
}

func (s Snapshot) ResetText(now time.Time) string {
	remaining, ok := s.TimeRemaining(now)
	if !ok {
		return "No active session"
	}
	if remaining <= 0 {
		return "Session reset"
	}
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	return fmt.Sprintf("Resets in %dh %dm", hours, minutes)
}

func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// ConnectionHint tells a mock-mode user what to do to connect.
func (s Snapshot) ConnectionHint() string {
	if !s.UsingMockData {
		return ""
	}
	if s.CredentialStatus == credentials.StatusAccessDenied {
		return "Keychain access denied. Allow access to \"" + credentials.ServiceName + "\" and restart."
	}
	return "Run `claude login` to connect"
}

// applyUsage overwrites the fields a successful poll carries.
func applyUsage(s *Snapshot, p *usageapi.UsagePayload, now time.Time) {
	s.SessionUtilization = 0
	s.SessionResetAt = nil
	if p.FiveHour != nil {
		s.SessionUtilization = p.FiveHour.Utilization
		if p.FiveHour.ResetsAt != nil {
			if t, ok := usageapi.ParseResetTime(*p.FiveHour.ResetsAt); ok {
				s.SessionResetAt = &t
			}
		}
	}
	s.SessionActive = s.SessionUtilization > 0 && s.SessionResetAt != nil

	s.WeeklyUtilization = 0
	if p.SevenDay != nil {
		s.WeeklyUtilization = p.SevenDay.Utilization
	}

	if p.ExtraUsage != nil {
		s.ExtraUsage = &ExtraUsage{
			Enabled:             p.ExtraUsage.IsEnabled,
			UsedCredits:         lo.FromPtr(p.ExtraUsage.UsedCredits),
			MonthlyLimitCredits: int(math.Round(lo.FromPtr(p.ExtraUsage.MonthlyLimit))),
			Utilization:         lo.FromPtr(p.ExtraUsage.Utilization),
		}
	}

	s.Err = nil
	s.LastUpdated = &now
	s.Polls++
}

// applyPollError records a failed poll, keeping the last good data.
func applyPollError(s *Snapshot, err *usageapi.Error) {
	s.Err = err
	s.Polls++
}
