package usage

import (
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
)

// MockLadder is the sequence of session utilizations CycleMockUsage walks.
var MockLadder = []float64{0, 20, 60, 90, 100}

const defaultMockSessionLength = 3 * time.Hour

// SeedMock is the all-zero snapshot shown until a credential resolves.
func SeedMock(status credentials.Status) Snapshot {
	return Snapshot{
		UsingMockData:    true,
		CredentialStatus: status,
	}
}

// mockRung is the ladder position implied by a utilization: the first
// rung at or above it.
func mockRung(utilization float64) int {
	_, idx, ok := lo.FindIndexOf(MockLadder, func(level float64) bool {
		return level >= utilization
	})
	if !ok {
		return 0
	}
	return idx
}

// NextMockRung advances s one rung, wrapping after the last. Rung 0 ends
// the session; a non-zero rung without a reset time gets one at
// now+sessionLength.
func NextMockRung(s Snapshot, now time.Time, sessionLength time.Duration) Snapshot {
	next := MockLadder[(mockRung(s.SessionUtilization)+1)%len(MockLadder)]

	s.SessionUtilization = next
	if next == 0 {
		s.SessionActive = false
		s.SessionResetAt = nil
		return s
	}

	s.SessionActive = true
	if s.SessionResetAt == nil {
		if sessionLength <= 0 {
			sessionLength = defaultMockSessionLength
		}
		s.SessionResetAt = lo.ToPtr(now.Add(sessionLength))
	}
	return s
}

// expireMockSession is the state after a fabricated session reset time
// has passed.
func expireMockSession(s Snapshot) Snapshot {
	s.SessionUtilization = 0
	s.SessionActive = false
	s.SessionResetAt = nil
	return s
}
