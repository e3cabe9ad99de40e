// Package credentials resolves the Claude Code OAuth token pair from the
// platform secret store and writes refreshed tokens back without
// disturbing anything else the record holds.
package credentials

import (
	"errors"
	"os/user"
)

// ServiceName is the secret-store service Claude Code registers its
// credentials under.
const ServiceName = "Claude Code-credentials"

var (
	// ErrNotFound means there is no usable credential: no record, or a
	// record without an access token.
	ErrNotFound = errors.New("claude code credentials not found")
	// ErrAccessDenied means a record may exist but the store refused to
	// hand it over (Keychain prompt denied, locked collection, file mode).
	ErrAccessDenied = errors.New("access to claude code credentials denied")
)

// Store is the credential provider the usage engine reads from.
type Store interface {
	// LoadAccessToken returns ErrNotFound or ErrAccessDenied (possibly
	// wrapped) when no token can be produced.
	LoadAccessToken() (string, error)
	// LoadRefreshToken is best-effort.
	LoadRefreshToken() (string, bool)
	// SaveTokens merges the tokens into the existing record. Empty refresh
	// or expiresAt values leave the stored ones alone. Failures are logged
	// by the implementation and reported as false.
	SaveTokens(access, refresh, expiresAt string) bool
}

// Credential is the OAuth token pair held in the record.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    string
}

type Status int

const (
	StatusUnknown Status = iota
	StatusFound
	StatusNotFound
	StatusAccessDenied
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusAccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// Classify maps a LoadAccessToken error onto a Status. A nil error is
// StatusFound; anything unrecognised counts as not found.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusFound
	case errors.Is(err, ErrAccessDenied):
		return StatusAccessDenied
	default:
		return StatusNotFound
	}
}

// currentAccount is the OS account name the record is keyed by.
func currentAccount() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
