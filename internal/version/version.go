// Package version holds build-time metadata injected via ldflags.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// These variables are set at build time using -ldflags:
//
//	-X 'github.com/janekbaraniewski/tokencat/internal/version.Version=...'
//	-X 'github.com/janekbaraniewski/tokencat/internal/version.CommitHash=...'
//	-X 'github.com/janekbaraniewski/tokencat/internal/version.BuildDate=...'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// DefaultClientVersion is the Claude Code release the usage endpoints are
// known to accept in the User-Agent header.
const DefaultClientVersion = "2.1.5"

// String returns a formatted version string.
func String() string {
	return Version + " (" + CommitHash + ") built " + BuildDate
}

// NormalizeClientVersion returns v without its "v" prefix when it is a
// stable semver release, and "" otherwise.
func NormalizeClientVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) || semver.Prerelease(v) != "" || semver.Build(v) != "" {
		return ""
	}
	return strings.TrimPrefix(semver.Canonical(v), "v")
}

// UserAgent builds the User-Agent sent to the usage API. Invalid versions
// fall back to DefaultClientVersion.
func UserAgent(clientVersion string) string {
	v := NormalizeClientVersion(clientVersion)
	if v == "" {
		v = DefaultClientVersion
	}
	return "claude-code/" + v
}
