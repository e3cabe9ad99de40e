package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/tokencat/internal/usage"
)

const statusTimeout = 15 * time.Second

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll usage once and print the current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, statusTimeout)
			defer cancel()

			snap := usage.PollOnce(ctx, a.store, a.client, a.logger)
			if asJSON {
				return writeStatusJSON(cmd.OutOrStdout(), snap, time.Now())
			}
			writeStatusText(cmd.OutOrStdout(), snap, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the state as JSON")
	return cmd
}

type statusJSON struct {
	Mock               bool       `json:"mock"`
	CredentialStatus   string     `json:"credential_status"`
	CatState           string     `json:"cat_state"`
	SessionUtilization float64    `json:"session_utilization"`
	SessionActive      bool       `json:"session_active"`
	SessionResetAt     *time.Time `json:"session_reset_at,omitempty"`
	WeeklyUtilization  *float64   `json:"weekly_utilization,omitempty"`
	ExtraUsage         string     `json:"extra_usage,omitempty"`
	AccountEmail       string     `json:"account_email,omitempty"`
	Tier               string     `json:"tier,omitempty"`
	LastUpdated        *time.Time `json:"last_updated,omitempty"`
	Error              string     `json:"error,omitempty"`
	Hint               string     `json:"hint,omitempty"`
	ResetText          string     `json:"reset_text"`
}

func toStatusJSON(s usage.Snapshot, now time.Time) statusJSON {
	out := statusJSON{
		Mock:               s.UsingMockData,
		CredentialStatus:   s.CredentialStatus.String(),
		CatState:           s.CatState().String(),
		SessionUtilization: s.SessionUtilization,
		SessionActive:      s.SessionActive,
		SessionResetAt:     s.SessionResetAt,
		AccountEmail:       s.AccountEmail,
		Tier:               string(s.Tier),
		LastUpdated:        s.LastUpdated,
		Error:              s.ErrorMessage(),
		Hint:               s.ConnectionHint(),
		ResetText:          s.ResetText(now),
	}
	if s.ShowWeekly() {
		w := s.WeeklyUtilization
		out.WeeklyUtilization = &w
	}
	if s.ShowExtraUsage() {
		out.ExtraUsage = s.ExtraUsageText()
	}
	return out
}

func writeStatusJSON(w io.Writer, s usage.Snapshot, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toStatusJSON(s, now))
}

func writeStatusText(w io.Writer, s usage.Snapshot, now time.Time) {
	if s.UsingMockData {
		fmt.Fprintf(w, "Not connected: %s\n", s.ConnectionHint())
		return
	}
	if s.AccountEmail != "" {
		fmt.Fprintf(w, "Account:  %s", s.AccountEmail)
		if s.Tier != "" {
			fmt.Fprintf(w, " (%s)", s.Tier)
		}
		fmt.Fprintln(w)
	}
	if s.LastUpdated != nil {
		fmt.Fprintf(w, "Session:  %d%% (%s) - %s\n", s.UsagePercent(), s.CatState(), s.ResetText(now))
		if s.ShowWeekly() {
			fmt.Fprintf(w, "Weekly:   %d%%\n", usage.WholePercent(s.WeeklyUtilization))
		}
		if s.ShowExtraUsage() {
			fmt.Fprintf(w, "Extra:    %s\n", s.ExtraUsageText())
		}
	}
	if msg := s.ErrorMessage(); msg != "" {
		fmt.Fprintf(w, "Error:    %s\n", msg)
	}
}
