package usage

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

// PollOnce resolves a credential and fetches usage and profile a single
// time without starting an Engine. It follows the same rules: no
// credential yields the mock seed, and a 401 re-reads the store once and
// retries only when the token changed.
func PollOnce(ctx context.Context, store credentials.Store, client UsageClient, logger *zap.Logger) Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}

	token, err := loadToken(store)
	if err != nil {
		logger.Info("no usable credential", zap.Error(err))
		return SeedMock(credentials.Classify(err))
	}

	s := Snapshot{CredentialStatus: credentials.StatusFound}
	payload, profile, err := fetchBoth(ctx, client, token)

	if usageapi.KindOf(err) == usageapi.KindUnauthorized {
		fresh, rerr := loadToken(store)
		if rerr == nil && fresh != token {
			logger.Info("credential store has a new token, retrying once")
			payload, profile, err = fetchBoth(ctx, client, fresh)
		}
	}

	if profile != nil {
		s.AccountEmail = profile.Account.Email
		s.Tier = profile.Tier()
	}
	if err != nil {
		applyPollError(&s, asAPIError(err))
		return s
	}
	applyUsage(&s, payload, time.Now())
	return s
}

// fetchBoth runs the usage and profile requests concurrently. Profile
// failures are dropped.
func fetchBoth(ctx context.Context, client UsageClient, token string) (*usageapi.UsagePayload, *usageapi.ProfilePayload, error) {
	var (
		payload *usageapi.UsagePayload
		profile *usageapi.ProfilePayload
	)
	var g errgroup.Group
	g.Go(func() error {
		p, err := client.FetchProfile(ctx, token)
		if err == nil {
			profile = p
		}
		return nil
	})
	g.Go(func() error {
		p, err := client.FetchUsage(ctx, token)
		payload = p
		return err
	})
	err := g.Wait()
	return payload, profile, err
}
