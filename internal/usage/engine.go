// Package usage is the usage-state engine: it resolves a credential, polls
// the usage endpoint, keeps the latest Snapshot and recovers once from an
// expired token before giving up.
package usage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

const DefaultPollInterval = 5 * time.Minute

// UsageClient is the part of *usageapi.Client the engine needs.
type UsageClient interface {
	FetchUsage(ctx context.Context, token string) (*usageapi.UsagePayload, error)
	FetchProfile(ctx context.Context, token string) (*usageapi.ProfilePayload, error)
}

type Options struct {
	Store  credentials.Store
	Client UsageClient

	PollInterval      time.Duration // default 5m
	MockSessionLength time.Duration // fabricated mock session length, default 3h

	Logger  *zap.Logger
	Metrics *Metrics
	Now     func() time.Time
}

type resultKind int

const (
	resultResolve resultKind = iota
	resultRecovery
	resultUsage
	resultProfile
)

// result is what a worker goroutine hands back to the loop.
type result struct {
	kind    resultKind
	token   string // token the work ran with, or the token it resolved
	failed  string // recovery only: the token that got the 401
	err     error
	usage   *usageapi.UsagePayload
	profile *usageapi.ProfilePayload
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Engine owns the Snapshot. All state changes happen on a single loop
// goroutine; network and secret-store calls run in worker goroutines and
// post their results back to it, so completions are applied in the order
// they finish.
type Engine struct {
	store             credentials.Store
	client            UsageClient
	interval          time.Duration
	mockSessionLength time.Duration
	logger            *zap.Logger
	metrics           *Metrics
	now               func() time.Time

	cmds    chan func(context.Context)
	results chan result

	mu   sync.RWMutex
	snap Snapshot
	mode Mode

	subsMu  sync.Mutex
	subs    []subscriber
	nextSub int

	// Loop-owned.
	token      string
	recovering bool
	poll       *time.Ticker
	mockReset  *time.Timer

	lifeMu  sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
	workers sync.WaitGroup
}

func New(opts Options) *Engine {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	mockLen := opts.MockSessionLength
	if mockLen <= 0 {
		mockLen = defaultMockSessionLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:             opts.Store,
		client:            opts.Client,
		interval:          interval,
		mockSessionLength: mockLen,
		logger:            logger.Named("engine"),
		metrics:           opts.Metrics,
		now:               now,
		cmds:              make(chan func(context.Context)),
		results:           make(chan result),
		snap:              SeedMock(credentials.StatusUnknown),
		done:              make(chan struct{}),
	}
}

// Start runs the engine loop and resolves the credential once. It does not
// block. Calling Start again, or after Close, does nothing.
func (e *Engine) Start(ctx context.Context) {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	go e.run(ctx)
}

// Close stops both timers and the loop and waits for in-flight fetches,
// which end with the cancelled context. A pending secret-store read is not
// waited for. Results that arrive afterwards are dropped. The last
// Snapshot stays readable.
func (e *Engine) Close() {
	e.lifeMu.Lock()
	if e.closed {
		e.lifeMu.Unlock()
		return
	}
	e.closed = true
	cancel := e.cancel
	e.lifeMu.Unlock()

	if cancel == nil {
		close(e.done)
		return
	}
	cancel()
	<-e.done
	e.workers.Wait()
}

// Done is closed once the engine has shut down.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// Subscribe registers fn to be called with every new Snapshot, once per
// update, on the engine goroutine. fn must not call back into the engine
// synchronously.
func (e *Engine) Subscribe(fn func(Snapshot)) (cancel func()) {
	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.subsMu.Unlock()

	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscriber) bool { return s.id == id })
	}
}

// Refresh starts one out-of-band poll without touching the polling
// schedule. It is a no-op outside real polling.
func (e *Engine) Refresh() {
	e.do(func(ctx context.Context) {
		if e.mode != ModeRealPolling {
			return
		}
		e.logger.Debug("manual refresh")
		e.startUsageFetch(ctx)
	})
}

// CredentialsChanged is called when the credential store was rewritten
// externally. While polling it triggers an early poll, so a rotated token
// is picked up through the normal 401 recovery. Mock mode ignores it.
func (e *Engine) CredentialsChanged() {
	e.do(func(ctx context.Context) {
		if e.mode != ModeRealPolling {
			return
		}
		e.logger.Debug("credential store changed, polling early")
		e.startUsageFetch(ctx)
	})
}

// CycleMockUsage advances the mock ladder by one rung. It returns once the
// new Snapshot is published and does nothing outside mock mode.
func (e *Engine) CycleMockUsage() {
	e.do(func(context.Context) {
		if e.mode != ModeMock {
			return
		}
		next := NextMockRung(e.snap, e.now(), e.mockSessionLength)
		e.armMockReset(next.SessionResetAt)
		e.publish(next)
	})
}

// Reset drops back to an all-zero mock snapshot and stops polling. This is
// the only way out of real polling.
func (e *Engine) Reset() {
	e.do(func(context.Context) {
		e.logger.Info("reset to mock data", zap.Stringer("from", e.mode))
		e.enterMock(e.snap.CredentialStatus)
	})
}

// do runs fn on the loop and waits for it. It reports false when the
// engine is not running.
func (e *Engine) do(fn func(context.Context)) bool {
	e.lifeMu.Lock()
	running := e.started && !e.closed
	e.lifeMu.Unlock()
	if !running {
		return false
	}

	ran := make(chan struct{})
	select {
	case e.cmds <- func(ctx context.Context) { fn(ctx); close(ran) }:
	case <-e.done:
		return false
	}
	select {
	case <-ran:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	defer e.stopTimers()

	e.spawnRead(ctx, func() result {
		token, err := e.loadToken()
		return result{kind: resultResolve, token: token, err: err}
	})

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("context cancelled, stopping engine loop")
			return
		case fn := <-e.cmds:
			fn(ctx)
		case <-tickerC(e.poll):
			e.startUsageFetch(ctx)
		case <-timerC(e.mockReset):
			e.mockReset = nil
			if e.mode == ModeMock {
				e.logger.Debug("mock session reset time reached")
				e.publish(expireMockSession(e.snap))
			}
		case res := <-e.results:
			e.handle(ctx, res)
		}
	}
}

func (e *Engine) handle(ctx context.Context, res result) {
	switch res.kind {
	case resultResolve:
		e.handleResolve(ctx, res)
	case resultRecovery:
		e.handleRecovery(ctx, res)
	case resultUsage:
		e.handleUsage(ctx, res)
	case resultProfile:
		e.handleProfile(res)
	}
}

func (e *Engine) handleResolve(ctx context.Context, res result) {
	if e.mode != ModeUninitialized {
		return
	}
	if res.err != nil {
		status := credentials.Classify(res.err)
		e.logger.Info("no usable credential, showing mock data",
			zap.Stringer("status", status), zap.Error(res.err))
		e.enterMock(status)
		return
	}
	e.logger.Info("credential resolved, starting to poll", zap.Duration("interval", e.interval))
	e.adopt(ctx, res.token)
}

func (e *Engine) handleUsage(ctx context.Context, res result) {
	if e.mode != ModeRealPolling {
		return
	}
	if res.err != nil && (ctx.Err() != nil || usageapi.IsCanceled(res.err)) {
		return
	}
	e.metrics.observePoll(res.err)

	if res.err == nil {
		now := e.now()
		e.update(func(s *Snapshot) { applyUsage(s, res.usage, now) })
		return
	}

	if usageapi.KindOf(res.err) == usageapi.KindUnauthorized {
		if res.token != e.token || e.recovering {
			e.logger.Debug("dropping unauthorized result for superseded attempt")
			return
		}
		e.startRecovery(ctx)
		return
	}

	e.logger.Warn("usage poll failed", zap.Error(res.err))
	apiErr := asAPIError(res.err)
	e.update(func(s *Snapshot) { applyPollError(s, apiErr) })
}

// startRecovery re-reads the credential store once after a 401; the
// external CLI may have rotated the token in the meantime.
func (e *Engine) startRecovery(ctx context.Context) {
	e.recovering = true
	failed := e.token
	e.logger.Info("usage poll unauthorized, re-reading credential store")
	e.spawnRead(ctx, func() result {
		token, err := e.loadToken()
		return result{kind: resultRecovery, token: token, failed: failed, err: err}
	})
}

func (e *Engine) handleRecovery(ctx context.Context, res result) {
	e.recovering = false
	if e.mode != ModeRealPolling || res.failed != e.token {
		return
	}
	if res.err == nil && res.token != e.token {
		e.metrics.observeRecovery("adopted")
		e.logger.Info("credential store has a new token, adopting it")
		e.adopt(ctx, res.token)
		return
	}

	e.metrics.observeRecovery("unchanged")
	e.logger.Warn("no new token after unauthorized poll", zap.Error(res.err))
	e.update(func(s *Snapshot) {
		applyPollError(s, &usageapi.Error{Kind: usageapi.KindUnauthorized, StatusCode: 401})
	})
}

func (e *Engine) handleProfile(res result) {
	if e.mode != ModeRealPolling || res.token != e.token {
		return
	}
	if res.err != nil {
		e.logger.Debug("profile fetch failed, ignoring", zap.Error(res.err))
		return
	}
	e.update(func(s *Snapshot) {
		s.AccountEmail = res.profile.Account.Email
		s.Tier = res.profile.Tier()
	})
}

// adopt switches polling to token: timers are replaced, the profile is
// fetched and one poll starts immediately.
func (e *Engine) adopt(ctx context.Context, token string) {
	fromMock := e.mode != ModeRealPolling

	e.stopTimers()
	e.token = token
	e.recovering = false
	e.poll = time.NewTicker(e.interval)
	e.setMode(ModeRealPolling)
	if fromMock {
		e.publish(Snapshot{CredentialStatus: credentials.StatusFound})
	}

	e.startProfileFetch(ctx)
	e.startUsageFetch(ctx)
}

func (e *Engine) enterMock(status credentials.Status) {
	e.stopTimers()
	e.token = ""
	e.recovering = false
	e.setMode(ModeMock)
	e.publish(SeedMock(status))
}

func (e *Engine) startUsageFetch(ctx context.Context) {
	token := e.token
	e.spawn(ctx, func(ctx context.Context) result {
		usage, err := e.client.FetchUsage(ctx, token)
		return result{kind: resultUsage, token: token, usage: usage, err: err}
	})
}

func (e *Engine) startProfileFetch(ctx context.Context) {
	token := e.token
	e.spawn(ctx, func(ctx context.Context) result {
		profile, err := e.client.FetchProfile(ctx, token)
		return result{kind: resultProfile, token: token, profile: profile, err: err}
	})
}

func (e *Engine) spawn(ctx context.Context, work func(context.Context) result) {
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		res := work(ctx)
		select {
		case e.results <- res:
		case <-ctx.Done():
		}
	}()
}

// spawnRead runs a secret-store read. Reads take no context and may sit
// behind an OS access prompt, so Close does not wait for them; a late
// result is dropped.
func (e *Engine) spawnRead(ctx context.Context, read func() result) {
	go func() {
		res := read()
		select {
		case e.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) loadToken() (string, error) {
	return loadToken(e.store)
}

// loadToken reads the access token, treating an empty one as missing.
func loadToken(store credentials.Store) (string, error) {
	if store == nil {
		return "", credentials.ErrNotFound
	}
	token, err := store.LoadAccessToken()
	if err == nil && token == "" {
		err = credentials.ErrNotFound
	}
	return token, err
}

func (e *Engine) armMockReset(resetAt *time.Time) {
	if e.mockReset != nil {
		e.mockReset.Stop()
		e.mockReset = nil
	}
	if resetAt == nil {
		return
	}
	e.mockReset = time.NewTimer(max(resetAt.Sub(e.now()), 0))
}

func (e *Engine) stopTimers() {
	if e.poll != nil {
		e.poll.Stop()
		e.poll = nil
	}
	if e.mockReset != nil {
		e.mockReset.Stop()
		e.mockReset = nil
	}
}

func (e *Engine) setMode(m Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

func (e *Engine) update(fn func(*Snapshot)) {
	s := e.snap
	fn(&s)
	e.publish(s)
}

// publish replaces the snapshot and notifies every current subscriber.
func (e *Engine) publish(s Snapshot) {
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()

	e.metrics.observeSnapshot(s)

	e.subsMu.Lock()
	subs := slices.Clone(e.subs)
	e.subsMu.Unlock()
	for _, sub := range subs {
		sub.fn(s)
	}
}

func asAPIError(err error) *usageapi.Error {
	var apiErr *usageapi.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &usageapi.Error{Kind: usageapi.KindNetwork, Err: err}
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
