package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/target/zenithflow/config"
	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/observability/metrics"
	"github.com/target/zenithflow/internal/observability/statsd"
	"github.com/target/zenithflow/internal/ports"
)

// SynchronizerOptions groups dependencies for Synchronizer.
type SynchronizerOptions struct {
	Gateway  ports.AuthGateway
	Profiles ProfileSource
	// ConfigErr is the outcome of validating gateway configuration. A non-nil
	// value puts the synchronizer in the terminal degraded(config) state.
	ConfigErr error
	// RecoveryTimeout bounds the wait for the initial restore. It is clamped to
	// [config.MinRecoveryTimeout, config.MaxRecoveryTimeout] unless AllowShortRecovery is set.
	RecoveryTimeout    time.Duration
	AllowShortRecovery bool
	Logger             *slog.Logger
	Metrics            statsd.Sink
}

// Synchronizer owns the {session, identity, profile, status} tuple and keeps it
// consistent with the gateway's session events. A single loop goroutine applies
// every input; consumers read snapshots.
type Synchronizer struct {
	gateway   ports.AuthGateway
	profiles  ProfileSource
	configErr error
	recovery  time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink

	mu          sync.Mutex
	started     bool
	closed      bool
	loopCancel  context.CancelFunc
	closeOnce   sync.Once
	unsubOnce   sync.Once
	unsubscribe func()

	loopCtx   context.Context
	startedAt time.Time
	inbox     chan syncMsg
	done      chan struct{}

	// Loop-owned state.
	session        *domainauth.Session
	identity       *domainauth.Identity
	profile        *domainauth.Profile
	status         domainauth.SyncStatus
	generation     uint64
	eventApplied   bool
	awaitingReady  string
	fetchCancel    context.CancelFunc
	recoveryTimer  *time.Timer
	readyPublished sync.Once

	snapMu    sync.RWMutex
	snap      domainauth.Snapshot
	watchers  map[int]chan domainauth.Snapshot
	nextWatch int
	watchDone bool
	readyCh   chan struct{}
}

type syncMsg any

type restoreResult struct {
	session *domainauth.Session
	err     error
}

type sessionEventMsg struct {
	event domainauth.SessionEvent
}

type profileResult struct {
	generation uint64
	identityID string
	profile    *domainauth.Profile
}

type recoveryExpired struct{}

type profileRefresh struct{}

const (
	triggerRestore = "restore"
	triggerEvent   = "event"
	triggerTimeout = "timeout"
)

type nopProfileSource struct{}

func (nopProfileSource) Resolve(context.Context, string) *domainauth.Profile { return nil }

// NewSynchronizer constructs a Synchronizer in the initializing state.
func NewSynchronizer(opts SynchronizerOptions) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = nopProfileSource{}
	}

	recovery := opts.RecoveryTimeout
	if !opts.AllowShortRecovery || recovery <= 0 {
		cfg := config.SyncConfig{RecoveryTimeout: recovery}
		cfg.Sanitize()
		recovery = cfg.RecoveryTimeout
	}

	s := &Synchronizer{
		gateway:   opts.Gateway,
		profiles:  profiles,
		configErr: opts.ConfigErr,
		recovery:  recovery,
		logger:    logger.With("component", "session_sync"),
		metrics:   opts.Metrics,
		inbox:     make(chan syncMsg, 32),
		done:      make(chan struct{}),
		status:    domainauth.Initializing(),
		watchers:  make(map[int]chan domainauth.Snapshot),
		readyCh:   make(chan struct{}),
	}
	s.snap = domainauth.Snapshot{Status: s.status}
	return s
}

// Start runs the initialization protocol. With a configuration error it moves
// straight to degraded(config) without touching the gateway. Otherwise it
// subscribes to session events, arms the recovery timer and restores the
// previous session once. Start does not block on the gateway.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	if s.started {
		s.mu.Unlock()
		return errAlreadyStarted
	}
	s.started = true

	if s.configErr != nil || s.gateway == nil {
		s.mu.Unlock()
		cause := s.configErr
		if cause == nil {
			cause = ErrConfig
		}
		s.logger.ErrorContext(ctx, "gateway configuration invalid; session sync disabled", "error", cause)
		s.status = domainauth.Degraded(domainauth.ReasonConfig, cause.Error())
		s.publish()
		close(s.done)
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.loopCtx = loopCtx
	s.loopCancel = cancel
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.unsubscribe = s.gateway.Subscribe(func(ev domainauth.SessionEvent) {
		s.send(sessionEventMsg{event: ev})
	})
	s.recoveryTimer = time.AfterFunc(s.recovery, func() {
		s.send(recoveryExpired{})
	})

	go func() {
		sess, err := s.gateway.RestoreSession(loopCtx)
		s.send(restoreResult{session: sess, err: err})
	}()
	go s.run()

	s.logger.DebugContext(ctx, "session sync started", "recovery_timeout", s.recovery)
	return nil
}

// Close unsubscribes from the gateway, stops the recovery timer, cancels any
// in-flight profile lookup and stops the loop. State is not mutated afterwards.
func (s *Synchronizer) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		started := s.started
		cancel := s.loopCancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if started {
			<-s.done
		}
		s.closeWatchers()
	})
	return nil
}

// Snapshot returns a copy of the current tuple.
func (s *Synchronizer) Snapshot() domainauth.Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap.Clone()
}

// Status returns the current synchronization status.
func (s *Synchronizer) Status() domainauth.SyncStatus {
	return s.Snapshot().Status
}

// Identity returns the current identity or nil when unauthenticated.
func (s *Synchronizer) Identity() *domainauth.Identity {
	return s.Snapshot().Identity
}

// Watch returns a channel receiving the latest snapshot after every change.
// Intermediate snapshots are coalesced for slow readers. The returned function
// stops the subscription; the channel is closed when the synchronizer closes.
func (s *Synchronizer) Watch() (<-chan domainauth.Snapshot, func()) {
	ch := make(chan domainauth.Snapshot, 1)

	s.snapMu.Lock()
	ch <- s.snap.Clone()
	if s.watchDone {
		s.snapMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = ch
	n := len(s.watchers)
	s.snapMu.Unlock()
	metrics.EmitWatchers(s.metrics, n)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.snapMu.Lock()
			w, ok := s.watchers[id]
			if ok {
				delete(s.watchers, id)
				close(w)
			}
			n := len(s.watchers)
			s.snapMu.Unlock()
			if ok {
				metrics.EmitWatchers(s.metrics, n)
			}
		})
	}
}

// WaitReady blocks until the synchronizer leaves the initializing state or ctx
// ends. A degraded(config) outcome is reported as an error wrapping ErrConfig.
func (s *Synchronizer) WaitReady(ctx context.Context) (domainauth.Snapshot, error) {
	select {
	case <-s.readyCh:
		snap := s.Snapshot()
		if snap.Status.IsDegraded() {
			return snap, fmt.Errorf("%w: %s", ErrConfig, snap.Status.Message)
		}
		return snap, nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// RefreshProfile refetches the profile of the current identity, keeping the
// current one visible until the lookup completes. It is a no-op before Start,
// after Close and when unauthenticated.
func (s *Synchronizer) RefreshProfile() {
	s.mu.Lock()
	running := s.started && !s.closed && s.loopCtx != nil
	s.mu.Unlock()
	if running {
		s.send(profileRefresh{})
	}
}

// send blocks while the inbox is full, pushing back on the gateway's Emit, and
// gives up once the loop stops.
func (s *Synchronizer) send(msg syncMsg) {
	select {
	case s.inbox <- msg:
	case <-s.loopCtx.Done():
	}
}

func (s *Synchronizer) run() {
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case <-s.loopCtx.Done():
			return
		case msg := <-s.inbox:
			s.handle(msg)
		}
	}
}

func (s *Synchronizer) teardown() {
	if s.recoveryTimer != nil {
		s.recoveryTimer.Stop()
	}
	s.cancelFetch()
	s.unsubOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

func (s *Synchronizer) handle(msg syncMsg) {
	switch m := msg.(type) {
	case restoreResult:
		s.onRestore(m)
	case sessionEventMsg:
		s.onEvent(m.event)
	case profileResult:
		s.onProfile(m)
	case recoveryExpired:
		s.onRecoveryExpired()
	case profileRefresh:
		s.onRefresh()
	}
}

func (s *Synchronizer) onRestore(m restoreResult) {
	ctx := s.loopCtx
	if s.eventApplied {
		s.logger.DebugContext(ctx, "discarding restore result superseded by session event")
		metrics.EmitStaleDiscard(s.metrics, metrics.SyncMetric{Source: triggerRestore})
		return
	}
	if m.err != nil {
		s.logger.WarnContext(ctx, "session restore failed; continuing without session", "error", m.err)
		s.markReady(triggerRestore)
		s.publish()
		return
	}

	s.applySession(m.session)
	if s.identity == nil {
		s.markReady(triggerRestore)
	} else if s.status.IsInitializing() {
		s.awaitingReady = triggerRestore
	}
	s.publish()
}

func (s *Synchronizer) onEvent(ev domainauth.SessionEvent) {
	s.eventApplied = true
	s.logger.DebugContext(s.loopCtx, "session event",
		"kind", ev.Kind,
		"identity_id", ev.Session.IdentityID(),
	)

	s.applySession(ev.Session)
	if s.identity == nil {
		s.markReady(triggerEvent)
	} else if s.status.IsInitializing() {
		s.awaitingReady = triggerEvent
	}
	s.publish()
}

func (s *Synchronizer) onProfile(m profileResult) {
	if m.generation != s.generation {
		s.logger.DebugContext(s.loopCtx, "discarding stale profile result",
			"identity_id", m.identityID,
			"generation", m.generation,
			"current_generation", s.generation,
		)
		metrics.EmitStaleDiscard(s.metrics, metrics.SyncMetric{Source: "profile"})
		return
	}

	s.cancelFetch()
	s.profile = m.profile
	if s.awaitingReady != "" {
		s.markReady(s.awaitingReady)
	}
	s.publish()
}

func (s *Synchronizer) onRecoveryExpired() {
	if !s.status.IsInitializing() {
		return
	}
	s.logger.WarnContext(s.loopCtx, "session recovery timed out; forcing ready", "timeout", s.recovery)
	s.markReady(triggerTimeout)
	s.publish()
}

func (s *Synchronizer) onRefresh() {
	if s.identity == nil {
		return
	}
	s.generation++
	s.cancelFetch()
	// An explicit refresh follows a write; joining an older lookup could return
	// the profile as it was before it.
	if inv, ok := s.profiles.(profileInvalidator); ok {
		inv.Invalidate(s.identity.ID)
	}
	s.startFetch(s.identity.ID)
	s.publish()
}

// applySession replaces session and identity unconditionally. A different
// identity clears the profile at once; the same identity keeps it while the
// refetch runs.
func (s *Synchronizer) applySession(sess *domainauth.Session) {
	prevID := ""
	if s.identity != nil {
		prevID = s.identity.ID
	}

	s.generation++
	s.cancelFetch()

	if sess.IdentityID() == "" {
		s.session = nil
		s.identity = nil
		s.profile = nil
		s.awaitingReady = ""
		return
	}

	cp := *sess
	s.session = &cp
	id := sess.Identity
	s.identity = &id
	if prevID != id.ID {
		s.profile = nil
	}
	s.startFetch(id.ID)
}

func (s *Synchronizer) startFetch(identityID string) {
	ctx, cancel := context.WithCancel(s.loopCtx)
	s.fetchCancel = cancel
	gen := s.generation

	go func() {
		profile := s.profiles.Resolve(ctx, identityID)
		s.send(profileResult{generation: gen, identityID: identityID, profile: profile})
	}()
}

func (s *Synchronizer) cancelFetch() {
	if s.fetchCancel != nil {
		s.fetchCancel()
		s.fetchCancel = nil
	}
}

func (s *Synchronizer) markReady(trigger string) {
	s.awaitingReady = ""
	if !s.status.IsInitializing() {
		return
	}
	if s.recoveryTimer != nil {
		s.recoveryTimer.Stop()
	}
	s.status = domainauth.Ready()
	s.logger.InfoContext(s.loopCtx, "session sync ready",
		"trigger", trigger,
		"authenticated", s.identity != nil,
	)
	metrics.EmitSyncReady(s.metrics, metrics.SyncMetric{
		Trigger: trigger,
		Latency: time.Since(s.startedAt),
	})
}

func (s *Synchronizer) publish() {
	snap := domainauth.Snapshot{
		Session:        s.session,
		Identity:       s.identity,
		Profile:        s.profile,
		Status:         s.status,
		Generation:     s.generation,
		ProfileLoading: s.fetchCancel != nil,
	}.Clone()

	s.snapMu.Lock()
	s.snap = snap
	for _, ch := range s.watchers {
		offer(ch, snap.Clone())
	}
	s.snapMu.Unlock()

	if !snap.Status.IsInitializing() {
		s.readyPublished.Do(func() { close(s.readyCh) })
	}
}

// offer replaces any unread snapshot in ch with snap.
func offer(ch chan domainauth.Snapshot, snap domainauth.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func (s *Synchronizer) closeWatchers() {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	s.watchDone = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}
