package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/dashcache/cache"
	"github.com/IvanBrykalov/dashcache/internal/logging"
	"github.com/IvanBrykalov/dashcache/keys"
)

var (
	// ErrNoContext is the setup failure: organization or user missing at load time.
	ErrNoContext = errors.New("dashboard: organization or user context missing")
	// ErrClosed is returned by Load and Refresh after Close.
	ErrClosed = errors.New("dashboard: loader closed")
)

const tracerName = "github.com/IvanBrykalov/dashcache/dashboard"

// Options configures a Loader. Store, Fetcher and Context are required.
type Options struct {
	Store   *cache.Store
	Fetcher Fetcher
	Context ContextProvider

	Logger  *zerolog.Logger // nil: the logger carried by the Load context
	Metrics Metrics         // nil: NoopMetrics
	Tracer  trace.Tracer    // nil: global tracer
}

// Loader runs progressive load cycles and publishes state.
type Loader struct {
	store   *cache.Store
	fetcher Fetcher
	ctxp    ContextProvider
	log     zerolog.Logger
	hasLog  bool
	metrics Metrics
	tracer  trace.Tracer

	mu      sync.Mutex
	state   State
	epoch   uint64
	session string // last dispatched session id
	role    Role
	skip    []Domain
	current *cycle
	subs    map[int]chan State
	nextSub int
	closed  bool
}

// cycle is one dispatch of the loader.
type cycle struct {
	epoch uint64
	id    string
	done  chan struct{}
}

// New constructs a Loader. It panics if a required option is missing.
func New(opt Options) *Loader {
	if opt.Store == nil || opt.Fetcher == nil || opt.Context == nil {
		panic("dashboard: Store, Fetcher and Context are required")
	}
	l := &Loader{
		store:   opt.Store,
		fetcher: opt.Fetcher,
		ctxp:    opt.Context,
		metrics: opt.Metrics,
		tracer:  opt.Tracer,
		state:   State{Loading: true, Domains: map[Domain]Slice{}},
		subs:    make(map[int]chan State),
	}
	if opt.Logger != nil {
		l.log = opt.Logger.With().Str("component", "dashboard").Logger()
		l.hasLog = true
	}
	if l.metrics == nil {
		l.metrics = NoopMetrics{}
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(tracerName)
	}
	return l
}

// Load starts a cycle for role, excluding skip. The shell-ready state is
// published before Load returns; domains load in the background.
//
// A call whose (organization, user, role, skip) matches the last dispatched
// cycle is a no-op. Missing context publishes a SetupFailed state and
// returns ErrNoContext.
func (l *Loader) Load(ctx context.Context, role Role, skip ...Domain) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.role, l.skip = role, append([]Domain(nil), skip...)

	org, user := l.ctxp.Current()
	domains := RequiredDomains(role, skip...)

	base := l.logger(ctx)

	if org == nil || user == nil {
		l.epoch++
		l.session = ""
		// Nothing runs for this epoch; Wait must not block on the previous cycle.
		c := &cycle{epoch: l.epoch, done: make(chan struct{})}
		close(c.done)
		l.current = c
		l.applyLocked(CycleStarted{Epoch: l.epoch, Role: role, Organization: org, User: user})
		l.applyLocked(SetupFailed{Epoch: l.epoch, Domains: domains, Err: ErrNoContext})
		base.Error().Str("role", string(role)).Err(ErrNoContext).Msg("dashboard setup failed")
		return ErrNoContext
	}

	sid := sessionID(org, user, role, skip)
	if sid == l.session {
		return nil
	}

	l.epoch++
	c := &cycle{epoch: l.epoch, id: uuid.NewString(), done: make(chan struct{})}
	l.current = c
	sess := Session{Organization: org, User: user, Role: role}

	l.applyLocked(CycleStarted{Epoch: c.epoch, Role: role, Organization: org, User: user})
	l.applyLocked(ShellReady{Epoch: c.epoch, Domains: domains})
	l.metrics.CycleStarted(role)

	log := base.With().
		Str("cycle", c.id).
		Str("org", org.ID).
		Str("user", user.ID).
		Str("role", string(role)).
		Logger()
	log.Info().Int("domains", len(domains)).Msg("load cycle started")

	var g errgroup.Group
	for _, d := range domains {
		d := d
		g.Go(func() error {
			l.runDomain(ctx, c, d, sess, log)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(c.done)
		log.Debug().Msg("load cycle settled")
	}()

	l.session = sid
	return nil
}

// Refresh clears the organization's and the user's cache scopes, forgets
// the last session and loads again with the last role and skip list.
func (l *Loader) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	role, skip := l.role, l.skip
	l.session = ""
	l.mu.Unlock()

	org, user := l.ctxp.Current()
	if org != nil {
		l.store.ClearByPrefix(keys.OrgPrefix(org.ID))
	}
	if user != nil {
		l.store.ClearByPrefix(keys.UserPrefix(user.ID))
	}
	return l.Load(ctx, role, skip...)
}

// Ready reports whether the current state is shell-ready.
func (l *Loader) Ready() bool {
	return l.Snapshot().Ready()
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Subscribe returns a channel receiving every state change and a cancel
// func. Sends never block: a subscriber that falls behind by more than buf
// states loses the oldest ones.
func (l *Loader) Subscribe(buf int) (<-chan State, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan State, buf)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch, func() {}
	}
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if c, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(c)
			}
		})
	}
}

// Wait blocks until every domain task of the current cycle has finished.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	c := l.current
	l.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes every subscription. Tasks still running finish and update
// the state, but nothing more is published.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
	return nil
}

// runDomain fetches one domain through the cache and dispatches its
// terminal message.
func (l *Loader) runDomain(ctx context.Context, c *cycle, d Domain, sess Session, log zerolog.Logger) {
	ctx, span := l.tracer.Start(ctx, "dashboard.domain", trace.WithAttributes(
		attribute.String("dashboard.domain", string(d)),
		attribute.String("dashboard.cycle", c.id),
	))
	defer span.End()

	start := time.Now()
	key := l.fetcher.Key(d, sess)
	v, err := l.store.GetOrFetchKey(ctx, key, func(ctx context.Context) (any, error) {
		return l.fetcher.Fetch(ctx, d, sess)
	}, 0)
	l.metrics.DomainLoaded(d, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Err(err).Str("domain", string(d)).Str("key", key.String()).Msg("domain load failed")
		l.dispatch(DomainFailed{Epoch: c.epoch, Domain: d, Err: err})
		return
	}
	if !l.dispatch(DomainLoaded{Epoch: c.epoch, Domain: d, Data: v}) {
		log.Debug().Str("domain", string(d)).Msg("stale domain result dropped")
	}
}

// logger returns the configured logger, or the one attached to ctx with
// logging.WithContext.
func (l *Loader) logger(ctx context.Context) zerolog.Logger {
	if l.hasLog {
		return l.log
	}
	return *logging.FromContext(logging.WithComponent(ctx, "dashboard"))
}

// dispatch reduces m into the state and reports whether it was applied.
func (l *Loader) dispatch(m Msg) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(m)
}

func (l *Loader) applyLocked(m Msg) bool {
	next, ok := reduce(l.state, m)
	if !ok {
		return false
	}
	l.state = next
	if !l.closed {
		l.publishLocked(next)
	}
	return true
}

func (l *Loader) publishLocked(s State) {
	for _, ch := range l.subs {
		snap := s.Clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest state and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func sessionID(org *Organization, user *User, role Role, skip []Domain) string {
	return strings.Join([]string{org.ID, user.ID, string(role), strings.Join(sortedDomains(skip), ",")}, "|")
}
