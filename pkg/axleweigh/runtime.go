package axleweigh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/shubhamavl/axleweigh/internal/adapters/observability"
	"github.com/shubhamavl/axleweigh/internal/adapters/opcua"
	"github.com/shubhamavl/axleweigh/internal/adapters/queue"
	"github.com/shubhamavl/axleweigh/internal/adapters/simulator"
	"github.com/shubhamavl/axleweigh/internal/adapters/sink"
	"github.com/shubhamavl/axleweigh/internal/adapters/slcan"
	"github.com/shubhamavl/axleweigh/internal/adapters/wal"
	"github.com/shubhamavl/axleweigh/internal/app/config"
	"github.com/shubhamavl/axleweigh/internal/app/pipeline"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     Collector
	queue         SampleQueue
	journal       RecordJournal
	observability Observability
	registry      *prometheus.Registry
	sinks         []RecordSink
	displays      []DisplaySink
	withoutHTTP   bool
}

// WithCollector injects a custom collector implementation (CAN bridges, replay files, etc.).
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithSampleQueue injects a custom queue implementation.
func WithSampleQueue(q SampleQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithJournal lets callers bring their own record journal.
func WithJournal(j RecordJournal) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.journal = j
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithRegistry registers runtime metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.registry = reg
	}
}

// WithRecordSink adds a sink next to the JSON report writer.
func WithRecordSink(s RecordSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithDisplay subscribes fn to every published snapshot while the runtime runs.
func WithDisplay(fn DisplaySink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if fn != nil {
			o.displays = append(o.displays, fn)
		}
	}
}

// WithoutHTTP disables the API/metrics listener.
func WithoutHTTP() RuntimeOption {
	return func(o *runtimeOverrides) {
		o.withoutHTTP = true
	}
}

// Runtime wires collector → queue → tick scheduler → display, plus the record
// outbox and export worker, and exposes lifecycle hooks for embedding the rig
// core inside any Go service. A Runtime can be started once.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	registry *prometheus.Registry

	queue     ports.SampleQueue
	latest    *pipeline.LatestReading
	collector ports.Collector
	sim       *simulator.Collector
	external  *ExternalCollector

	journal    ports.RecordJournal
	ownJournal bool
	sinks      []ports.RecordSink
	pg         *sink.PostgresSink
	db         *sql.DB

	engine *pipeline.Engine
	sched  *pipeline.Scheduler
	worker *pipeline.Worker
	outbox *pipeline.RecordOutbox
	hub    *hub

	displays    []DisplaySink
	withoutHTTP bool
	handler     http.Handler

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	groupCtx context.Context
	reg      *pipeline.Registration
	subs     []*pipeline.Subscription
	srv      *http.Server
	addr     string
}

// NewRuntime bootstraps the default adapters (collector chosen by
// cfg.Source.Kind, in-memory queue, file journal, JSON reports, optional
// Postgres sink, Prometheus observability). Options override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{
		cfg:         cfg,
		latest:      &pipeline.LatestReading{},
		displays:    overrides.displays,
		withoutHTTP: overrides.withoutHTTP,
	}

	rt.registry = overrides.registry
	if rt.registry == nil {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	rt.obs = overrides.observability
	if rt.obs == nil {
		rt.obs = observability.NewPromObs(rt.registry)
	}

	rt.queue = overrides.queue
	if rt.queue == nil {
		rt.queue = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	var err error
	rt.collector = overrides.collector
	if rt.collector == nil {
		if err = rt.buildCollector(); err != nil {
			return nil, err
		}
	}
	if ext, ok := rt.collector.(*ExternalCollector); ok {
		rt.external = ext
	}

	rt.journal = overrides.journal
	if rt.journal == nil {
		fj, err := wal.NewFileJournal(cfg.Output.JournalDir)
		if err != nil {
			return nil, err
		}
		rt.journal = fj
		rt.ownJournal = true
	}

	rt.sinks = append(rt.sinks, sink.NewJSONSink(cfg.Output.ReportDir))
	if cfg.Timescale.ConnString != "" {
		rt.db, err = sql.Open("postgres", cfg.Timescale.ConnString)
		if err != nil {
			rt.closeStorage()
			return nil, err
		}
		rt.pg = sink.NewPostgresSink(rt.db, cfg.Timescale.Table)
		rt.sinks = append(rt.sinks, rt.pg)
	}
	rt.sinks = append(rt.sinks, overrides.sinks...)

	rt.engine = pipeline.NewEngine(pipeline.EngineConfig{
		Policy:     cfg.Policy,
		Thresholds: cfg.Validation,
		AxleNumber: cfg.Session.AxleNumber,
	}, rt.queue, rt.latest, rt.obs)
	rt.sched = pipeline.NewScheduler(rt.engine, cfg.Policy.TickInterval, rt.obs)
	rt.worker = pipeline.NewWorker(0, rt.obs)
	rt.outbox = pipeline.NewRecordOutbox(rt.journal, rt.sinks, rt.obs)
	rt.outbox.SetDeadLetter(sink.NewJSONSink(filepath.Join(cfg.Output.JournalDir, "dead_letter")), 0)
	rt.hub = newHub(rt.obs)
	rt.handler = newRouter(rt)

	return rt, nil
}

func (rt *Runtime) buildCollector() error {
	switch rt.cfg.Source.Kind {
	case config.SourceOPCUA:
		col, err := opcua.NewCollector(rt.cfg.OPCUA)
		if err != nil {
			return err
		}
		rt.collector = col
	case config.SourceSLCAN:
		col, err := slcan.NewCollector(rt.cfg.SLCAN)
		if err != nil {
			return err
		}
		rt.collector = col
	case config.SourceExternal:
		rt.collector = NewExternalCollector()
	case config.SourceSimulator, "":
		col, err := simulator.NewCollector(rt.cfg.Simulator)
		if err != nil {
			return err
		}
		rt.sim = col
		rt.collector = col
	default:
		return fmt.Errorf("unsupported source kind %q", rt.cfg.Source.Kind)
	}
	return nil
}

// Start launches the tick scheduler, the export worker, the collector and the
// HTTP listener. It returns immediately; call Run to block on a context instead.
func (rt *Runtime) Start() error {
	if rt == nil {
		return fmt.Errorf("runtime is nil")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.started || rt.stopped {
		return fmt.Errorf("runtime already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.sched.Run(gctx) })
	g.Go(func() error { return rt.worker.Run(gctx) })

	if rt.pg != nil {
		rt.worker.Submit("ensure_schema", rt.pg.EnsureSchema)
	}
	rt.worker.Submit("journal_replay", rt.outbox.Flush)

	rt.subs = append(rt.subs, rt.sched.Subscribe(rt.hub.broadcast))
	for _, fn := range rt.displays {
		rt.subs = append(rt.subs, rt.sched.Subscribe(fn))
	}

	reg, err := pipeline.RunEdgePipeline(rt.collector, rt.queue, rt.latest, rt.obs)
	if err != nil {
		rt.abortLocked(cancel, g)
		return err
	}
	rt.reg = reg

	if !rt.withoutHTTP && rt.cfg.HTTP.Addr != "" {
		ln, err := net.Listen("tcp", rt.cfg.HTTP.Addr)
		if err != nil {
			_ = reg.Close()
			rt.abortLocked(cancel, g)
			return fmt.Errorf("listen %s: %w", rt.cfg.HTTP.Addr, err)
		}
		rt.addr = ln.Addr().String()
		rt.srv = &http.Server{Handler: rt.handler, ReadHeaderTimeout: 5 * time.Second}
		srv := rt.srv
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	rt.cancel = cancel
	rt.group = g
	rt.groupCtx = gctx
	rt.started = true
	rt.obs.LogInfo("runtime_started",
		ports.Field{Key: "source", Value: fmt.Sprintf("%T", rt.collector)},
		ports.Field{Key: "http", Value: rt.addr})
	return nil
}

func (rt *Runtime) abortLocked(cancel context.CancelFunc, g *errgroup.Group) {
	for _, sub := range rt.subs {
		sub.Close()
	}
	rt.subs = nil
	cancel()
	_ = g.Wait()
	rt.stopped = true
	rt.closeStorage()
}

// Run starts the runtime and blocks until ctx is cancelled or a component
// fails. Either way it shuts down gracefully.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-rt.groupCtx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rt.Shutdown(shutdownCtx)
}

// Shutdown stops the collector, the HTTP server, the scheduler and the worker,
// then closes the journal and DB connection. Queued persistence jobs finish
// before the worker exits.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.started {
		return nil
	}
	rt.started = false
	rt.stopped = true

	var errs []error
	if err := rt.reg.Close(); err != nil {
		errs = append(errs, fmt.Errorf("stop collector: %w", err))
	}
	for _, sub := range rt.subs {
		sub.Close()
	}
	rt.subs = nil

	if rt.srv != nil {
		if err := rt.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	rt.hub.close()

	rt.cancel()
	done := make(chan error, 1)
	go func() { done <- rt.group.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			errs = append(errs, err)
		}
		rt.worker.Close()
		rt.sched.Close()
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	errs = append(errs, rt.closeStorage())
	return errors.Join(errs...)
}

func (rt *Runtime) closeStorage() error {
	var errs []error
	if rt.ownJournal && rt.journal != nil {
		if err := rt.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Addr is the bound HTTP address once started, empty otherwise.
func (rt *Runtime) Addr() string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.addr
}

// Handler exposes the HTTP API for callers that mount it on their own server.
func (rt *Runtime) Handler() http.Handler { return rt.handler }

// External returns the publish handle when the source kind is external.
func (rt *Runtime) External() *ExternalCollector { return rt.external }

// SimulatedChannels returns the simulated load cells when the simulator is the source.
func (rt *Runtime) SimulatedChannels() (left, right SimulatedChannel, ok bool) {
	if rt.sim == nil {
		return nil, nil, false
	}
	return rt.sim.Left(), rt.sim.Right(), true
}

// Snapshot returns the latest published display state.
func (rt *Runtime) Snapshot() (Snapshot, bool) { return rt.sched.Latest() }

// Subscribe registers an additional display callback.
func (rt *Runtime) Subscribe(fn DisplaySink) *Subscription { return rt.sched.Subscribe(fn) }

func (rt *Runtime) Status(ctx context.Context) (Status, error) { return rt.sched.Status(ctx) }

// StartTest opens a session. applied is false when the state does not allow it.
func (rt *Runtime) StartTest(ctx context.Context) (bool, error) {
	applied, err := rt.sched.Start(ctx)
	if applied {
		rt.obs.LogInfo("session_started")
	}
	return applied, err
}

func (rt *Runtime) StopTest(ctx context.Context) (bool, error) {
	applied, err := rt.sched.Stop(ctx)
	if applied {
		rt.obs.LogInfo("session_stopped")
	}
	return applied, err
}

// SaveTest finalizes the session and hands the record to the outbox. The
// returned channel yields the persistence result. rec is nil with a nil error
// when saving is not allowed in the current state.
func (rt *Runtime) SaveTest(ctx context.Context) (*TestRecord, <-chan error, error) {
	rec, err := rt.sched.Save(ctx)
	if err != nil || rec == nil {
		return nil, nil, err
	}
	persist := rec.Clone()
	fut := rt.worker.Submit("persist_record", func(ctx context.Context) error {
		return rt.outbox.Persist(ctx, persist)
	})
	rt.obs.LogInfo("session_saved",
		ports.Field{Key: "record", Value: rec.ID.String()},
		ports.Field{Key: "balance", Value: rec.BalanceStatus.String()})
	return rec, fut, nil
}

// ClearTest discards the session, both windows and any queued samples.
func (rt *Runtime) ClearTest(ctx context.Context) (int, error) { return rt.sched.Clear(ctx) }

func (rt *Runtime) Pause(ctx context.Context) error  { return rt.sched.Pause(ctx) }
func (rt *Runtime) Resume(ctx context.Context) error { return rt.sched.Resume(ctx) }

func (rt *Runtime) SetAxle(ctx context.Context, n uint8) error {
	if n == 0 {
		return fmt.Errorf("axle number must be positive")
	}
	return rt.sched.SetAxle(ctx, n)
}

// ExportCSV copies both windows and writes them to path off the tick goroutine.
func (rt *Runtime) ExportCSV(ctx context.Context, path string) (<-chan error, error) {
	left, right, err := rt.sched.Buffers(ctx)
	if err != nil {
		return nil, err
	}
	return rt.worker.Submit("export_csv", func(context.Context) error {
		if err := sink.ExportWindowCSV(path, left, right); err != nil {
			rt.obs.IncCounter("axle_export_failures_total", 1)
			return err
		}
		rt.obs.IncCounter("axle_exports_total", 1)
		return nil
	}), nil
}
