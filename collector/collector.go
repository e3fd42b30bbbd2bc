package collector

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/wicsp/hostsnap/config"
	"github.com/wicsp/hostsnap/model"
	"github.com/wicsp/hostsnap/util"
)

// FileReader returns the contents of a pseudo-file such as /proc/meminfo.
type FileReader func(path string) (string, error)

// Signaler delivers a signal to a pid.
type Signaler func(pid int, sig unix.Signal) error

// Collector gathers host snapshots. It keeps no state between calls, so one
// instance may be shared across goroutines.
type Collector struct {
	goos     string
	strategy *Strategy
	runner   Runner
	readFile FileReader
	statfs   StatFS
	stats    HostStats
	now      func() time.Time
	log      zerolog.Logger
	facts    HostFacts
	resolver Resolver
	signal   Signaler
	timeout  time.Duration
}

// Option customises a Collector.
type Option func(*Collector)

func WithRunner(r Runner) Option { return func(c *Collector) { c.runner = r } }
func WithFileReader(f FileReader) Option { return func(c *Collector) { c.readFile = f } }
func WithStatFS(f StatFS) Option { return func(c *Collector) { c.statfs = f } }
func WithStats(s HostStats) Option { return func(c *Collector) { c.stats = s } }
func WithClock(now func() time.Time) Option { return func(c *Collector) { c.now = now } }
func WithLogger(l zerolog.Logger) Option { return func(c *Collector) { c.log = l } }
func WithHostFacts(p HostFacts) Option { return func(c *Collector) { c.facts = p } }
func WithResolver(r Resolver) Option { return func(c *Collector) { c.resolver = r } }
func WithSignaler(s Signaler) Option { return func(c *Collector) { c.signal = s } }

// WithPlatform overrides the detected GOOS, which also picks the strategy
// unless WithStrategy is given.
func WithPlatform(goos string) Option { return func(c *Collector) { c.goos = goos } }

// WithStrategy replaces the platform lookup with an explicit strategy.
func WithStrategy(s Strategy) Option { return func(c *Collector) { c.strategy = &s } }

// New builds a Collector bounded by cfg.
func New(cfg config.CollectorConfig, opts ...Option) *Collector {
	c := &Collector{
		goos:     runtime.GOOS,
		statfs:   unixStatfs,
		stats:    gopsutilStats{},
		now:      time.Now,
		log:      zerolog.Nop(),
		facts:    gopsutilFacts{},
		resolver: netResolver{},
		signal:   unix.Kill,
		timeout:  cfg.CommandTimeout.Duration,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultCommandTimeout
	}
	if c.runner == nil {
		c.runner = &ExecRunner{Timeout: c.timeout, MaxOutput: cfg.MaxOutputBytes, Log: c.log}
	}
	if c.readFile == nil {
		limit := cfg.MaxOutputBytes
		c.readFile = func(path string) (string, error) { return util.ReadFileString(path, limit) }
	}
	if c.strategy == nil {
		s := Select(c.goos)
		c.strategy = &s
	}
	return c
}

// Platform returns the GOOS value the collector dispatches on.
func (c *Collector) Platform() string { return c.goos }

// Strategy returns the source chains in use.
func (c *Collector) Strategy() Strategy { return *c.strategy }

func (c *Collector) host() Host {
	return hostFiles{
		runner:  c.runner,
		read:    c.readFile,
		statfs:  c.statfs,
		stats:   c.stats,
		timeout: c.timeout,
	}
}

// collectFirst walks chain in order and returns the first value whose source
// both executed and parsed. Failures are logged, never returned.
func collectFirst[T any](ctx context.Context, c *Collector, metric Metric, chain []Source[T]) (T, bool) {
	var zero T
	if len(chain) == 0 {
		c.log.Warn().
			Str("metric", string(metric)).
			Str("platform", c.goos).
			Err(ErrUnsupportedPlatform).
			Msg("no sources for platform, using default")
		return zero, false
	}
	h := c.host()
	for _, src := range chain {
		start := time.Now()
		v, err := src.Collect(ctx, h)
		if err != nil {
			c.log.Warn().
				Str("metric", string(metric)).
				Str("source", src.Name).
				Err(err).
				Msg("source failed")
			continue
		}
		c.log.Debug().
			Str("metric", string(metric)).
			Str("source", src.Name).
			Dur("took", time.Since(start)).
			Msg("source succeeded")
		return v, true
	}
	c.log.Warn().Str("metric", string(metric)).Msg("all sources failed, using default")
	return zero, false
}

// Snapshot collects every metric in turn. A failed metric keeps its default
// value and never aborts the rest.
func (c *Collector) Snapshot(ctx context.Context) model.Snapshot {
	return model.Snapshot{
		Timestamp: c.now(),
		System:    c.SystemInfo(ctx),
		Memory:    c.MemoryUsage(ctx),
		CPU:       c.CPUUsage(ctx),
		Disks:     c.DiskUsage(ctx),
		Processes: c.ListProcesses(ctx),
	}
}
