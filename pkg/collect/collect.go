// Package collect orchestrates the AFS tool invocations across all
// configured fileserver targets and assembles one statistics snapshot per
// pass.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openstack-infra/afsmon/pkg/afs"
	"github.com/openstack-infra/afsmon/pkg/invoke"
	"github.com/openstack-infra/afsmon/pkg/parse"
)

// DefaultMaxConcurrent caps simultaneous targets so a large cell does not
// get hammered with connections all at once.
const DefaultMaxConcurrent = 4

// Config is the immutable per-pass configuration. It is passed in
// explicitly so test runs can be deterministic and parallel.
type Config struct {
	Cell          string
	FileServers   []string
	Timeout       time.Duration
	MaxConcurrent int
}

// Collector drives one collection pass: for every target it runs bos
// status, and for normally running servers rxdebug, vos partinfo, and vos
// listvol, parses each, and assembles the per-server entity. A failure on
// one target never aborts collection of the others.
type Collector struct {
	cfg    Config
	runner invoke.Runner
	log    *logrus.Logger
}

// New creates a Collector.
func New(cfg Config, runner invoke.Runner, log *logrus.Logger) *Collector {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Collector{cfg: cfg, runner: runner, log: log}
}

// DiscoverFileServers queries vos listaddrs for the fileservers belonging
// to the configured cell.
func (c *Collector) DiscoverFileServers(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, c.cfg.Timeout,
		"vos", "listaddrs", "-noauth", "-cell", c.cfg.Cell)
	if err != nil {
		return nil, fmt.Errorf("listing fileservers for cell %s: %w", c.cfg.Cell, err)
	}
	hosts, warnings, err := parse.Addresses(out)
	if err != nil {
		return nil, fmt.Errorf("parsing fileserver list for cell %s: %w", c.cfg.Cell, err)
	}
	for _, w := range warnings {
		c.log.WithField("cell", c.cfg.Cell).Warnf("listaddrs: %v", w)
	}
	return hosts, nil
}

// Collect runs one pass over every configured target. Targets run
// concurrently up to MaxConcurrent; completion order never affects the
// snapshot, which is keyed by hostname. Cancellation of ctx marks the
// unfinished targets Cancelled but still returns everything already
// collected.
func (c *Collector) Collect(ctx context.Context) afs.CollectionResult {
	cell := afs.NewCell(c.cfg.Cell)

	type slot struct {
		fs       *afs.FileServer
		result   afs.TargetResult
		warnings []afs.Warning
	}
	slots := make([]slot, len(c.cfg.FileServers))

	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrent)
	for i, host := range c.cfg.FileServers {
		i, host := i, host
		g.Go(func() error {
			fs, res, warns := c.collectTarget(ctx, host)
			slots[i] = slot{fs: fs, result: res, warnings: warns}
			return nil
		})
	}
	// Target failures are carried in outcomes, never as goroutine errors.
	_ = g.Wait()

	result := afs.CollectionResult{Cell: cell}
	for _, s := range slots {
		if s.fs != nil {
			if s.fs.Timestamp.IsZero() {
				s.fs.Timestamp = time.Now()
			}
			cell.FileServers[s.fs.Hostname] = s.fs
		}
		result.Targets = append(result.Targets, s.result)
		result.Warnings = append(result.Warnings, s.warnings...)
	}
	return result
}

// collectTarget gathers all stats for one fileserver. Each tool is
// attempted exactly once; retries are an external concern.
func (c *Collector) collectTarget(ctx context.Context, host string) (*afs.FileServer, afs.TargetResult, []afs.Warning) {
	log := c.log.WithField("fileserver", host)
	res := afs.TargetResult{Host: host, Outcome: afs.OutcomeSucceeded}
	now := time.Now()

	// bos status gates everything else: a server that is down or
	// administratively disabled gets no further queries.
	out, err := c.runner.Run(ctx, c.cfg.Timeout, "bos", "status", host, "-long", "-noauth")
	if err != nil {
		log.WithError(err).Warn("bos status failed")
		res.Outcome = classify(ctx, err)
		res.Errs = append(res.Errs, err.Error())
		fs := afs.Unreachable(host, afs.StateNoConnection)
		fs.Timestamp = now
		return fs, res, nil
	}

	state, restart, statusWarns, err := parse.ServerStatus(out)
	if err != nil {
		log.WithError(err).Warn("bos status output not understood")
		res.Outcome = afs.OutcomePartialFailure
		res.Errs = append(res.Errs, fmt.Sprintf("bos status: %v", err))
		fs := afs.Unreachable(host, afs.StateUnknown)
		fs.Timestamp = now
		return fs, res, nil
	}
	res.Sections.Status = true
	var warnings []afs.Warning
	for _, w := range statusWarns {
		warnings = append(warnings, afs.Warning{Host: host, Message: w.Error()})
	}

	if state != afs.StateNormal {
		log.WithField("state", state).Info("Fileserver not running normally")
		fs := afs.Unreachable(host, state)
		fs.Timestamp = now
		return fs, res, warnings
	}

	var (
		threads afs.ThreadStats
		parts   []afs.Partition
		vols    []afs.Volume
	)

	record := func(section *bool, name string, err error) {
		if err == nil {
			*section = true
			return
		}
		log.WithError(err).Warnf("%s failed", name)
		res.Errs = append(res.Errs, fmt.Sprintf("%s: %v", name, err))
		switch o := classify(ctx, err); o {
		case afs.OutcomeTimedOut, afs.OutcomeCancelled:
			res.Outcome = o
		default:
			if res.Outcome == afs.OutcomeSucceeded {
				res.Outcome = afs.OutcomePartialFailure
			}
		}
	}

	threads, curWarns, err := c.threadStats(ctx, host)
	record(&res.Sections.Threads, "rxdebug", err)
	warnings = append(warnings, curWarns...)

	parts, curWarns, err = c.partitions(ctx, host)
	record(&res.Sections.Partitions, "vos partinfo", err)
	warnings = append(warnings, curWarns...)

	vols, curWarns, err = c.volumes(ctx, host)
	record(&res.Sections.Volumes, "vos listvol", err)
	warnings = append(warnings, curWarns...)

	fs, assembleWarns := afs.Assemble(host, threads, parts, vols)
	fs.Timestamp = now
	fs.Restart = restart
	warnings = append(warnings, assembleWarns...)
	return fs, res, warnings
}

func (c *Collector) threadStats(ctx context.Context, host string) (afs.ThreadStats, []afs.Warning, error) {
	out, err := c.runner.Run(ctx, c.cfg.Timeout, "rxdebug", host, "7000", "-rxstats", "-noconns")
	if err != nil {
		return afs.ThreadStats{}, nil, err
	}
	ts, lineWarns, err := parse.ThreadStats(out)
	return ts, c.lineWarnings(host, lineWarns), err
}

func (c *Collector) partitions(ctx context.Context, host string) ([]afs.Partition, []afs.Warning, error) {
	out, err := c.runner.Run(ctx, c.cfg.Timeout, "vos", "partinfo", host, "-noauth")
	if err != nil {
		return nil, nil, err
	}
	parts, lineWarns, err := parse.Partitions(out)
	return parts, c.lineWarnings(host, lineWarns), err
}

func (c *Collector) volumes(ctx context.Context, host string) ([]afs.Volume, []afs.Warning, error) {
	out, err := c.runner.Run(ctx, c.cfg.Timeout, "vos", "listvol", "-long", "-server", host)
	if err != nil {
		return nil, nil, err
	}
	vols, lineWarns, err := parse.Volumes(out)
	return vols, c.lineWarnings(host, lineWarns), err
}

func (c *Collector) lineWarnings(host string, errs []parse.LineParseError) []afs.Warning {
	var warnings []afs.Warning
	for _, e := range errs {
		c.log.WithField("fileserver", host).Warnf("parse: %v", e)
		warnings = append(warnings, afs.Warning{Host: host, Message: e.Error()})
	}
	return warnings
}

// classify maps an invocation or parse failure onto a target outcome.
func classify(ctx context.Context, err error) afs.TargetOutcome {
	var invErr *invoke.Error
	if errors.As(err, &invErr) {
		switch invErr.Kind {
		case invoke.KindTimeout:
			if errors.Is(ctx.Err(), context.Canceled) {
				return afs.OutcomeCancelled
			}
			return afs.OutcomeTimedOut
		default:
			return afs.OutcomeToolError
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return afs.OutcomeCancelled
	}
	return afs.OutcomePartialFailure
}
