package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/sirupsen/logrus"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// Statsd pushes one gauge per collected numeric field. Metric names follow
// the historical afsmon scheme:
//
//	afs.<host>.idle_threads
//	afs.<host>.calls_waiting
//	afs.<host>.part.<partition>.{used,free,total}
//	afs.<host>.vol.<volume>.{used,quota,creation}
//
// with dots in host and volume names flattened to underscores. Fields that
// were never successfully collected are skipped, not sent as zero.
type Statsd struct {
	client statsd.Statter
	log    *logrus.Logger
}

// NewStatsd connects a buffered statsd client to address (host:port).
// With a lot of volumes one pass can emit thousands of gauges, so
// buffering matters.
func NewStatsd(address, prefix string, log *logrus.Logger) (*Statsd, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:       address,
		Prefix:        prefix,
		UseBuffered:   true,
		FlushInterval: 300 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting statsd client to %s: %w", address, err)
	}
	log.WithField("address", address).Debug("Sending stats to statsd")
	return &Statsd{client: client, log: log}, nil
}

// Report emits gauges for every normally running fileserver in the
// snapshot.
func (s *Statsd) Report(result afs.CollectionResult) error {
	for _, tr := range result.Targets {
		fs := result.Cell.FileServers[tr.Host]
		if fs == nil || fs.State != afs.StateNormal {
			continue
		}
		if err := s.reportServer(fs, tr); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered metrics and releases the client.
func (s *Statsd) Close() error {
	return s.client.Close()
}

func (s *Statsd) reportServer(fs *afs.FileServer, tr afs.TargetResult) error {
	hn := flatten(fs.Hostname)

	gauge := func(name string, value uint64) error {
		return s.client.Gauge(name, int64(value), 1.0)
	}

	if tr.Sections.Threads {
		if err := gauge(hn+".idle_threads", uint64(fs.Threads.Idle)); err != nil {
			return err
		}
		if err := gauge(hn+".calls_waiting", uint64(fs.Threads.CallsWaiting)); err != nil {
			return err
		}
		if _, ok := fs.Threads.BusyRatio(); ok {
			if err := gauge(hn+".active_threads", uint64(fs.Threads.Active())); err != nil {
				return err
			}
		}
	}

	if tr.Sections.Partitions {
		for _, p := range fs.Partitions {
			base := fmt.Sprintf("%s.part.%s", hn, p.Name)
			if err := gauge(base+".used", p.UsedBytes); err != nil {
				return err
			}
			if err := gauge(base+".free", p.FreeBytes()); err != nil {
				return err
			}
			if err := gauge(base+".total", p.TotalBytes); err != nil {
				return err
			}
		}
	}

	if tr.Sections.Volumes {
		for _, v := range fs.Volumes {
			base := fmt.Sprintf("%s.vol.%s", hn, flatten(v.Name))
			if err := gauge(base+".used", v.UsedBytes); err != nil {
				return err
			}
			if v.QuotaBytes > 0 {
				if err := gauge(base+".quota", v.QuotaBytes); err != nil {
					return err
				}
			}
			if !v.Creation.IsZero() {
				if err := gauge(base+".creation", uint64(v.Creation.Unix())); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// flatten rewrites dotted identifiers for use inside a metric name.
func flatten(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
