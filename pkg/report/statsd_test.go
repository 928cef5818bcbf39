package report

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// fakeStatsd collects the raw gauge lines pushed over UDP.
type fakeStatsd struct {
	conn net.PacketConn

	mu    sync.Mutex
	stats []string
}

func newFakeStatsd(t *testing.T) *fakeStatsd {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeStatsd{conn: conn}
	go f.loop()
	t.Cleanup(func() { conn.Close() })
	return f
}

func (f *fakeStatsd) loop() {
	buf := make([]byte, 64*1024)
	for {
		n, _, err := f.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		f.mu.Lock()
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if line != "" {
				f.stats = append(f.stats, line)
			}
		}
		f.mu.Unlock()
	}
}

func (f *fakeStatsd) addr() string {
	return f.conn.LocalAddr().String()
}

// waitFor polls until a stat with the exact key:value|g shape arrives.
func (f *fakeStatsd) waitFor(t *testing.T, stat string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		for _, s := range f.stats {
			if s == stat {
				f.mu.Unlock()
				return
			}
		}
		f.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.Fatalf("stat %q not reported; got %v", stat, f.stats)
}

func (f *fakeStatsd) none(match string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stats {
		if strings.Contains(s, match) {
			return false
		}
	}
	return true
}

func normalServerResult() afs.CollectionResult {
	creation := time.Date(2018, 10, 2, 18, 45, 54, 0, time.UTC)
	fs, _ := afs.Assemble("afs01.dfw.openstack.org",
		afs.ThreadStats{CallsWaiting: 0, Idle: 250},
		[]afs.Partition{{Name: "vicepa", TotalBytes: 1024, UsedBytes: 512}},
		[]afs.Volume{{
			Name: "mirror.foo", ID: 536870931, Perms: "RW",
			PartitionName: "vicepa",
			UsedBytes:     512, QuotaBytes: 1024, Creation: creation,
		}},
	)

	cell := afs.NewCell("openstack.org")
	cell.FileServers[fs.Hostname] = fs
	return afs.CollectionResult{
		Cell: cell,
		Targets: []afs.TargetResult{{
			Host:    fs.Hostname,
			Outcome: afs.OutcomeSucceeded,
			Sections: afs.Sections{
				Status: true, Threads: true, Partitions: true, Volumes: true,
			},
		}},
	}
}

func TestStatsdGauges(t *testing.T) {
	fake := newFakeStatsd(t)

	sink, err := NewStatsd(fake.addr(), "afs", nil)
	require.NoError(t, err)

	require.NoError(t, sink.Report(normalServerResult()))
	require.NoError(t, sink.Close())

	fake.waitFor(t, "afs.afs01_dfw_openstack_org.idle_threads:250|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.calls_waiting:0|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.part.vicepa.used:512|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.part.vicepa.free:512|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.part.vicepa.total:1024|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.vol.mirror_foo.used:512|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.vol.mirror_foo.quota:1024|g")
	fake.waitFor(t, "afs.afs01_dfw_openstack_org.vol.mirror_foo.creation:1538505954|g")
}

func TestStatsdSkipsUncollectedSections(t *testing.T) {
	fake := newFakeStatsd(t)

	result := normalServerResult()
	result.Targets[0].Outcome = afs.OutcomePartialFailure
	result.Targets[0].Sections.Volumes = false

	sink, err := NewStatsd(fake.addr(), "afs", nil)
	require.NoError(t, err)
	require.NoError(t, sink.Report(result))
	require.NoError(t, sink.Close())

	fake.waitFor(t, "afs.afs01_dfw_openstack_org.part.vicepa.used:512|g")
	assert.True(t, fake.none(".vol."),
		"uncollected volume stats must be skipped, not sent as zero")
}

func TestStatsdSkipsUnreachableServers(t *testing.T) {
	fake := newFakeStatsd(t)

	cell := afs.NewCell("openstack.org")
	cell.FileServers["afs02.example.org"] = afs.Unreachable(
		"afs02.example.org", afs.StateNoConnection)
	result := afs.CollectionResult{
		Cell: cell,
		Targets: []afs.TargetResult{
			{Host: "afs02.example.org", Outcome: afs.OutcomeTimedOut},
		},
	}

	sink, err := NewStatsd(fake.addr(), "afs", nil)
	require.NoError(t, err)
	require.NoError(t, sink.Report(result))
	require.NoError(t, sink.Close())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, fake.none("afs02"),
		"unreachable server must produce no metrics at all")
}
