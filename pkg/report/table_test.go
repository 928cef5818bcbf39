package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

func TestTableRendersServers(t *testing.T) {
	result := normalServerResult()

	var buf bytes.Buffer
	sink := NewTable(&buf, 90)
	require.NoError(t, sink.Report(result))
	out := buf.String()

	assert.Contains(t, out, "AFS cell openstack.org")
	assert.Contains(t, out, "afs01.dfw.openstack.org")
	assert.Contains(t, out, "Idle Threads")
	assert.Contains(t, out, "/vicepa used")
	assert.Contains(t, out, "mirror.foo quota")
	assert.Contains(t, out, "All 1 fileservers collected")
}

func TestTableMarksFailedTargets(t *testing.T) {
	cell := afs.NewCell("openstack.org")
	cell.FileServers["afs02.example.org"] = afs.Unreachable(
		"afs02.example.org", afs.StateNoConnection)
	result := afs.CollectionResult{
		Cell: cell,
		Targets: []afs.TargetResult{{
			Host:    "afs02.example.org",
			Outcome: afs.OutcomeTimedOut,
			Errs:    []string{"bos status afs02.example.org: timeout"},
		}},
	}

	var buf bytes.Buffer
	sink := NewTable(&buf, 90)
	require.NoError(t, sink.Report(result))
	out := buf.String()

	assert.Contains(t, out, "TIMED-OUT",
		"failed target needs a visible marker, not blanks or zeros")
	assert.Contains(t, out, "no-connection")
	assert.Contains(t, out, "1 of 1 fileservers failed collection")
	assert.NotContains(t, out, "/vicep")
}

func TestTableMarksMissingSections(t *testing.T) {
	result := normalServerResult()
	result.Targets[0].Outcome = afs.OutcomePartialFailure
	result.Targets[0].Sections.Volumes = false

	var buf bytes.Buffer
	sink := NewTable(&buf, 90)
	require.NoError(t, sink.Report(result))
	out := buf.String()

	assert.Contains(t, out, "PARTIAL-FAILURE")
	assert.Contains(t, out, "UNAVAILABLE")
	assert.NotContains(t, out, "mirror.foo used",
		"uncollected volumes must not render as data rows")
}

func TestTableOverQuotaAndUnlimited(t *testing.T) {
	fs, _ := afs.Assemble("afs01.example.org",
		afs.ThreadStats{},
		[]afs.Partition{{Name: "vicepa", TotalBytes: 4096, UsedBytes: 1024}},
		[]afs.Volume{
			{Name: "vol.over", PartitionName: "vicepa", UsedBytes: 2048, QuotaBytes: 1024},
			{Name: "vol.unlimited", PartitionName: "vicepa", UsedBytes: 2048},
		},
	)
	cell := afs.NewCell("openstack.org")
	cell.FileServers[fs.Hostname] = fs
	result := afs.CollectionResult{
		Cell: cell,
		Targets: []afs.TargetResult{{
			Host:    fs.Hostname,
			Outcome: afs.OutcomeSucceeded,
			Sections: afs.Sections{
				Status: true, Threads: true, Partitions: true, Volumes: true,
			},
		}},
	}

	var buf bytes.Buffer
	sink := NewTable(&buf, 90)
	require.NoError(t, sink.Report(result))
	out := buf.String()

	assert.Contains(t, out, "OVER QUOTA")
	assert.Contains(t, out, "unlimited")
}

func TestTableRendersWarnings(t *testing.T) {
	result := normalServerResult()
	result.Warnings = []afs.Warning{
		{Host: "afs01.dfw.openstack.org", Message: "volume vol.x references unknown partition vicepq"},
	}

	var buf bytes.Buffer
	sink := NewTable(&buf, 90)
	require.NoError(t, sink.Report(result))

	assert.Contains(t, buf.String(), "unknown partition vicepq")
}
