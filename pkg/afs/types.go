// Package afs defines the statistics model for an AFS cell: the entity
// graph Cell -> FileServer -> {Partition, Volume} plus the per-target
// collection outcomes that accompany one monitoring pass.
package afs

import (
	"fmt"
	"time"
)

// ServerState is the administrative state of a fileserver as reported by
// bos status.
type ServerState int

const (
	StateUnknown ServerState = iota
	StateNormal
	StateTemporarilyDisabled
	StateDisabled
	StateNoConnection
)

// String returns the state name.
func (s ServerState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateTemporarilyDisabled:
		return "temporarily-disabled"
	case StateDisabled:
		return "disabled"
	case StateNoConnection:
		return "no-connection"
	default:
		return "unknown"
	}
}

// ThreadStats holds RPC service thread counters from rxdebug. Total is 0
// when the tool output did not report an overall thread count.
type ThreadStats struct {
	CallsWaiting int
	Idle         int
	Total        int
}

// Active returns the number of non-idle threads, or 0 when the total
// thread count is unknown.
func (t ThreadStats) Active() int {
	if t.Total <= 0 || t.Idle > t.Total {
		return 0
	}
	return t.Total - t.Idle
}

// BusyRatio returns the fraction of threads in use. The second return is
// false when the total thread count is unknown.
func (t ThreadStats) BusyRatio() (float64, bool) {
	if t.Total <= 0 {
		return 0, false
	}
	return float64(t.Active()) / float64(t.Total), true
}

// Partition is a /vicepX storage partition on one fileserver. Sizes are
// bytes; parsers normalize the tools' 1 KB block figures before they reach
// the model.
type Partition struct {
	Name       string
	TotalBytes uint64
	UsedBytes  uint64
}

// FreeBytes returns the unused capacity.
func (p Partition) FreeBytes() uint64 {
	if p.UsedBytes > p.TotalBytes {
		return 0
	}
	return p.TotalBytes - p.UsedBytes
}

// UsedPercent returns used capacity as a percentage of the total, or 0 for
// an empty partition. Recomputed from the raw byte counts on every call.
func (p Partition) UsedPercent() float64 {
	if p.TotalBytes == 0 {
		return 0
	}
	return float64(p.UsedBytes) / float64(p.TotalBytes) * 100
}

// FreePercent returns free capacity as a percentage of the total.
func (p Partition) FreePercent() float64 {
	if p.TotalBytes == 0 {
		return 0
	}
	return 100 - p.UsedPercent()
}

// Volume is a logical AFS volume. QuotaBytes of 0 means the quota is
// unlimited (AFS "MaxQuota 0"). PartitionName is a back-reference by name;
// PartitionResolved records whether it matched a partition on the owning
// server at assembly time.
type Volume struct {
	Name              string
	ID                uint64
	Perms             string
	PartitionName     string
	PartitionResolved bool
	UsedBytes         uint64
	QuotaBytes        uint64
	Creation          time.Time
}

// OverQuota reports whether usage exceeds the volume quota. Always false
// for unlimited (zero) quotas.
func (v Volume) OverQuota() bool {
	return v.QuotaBytes > 0 && v.UsedBytes > v.QuotaBytes
}

// UsedPercent returns usage as a percentage of quota. The second return is
// false when the quota is unlimited.
func (v Volume) UsedPercent() (float64, bool) {
	if v.QuotaBytes == 0 {
		return 0, false
	}
	return float64(v.UsedBytes) / float64(v.QuotaBytes) * 100, true
}

// FileServer is the per-host statistics snapshot. A server whose State is
// not StateNormal carries empty partition/volume maps and zero ThreadStats
// rather than stale values.
type FileServer struct {
	Hostname   string
	Timestamp  time.Time
	State      ServerState
	Restart    time.Time
	Threads    ThreadStats
	Partitions map[string]Partition
	Volumes    map[string]Volume
}

// Uptime returns time since the last fileserver restart, or 0 when the
// restart time is unknown.
func (f *FileServer) Uptime() time.Duration {
	if f.Restart.IsZero() || f.Timestamp.Before(f.Restart) {
		return 0
	}
	return f.Timestamp.Sub(f.Restart)
}

// Cell is one AFS cell and the fileservers it owns, keyed by hostname.
type Cell struct {
	Name        string
	FileServers map[string]*FileServer
}

// NewCell returns an empty cell.
func NewCell(name string) *Cell {
	return &Cell{
		Name:        name,
		FileServers: make(map[string]*FileServer),
	}
}

// Warning is a non-fatal irregularity noticed while building the model,
// such as a volume naming a partition the server does not report.
type Warning struct {
	Host    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Host, w.Message)
}
