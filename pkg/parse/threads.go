package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// Matching rxdebug -rxstats lines such as:
//   0 calls waiting for a thread
//   13 threads are idle
//   13 of 128 threads are idle      (newer fileservers)
var (
	callsWaitingRE = regexp.MustCompile(`(\d+) calls waiting for a thread`)
	idleThreadsRE  = regexp.MustCompile(`(\d+)(?: of (\d+))? threads are idle`)
)

// ThreadStats extracts RPC thread counters from rxdebug output. rxdebug
// prints many unrelated statistics lines, so unmatched lines are simply
// ignored; ErrNoRecords is returned only when neither counter appears in
// non-empty output.
func ThreadStats(raw string) (afs.ThreadStats, []LineParseError, error) {
	var (
		ts       afs.ThreadStats
		warnings []LineParseError
		found    bool
	)

	for i, line := range strings.Split(raw, "\n") {
		if m := callsWaitingRE.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
				continue
			}
			ts.CallsWaiting = n
			found = true
		}
		if m := idleThreadsRE.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
				continue
			}
			ts.Idle = n
			if m[2] != "" {
				total, err := strconv.Atoi(m[2])
				if err != nil {
					warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
				} else {
					ts.Total = total
				}
			}
			found = true
		}
	}

	if !found {
		return ts, warnings, ErrNoRecords
	}
	return ts, warnings, nil
}
