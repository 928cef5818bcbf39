package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// Matching bos status -long output for the fs bnode, e.g.:
//   Instance fs, (type is fs) currently running normally.
//   Process last started at Tue Nov  2 03:35:15 2016 (2 proc starts)
var bosRestartRE = regexp.MustCompile(`last started at (\w+ \w+\s+\d{1,2} \d+:\d+:\d+ \d+)`)

// ServerStatus classifies bos status output into an administrative state
// and, for a normally running server, the last restart time.
func ServerStatus(raw string) (afs.ServerState, time.Time, []LineParseError, error) {
	if empty(raw) {
		return afs.StateUnknown, time.Time{}, nil, ErrNoRecords
	}

	switch {
	case strings.Contains(raw, "currently running normally"):
		var restart time.Time
		var warnings []LineParseError
		if m := bosRestartRE.FindStringSubmatch(raw); m != nil {
			t, err := parseAFSTime(m[1])
			if err != nil {
				warnings = append(warnings, LineParseError{Text: m[0], Err: err})
			} else {
				restart = t
			}
		}
		return afs.StateNormal, restart, warnings, nil
	case strings.Contains(raw, "temporarily disabled, currently shutdown"):
		return afs.StateTemporarilyDisabled, time.Time{}, nil, nil
	case strings.Contains(raw, "disabled, currently shutdown"):
		return afs.StateDisabled, time.Time{}, nil, nil
	default:
		return afs.StateUnknown, time.Time{}, nil, nil
	}
}
