package parse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// Matching vos partinfo lines:
//   Free space on partition /vicepa: 512733238 K blocks out of total 960402168
var (
	partinfoRE = regexp.MustCompile(
		`^Free space on partition (/vicep[a-z]{1,2}): (\d+) K blocks out of total (\d+)`)
	partinfoPrefix = "Free space on partition"
)

var errBadPartitionLine = errors.New("unparseable partition line")

// Partitions parses vos partinfo output into partition records, normalized
// to bytes. A line that announces a partition but does not match the full
// shape becomes a LineParseError; the summary and any unrelated lines are
// ignored. The "no partitions" notice counts as a valid empty result.
func Partitions(raw string) ([]afs.Partition, []LineParseError, error) {
	var (
		parts    []afs.Partition
		warnings []LineParseError
	)

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, partinfoPrefix) {
			continue
		}
		m := partinfoRE.FindStringSubmatch(line)
		if m == nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: errBadPartitionLine})
			continue
		}
		free, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
			continue
		}
		total, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil || free > total {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: errBadPartitionLine})
			continue
		}
		parts = append(parts, afs.Partition{
			Name:       strings.TrimPrefix(m[1], "/"),
			TotalBytes: total * KBlock,
			UsedBytes:  (total - free) * KBlock,
		})
	}

	if len(parts) == 0 {
		if len(warnings) == 0 && (empty(raw) || strings.Contains(raw, "no partitions")) {
			return nil, nil, nil
		}
		// Zero valid records out of non-empty input means the format
		// changed or the output is garbage, not that the server is empty.
		return nil, warnings, ErrNoRecords
	}
	return parts, warnings, nil
}
