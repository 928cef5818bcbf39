// Package parse converts the semi-structured text output of the OpenAFS
// administration tools (bos, vos, rxdebug) into model records.
//
// All parsers work line by line: a line that fails to match the expected
// shape is recorded as a LineParseError and skipped, never aborting the
// rest of the input. Usage figures reported by the tools in 1 KB blocks
// are normalized to bytes here so the model only ever stores bytes.
package parse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// KBlock is the unit the AFS tools report usage in.
const KBlock = 1024

// ErrNoRecords is returned when non-empty tool output yields no
// recognizable records at all, which usually means the tool's output
// format changed rather than that the server is empty.
var ErrNoRecords = errors.New("no records recognized in tool output")

// LineParseError describes one malformed line. It is a warning, not a
// failure: the surrounding lines are still parsed.
type LineParseError struct {
	Line int
	Text string
	Err  error
}

func (e LineParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

// AFS tools print timestamps like "Tue Nov  2 03:35:15 2016".
const afsTimeLayout = "Mon Jan _2 15:04:05 2006"

func parseAFSTime(s string) (time.Time, error) {
	return time.Parse(afsTimeLayout, strings.TrimSpace(s))
}

// empty reports whether raw contains nothing but whitespace.
func empty(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
