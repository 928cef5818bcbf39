package parse

import (
	"errors"
	"strings"
)

var errBadAddressLine = errors.New("expected one address per line")

// Addresses parses vos listaddrs output: one fileserver address or
// hostname per line.
func Addresses(raw string) ([]string, []LineParseError, error) {
	var (
		hosts    []string
		warnings []LineParseError
	)

	for i, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		switch len(fields) {
		case 0:
			continue
		case 1:
			hosts = append(hosts, fields[0])
		default:
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: errBadAddressLine})
		}
	}

	if len(hosts) == 0 && !empty(raw) {
		return nil, warnings, ErrNoRecords
	}
	return hosts, warnings, nil
}
