package parse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openstack-infra/afsmon/pkg/afs"
)

// vos listvol -long prints roughly ten lines per volume. The block opens
// with a header line:
//
//   mirror.yum-puppetlabs             536871036 RO   63026403 K  On-line
//
// followed by indented detail lines, among them:
//
//       afs01.dfw.openstack.org /vicepa
//       MaxQuota      50000000 K
//       Creation    Tue Oct  2 18:45:54 2018
var (
	volHeaderRE    = regexp.MustCompile(`^(\S+)\s+(\d+)\s+(RW|RO|BK)\s+(\d+) K\s+On-line`)
	volPartitionRE = regexp.MustCompile(`\s(/vicep[a-z]{1,2})\b`)
	volQuotaRE     = regexp.MustCompile(`MaxQuota\s+(\d+) K`)
	volCreationRE  = regexp.MustCompile(`Creation\s+(\w+ \w+\s+\d{1,2} \d+:\d+:\d+ \d+)`)
)

var (
	errBadVolumeHeader = errors.New("unparseable volume header")
	errNoQuota         = errors.New("volume block missing MaxQuota")
)

// volBlockLines is how many detail lines follow a volume header.
const volBlockLines = 8

// Volumes parses vos listvol -long output, normalized to bytes. Each
// malformed On-line header yields one LineParseError and only skips that
// volume; well-formed volumes elsewhere in the input are unaffected.
func Volumes(raw string) ([]afs.Volume, []LineParseError, error) {
	var (
		vols     []afs.Volume
		warnings []LineParseError
	)

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.Contains(line, "On-line") {
			continue
		}
		m := volHeaderRE.FindStringSubmatch(line)
		if m == nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: errBadVolumeHeader})
			continue
		}

		// Gather the detail block for this volume.
		block := line
		for j := 1; j <= volBlockLines && i+j < len(lines); j++ {
			block += "\n" + lines[i+j]
		}

		id, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
			continue
		}
		used, err := strconv.ParseUint(m[4], 10, 64)
		if err != nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
			continue
		}

		q := volQuotaRE.FindStringSubmatch(block)
		if q == nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: errNoQuota})
			continue
		}
		quota, err := strconv.ParseUint(q[1], 10, 64)
		if err != nil {
			warnings = append(warnings, LineParseError{Line: i + 1, Text: line, Err: err})
			continue
		}

		v := afs.Volume{
			Name:       m[1],
			ID:         id,
			Perms:      m[3],
			UsedBytes:  used * KBlock,
			QuotaBytes: quota * KBlock,
		}
		if p := volPartitionRE.FindStringSubmatch(block); p != nil {
			v.PartitionName = strings.TrimPrefix(p[1], "/")
		}
		if c := volCreationRE.FindStringSubmatch(block); c != nil {
			if t, err := parseAFSTime(c[1]); err == nil {
				v.Creation = t
			}
		}

		vols = append(vols, v)
		i += volBlockLines
	}

	if len(vols) == 0 {
		if len(warnings) == 0 && (empty(raw) || strings.Contains(raw, "Total number of volumes on server")) {
			// A server can legitimately host zero volumes.
			return nil, nil, nil
		}
		// Every volume block was malformed, or nothing was recognized at
		// all; either way the caller must not treat this as "no volumes".
		return nil, warnings, ErrNoRecords
	}
	return vols, warnings, nil
}
