package afs

// TargetOutcome is the terminal collection state for a single fileserver
// target within one pass.
type TargetOutcome int

const (
	OutcomeSucceeded TargetOutcome = iota
	OutcomePartialFailure
	OutcomeToolError
	OutcomeTimedOut
	OutcomeCancelled
)

// String returns the outcome name.
func (o TargetOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomePartialFailure:
		return "partial-failure"
	case OutcomeToolError:
		return "tool-error"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OK reports whether the target was collected without failures.
func (o TargetOutcome) OK() bool {
	return o == OutcomeSucceeded
}

// Sections records which stat groups were actually collected for a target.
// Reporting sinks use it to tell "never collected" apart from a legitimate
// zero.
type Sections struct {
	Status     bool
	Threads    bool
	Partitions bool
	Volumes    bool
}

// TargetResult is the outcome of collecting one fileserver target.
type TargetResult struct {
	Host     string
	Outcome  TargetOutcome
	Sections Sections
	Errs     []string
}

// CollectionResult is one snapshot of the cell plus the per-target
// outcomes, the unit handed to a reporting sink. Sinks treat it as
// read-only.
type CollectionResult struct {
	Cell     *Cell
	Targets  []TargetResult
	Warnings []Warning
}

// OK reports whether every target was collected cleanly. The CLI uses it
// to pick the process exit code.
func (r CollectionResult) OK() bool {
	for _, t := range r.Targets {
		if !t.Outcome.OK() {
			return false
		}
	}
	return true
}

// Target returns the result for host, or nil if the host was not part of
// this pass.
func (r CollectionResult) Target(host string) *TargetResult {
	for i := range r.Targets {
		if r.Targets[i].Host == host {
			return &r.Targets[i]
		}
	}
	return nil
}
