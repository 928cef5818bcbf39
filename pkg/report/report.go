// Package report turns a collection snapshot into external output: a
// styled terminal table or gauges pushed to a statsd collector.
package report

import "github.com/openstack-infra/afsmon/pkg/afs"

// Sink consumes one completed collection snapshot. Implementations must
// not mutate the result.
type Sink interface {
	Report(result afs.CollectionResult) error
}
