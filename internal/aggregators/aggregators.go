package aggregators

import (
	"sync"

	"github.com/hpowernl/logscope/internal/parser"
	"github.com/hpowernl/logscope/pkg/models"
)

// Aggregator folds request records into running totals. It has
// exactly one mutator during a fold; Snapshot freezes the state for
// the detection and report stages.
type Aggregator struct {
	mu             sync.Mutex
	totalRequests  int64
	statusCounts   map[int]int64
	classCounts    map[string]int64
	endpointCounts map[string]int64
	endpointSeq    map[string]int64
	nextSeq        int64
	ipStats        map[string]*ipStats
	failures       int64
	failureReasons map[models.FailureReason]int64
	firstSeen      models.TimeRange
	seenAny        bool
}

type ipStats struct {
	requestCount int64
	errorCount   int64
	endpoints    map[string]bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		statusCounts:   make(map[int]int64),
		classCounts:    make(map[string]int64),
		endpointCounts: make(map[string]int64),
		endpointSeq:    make(map[string]int64),
		ipStats:        make(map[string]*ipStats),
		failureReasons: make(map[models.FailureReason]int64),
	}
}

// Add folds one record into the aggregate. All counts are
// order-independent; only the first-seen endpoint ordering used for
// tie-breaking depends on input order.
func (a *Aggregator) Add(record *models.RequestRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRequests++
	a.statusCounts[record.Status]++
	a.classCounts[parser.StatusClass(record.Status)]++

	if _, exists := a.endpointSeq[record.Path]; !exists {
		a.endpointSeq[record.Path] = a.nextSeq
		a.nextSeq++
	}
	a.endpointCounts[record.Path]++

	ips, exists := a.ipStats[record.ClientIP]
	if !exists {
		ips = &ipStats{endpoints: make(map[string]bool)}
		a.ipStats[record.ClientIP] = ips
	}
	ips.requestCount++
	ips.endpoints[record.Path] = true
	if parser.IsErrorStatus(record.Status) {
		ips.errorCount++
	}

	if !record.Timestamp.IsZero() {
		if !a.seenAny || record.Timestamp.Before(a.firstSeen.First) {
			a.firstSeen.First = record.Timestamp
		}
		if !a.seenAny || record.Timestamp.After(a.firstSeen.Last) {
			a.firstSeen.Last = record.Timestamp
		}
		a.seenAny = true
	}
}

// AddFailure counts a rejected line. Failures stay out of every
// request statistic.
func (a *Aggregator) AddFailure(failure *models.ParseFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failures++
	a.failureReasons[failure.Reason]++
}

// Merge folds another aggregator's partial state into this one. The
// operation sums counts, unions sets, and widens the time range, so
// it is associative and commutative for everything except the
// first-seen endpoint ordering, which follows merge order.
func (a *Aggregator) Merge(other *Aggregator) {
	other.mu.Lock()
	defer other.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRequests += other.totalRequests
	a.failures += other.failures

	for status, count := range other.statusCounts {
		a.statusCounts[status] += count
	}
	for class, count := range other.classCounts {
		a.classCounts[class] += count
	}
	for reason, count := range other.failureReasons {
		a.failureReasons[reason] += count
	}

	// Adopt the other side's endpoints in its own first-seen order so
	// sequential and batched folds rank ties the same way.
	for _, path := range orderedEndpoints(other.endpointSeq) {
		if _, exists := a.endpointSeq[path]; !exists {
			a.endpointSeq[path] = a.nextSeq
			a.nextSeq++
		}
		a.endpointCounts[path] += other.endpointCounts[path]
	}

	for ip, theirs := range other.ipStats {
		ours, exists := a.ipStats[ip]
		if !exists {
			ours = &ipStats{endpoints: make(map[string]bool)}
			a.ipStats[ip] = ours
		}
		ours.requestCount += theirs.requestCount
		ours.errorCount += theirs.errorCount
		for path := range theirs.endpoints {
			ours.endpoints[path] = true
		}
	}

	if other.seenAny {
		if !a.seenAny || other.firstSeen.First.Before(a.firstSeen.First) {
			a.firstSeen.First = other.firstSeen.First
		}
		if !a.seenAny || other.firstSeen.Last.After(a.firstSeen.Last) {
			a.firstSeen.Last = other.firstSeen.Last
		}
		a.seenAny = true
	}
}

// Snapshot returns a frozen copy of the aggregate. The fold may
// continue afterwards without affecting the returned value.
func (a *Aggregator) Snapshot() *models.AggregateSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := &models.AggregateSnapshot{
		TotalRequests:  a.totalRequests,
		EndpointCounts: make(map[string]int64, len(a.endpointCounts)),
		EndpointOrder:  orderedEndpoints(a.endpointSeq),
		StatusCounts:   make(map[int]int64, len(a.statusCounts)),
		ClassCounts:    make(map[string]int64, len(a.classCounts)),
		IPs:            make(map[string]models.IPActivity, len(a.ipStats)),
		ParseFailures:  a.failures,
		FailureReasons: make(map[models.FailureReason]int64, len(a.failureReasons)),
	}

	for path, count := range a.endpointCounts {
		snap.EndpointCounts[path] = count
	}
	for status, count := range a.statusCounts {
		snap.StatusCounts[status] = count
	}
	for class, count := range a.classCounts {
		snap.ClassCounts[class] = count
	}
	for reason, count := range a.failureReasons {
		snap.FailureReasons[reason] = count
	}

	for ip, st := range a.ipStats {
		endpoints := make(map[string]bool, len(st.endpoints))
		for path := range st.endpoints {
			endpoints[path] = true
		}
		snap.IPs[ip] = models.IPActivity{
			RequestCount: st.requestCount,
			ErrorCount:   st.errorCount,
			EndpointsHit: endpoints,
		}
	}

	if a.seenAny {
		snap.FirstSeen = a.firstSeen.First
		snap.LastSeen = a.firstSeen.Last
	}

	return snap
}

// orderedEndpoints returns paths sorted by their first-seen sequence.
func orderedEndpoints(seq map[string]int64) []string {
	order := make([]string, len(seq))
	for path, i := range seq {
		order[i] = path
	}
	return order
}
