package models

import (
	"time"
)

// FailureReason classifies why a log line could not be parsed.
type FailureReason string

const (
	// FailureMalformed marks lines that match the combined log shape
	// but carry an invalid field, and blank lines.
	FailureMalformed FailureReason = "malformed"

	// FailureUnsupportedFormat marks lines that do not match the
	// combined log shape at all.
	FailureUnsupportedFormat FailureReason = "unsupported-format"
)

// RequestRecord is one successfully parsed access-log line.
type RequestRecord struct {
	ClientIP     string    `json:"client_ip"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
	TimestampRaw string    `json:"timestamp_raw"`
	Method       string    `json:"method"`
	Path         string    `json:"path"`
	Status       int       `json:"status"`
	BytesSent    int64     `json:"bytes_sent"`
}

// ParseFailure is one rejected line plus the reason it was rejected.
// Failures are counted but never contribute to request statistics.
type ParseFailure struct {
	Line   string        `json:"line"`
	Reason FailureReason `json:"reason"`
}

// IPActivity holds per-client aggregate counters.
type IPActivity struct {
	RequestCount int64           `json:"request_count"`
	ErrorCount   int64           `json:"error_count"`
	EndpointsHit map[string]bool `json:"-"`
}

// ErrorRate returns the fraction of this client's requests that ended
// in a 4xx or 5xx status.
func (a IPActivity) ErrorRate() float64 {
	if a.RequestCount == 0 {
		return 0
	}
	return float64(a.ErrorCount) / float64(a.RequestCount)
}

// AggregateSnapshot is the frozen result of one fold. It is handed
// read-only to the anomaly detector and report builder; nothing
// mutates it after the aggregator produces it.
type AggregateSnapshot struct {
	TotalRequests  int64
	EndpointCounts map[string]int64
	// EndpointOrder lists endpoints in first-seen order and is the
	// tie-breaker for equal counts.
	EndpointOrder  []string
	StatusCounts   map[int]int64
	ClassCounts    map[string]int64
	IPs            map[string]IPActivity
	ParseFailures  int64
	FailureReasons map[FailureReason]int64
	FirstSeen      time.Time
	LastSeen       time.Time
}

// ErrorRequests returns the combined 4xx and 5xx count.
func (s *AggregateSnapshot) ErrorRequests() int64 {
	return s.ClassCounts["4xx"] + s.ClassCounts["5xx"]
}

// ErrorRate returns the global 4xx+5xx fraction, zero when empty.
func (s *AggregateSnapshot) ErrorRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.ErrorRequests()) / float64(s.TotalRequests)
}

// FindingKind identifies the condition a Finding flags.
type FindingKind string

const (
	FindingHighErrorRate FindingKind = "high_error_rate"
	FindingSuspiciousIP  FindingKind = "suspicious_ip"
)

// SubjectGlobal is the Finding subject for run-wide conditions.
const SubjectGlobal = "global"

// Evidence carries the numbers that triggered a Finding.
type Evidence struct {
	Rate          float64 `json:"rate,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
	RequestCount  int64   `json:"request_count,omitempty"`
	ErrorCount    int64   `json:"error_count,omitempty"`
	MeanPerIP     float64 `json:"mean_per_ip,omitempty"`
	SensitiveHits int64   `json:"sensitive_hits,omitempty"`
}

// Finding is a flagged condition. Findings are derived from a finished
// snapshot and never mutated afterwards.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Subject  string      `json:"subject"`
	Severity string      `json:"severity"`
	Reason   string      `json:"reason"`
	Evidence Evidence    `json:"evidence"`
}

// EndpointCount is one entry of the top-endpoints ranking.
type EndpointCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// IPCount is one entry of the top-IPs ranking.
type IPCount struct {
	IP         string  `json:"ip"`
	Count      int64   `json:"count"`
	ErrorCount int64   `json:"error_count"`
	ErrorRate  float64 `json:"error_rate"`
}

// TimeRange is the span covered by records that carried a parseable
// timestamp.
type TimeRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// AnalysisResult is the immutable contract handed to rendering and
// export collaborators.
type AnalysisResult struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	TotalLines      int64            `json:"total_lines"`
	TotalRequests   int64            `json:"total_requests"`
	UniqueIPCount   int              `json:"unique_ip_count"`
	ErrorRate       float64          `json:"error_rate_4xx_5xx"`
	TopEndpoints    []EndpointCount  `json:"top_endpoints"`
	TopIPs          []IPCount        `json:"top_ips"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
	StatusClasses   map[string]int64 `json:"status_classes"`
	Findings        []Finding        `json:"findings"`
	ParseFailures   int64            `json:"parse_failures"`
	TimeRange       *TimeRange       `json:"time_range,omitempty"`
}
