package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/pkg/models"
)

// Build composes the final analysis result from a frozen aggregate
// and the detector's findings. It selects the top-N endpoints and
// shapes the status breakdown for presentation; it performs no new
// analysis and never fails on a well-formed snapshot.
func Build(snap *models.AggregateSnapshot, findings []models.Finding, opts config.Options) *models.AnalysisResult {
	result := &models.AnalysisResult{
		RunID:           uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		TotalRequests:   snap.TotalRequests,
		UniqueIPCount:   len(snap.IPs),
		ErrorRate:       snap.ErrorRate(),
		TopEndpoints:    topEndpoints(snap, opts.TopN),
		TopIPs:          topIPs(snap, opts.TopN),
		StatusBreakdown: statusBreakdown(snap),
		StatusClasses:   statusClasses(snap),
		Findings:        findings,
		ParseFailures:   snap.ParseFailures,
	}

	if findings == nil {
		result.Findings = []models.Finding{}
	}

	if !snap.FirstSeen.IsZero() {
		result.TimeRange = &models.TimeRange{
			First: snap.FirstSeen,
			Last:  snap.LastSeen,
		}
	}

	return result
}

// topEndpoints ranks endpoints by count descending; equal counts keep
// first-seen order.
func topEndpoints(snap *models.AggregateSnapshot, n int) []models.EndpointCount {
	firstSeen := make(map[string]int, len(snap.EndpointOrder))
	for i, path := range snap.EndpointOrder {
		firstSeen[path] = i
	}

	ranked := make([]models.EndpointCount, 0, len(snap.EndpointCounts))
	for path, count := range snap.EndpointCounts {
		ranked = append(ranked, models.EndpointCount{Path: path, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Path] < firstSeen[ranked[j].Path]
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// topIPs ranks clients by request count descending, ties by IP string
// ascending to match the finding order.
func topIPs(snap *models.AggregateSnapshot, n int) []models.IPCount {
	ranked := make([]models.IPCount, 0, len(snap.IPs))
	for ip, activity := range snap.IPs {
		ranked = append(ranked, models.IPCount{
			IP:         ip,
			Count:      activity.RequestCount,
			ErrorCount: activity.ErrorCount,
			ErrorRate:  activity.ErrorRate(),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].IP < ranked[j].IP
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func statusBreakdown(snap *models.AggregateSnapshot) map[string]int64 {
	breakdown := make(map[string]int64, len(snap.StatusCounts))
	for status, count := range snap.StatusCounts {
		breakdown[strconv.Itoa(status)] = count
	}
	return breakdown
}

func statusClasses(snap *models.AggregateSnapshot) map[string]int64 {
	classes := make(map[string]int64, len(snap.ClassCounts))
	for class, count := range snap.ClassCounts {
		classes[class] = count
	}
	return classes
}
