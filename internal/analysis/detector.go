package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/pkg/models"
)

// Detect derives findings from a finished aggregate. It is a pure
// function over the snapshot: the global error-rate check first, then
// per-IP checks for volume, error rate, and sensitive-endpoint hits.
// Output order is deterministic: the global finding (if any), then
// per-IP findings by descending request count, ties broken by IP
// string ascending.
func Detect(snap *models.AggregateSnapshot, opts config.Options) []models.Finding {
	if snap.TotalRequests == 0 {
		return nil
	}

	findings := make([]models.Finding, 0)

	if global := detectHighErrorRate(snap, opts); global != nil {
		findings = append(findings, *global)
	}

	meanPerIP := meanRequestsPerIP(snap)

	ipFindings := make([]models.Finding, 0)
	for ip, activity := range snap.IPs {
		if finding := detectSuspiciousIP(ip, activity, meanPerIP, opts); finding != nil {
			ipFindings = append(ipFindings, *finding)
		}
	}

	sort.Slice(ipFindings, func(i, j int) bool {
		if ipFindings[i].Evidence.RequestCount != ipFindings[j].Evidence.RequestCount {
			return ipFindings[i].Evidence.RequestCount > ipFindings[j].Evidence.RequestCount
		}
		return ipFindings[i].Subject < ipFindings[j].Subject
	})

	return append(findings, ipFindings...)
}

// detectHighErrorRate flags the run when the global 4xx+5xx fraction
// strictly exceeds the threshold.
func detectHighErrorRate(snap *models.AggregateSnapshot, opts config.Options) *models.Finding {
	rate := snap.ErrorRate()
	if rate <= opts.ErrorThreshold {
		return nil
	}

	return &models.Finding{
		Kind:     models.FindingHighErrorRate,
		Subject:  models.SubjectGlobal,
		Severity: errorRateSeverity(rate, opts.ErrorThreshold),
		Reason: fmt.Sprintf("error rate %.1f%% exceeds threshold %.1f%%",
			rate*100, opts.ErrorThreshold*100),
		Evidence: models.Evidence{
			Rate:         rate,
			Threshold:    opts.ErrorThreshold,
			RequestCount: snap.TotalRequests,
			ErrorCount:   snap.ErrorRequests(),
		},
	}
}

// detectSuspiciousIP flags a client that triggers at least one of the
// volume, error-rate, or sensitive-endpoint conditions. The reason
// lists every condition that fired, not just the first.
func detectSuspiciousIP(ip string, activity models.IPActivity, meanPerIP float64, opts config.Options) *models.Finding {
	reasons := make([]string, 0, 3)

	volumeLimit := meanPerIP * opts.SuspiciousVolumeFactor
	if float64(activity.RequestCount) > volumeLimit {
		reasons = append(reasons, fmt.Sprintf(
			"request volume %d exceeds %.1fx the per-IP mean of %.1f",
			activity.RequestCount, opts.SuspiciousVolumeFactor, meanPerIP))
	}

	if activity.ErrorRate() > opts.SuspiciousErrorRate {
		reasons = append(reasons, fmt.Sprintf(
			"error rate %.1f%% exceeds %.1f%%",
			activity.ErrorRate()*100, opts.SuspiciousErrorRate*100))
	}

	sensitiveHits, hitPaths := countSensitiveHits(activity.EndpointsHit, opts.SensitiveEndpoints)
	if sensitiveHits > 0 {
		reasons = append(reasons, fmt.Sprintf(
			"accessed sensitive endpoints (%s)", strings.Join(hitPaths, ", ")))
	}

	if len(reasons) == 0 {
		return nil
	}

	return &models.Finding{
		Kind:     models.FindingSuspiciousIP,
		Subject:  ip,
		Severity: suspicionSeverity(len(reasons)),
		Reason:   strings.Join(reasons, "; "),
		Evidence: models.Evidence{
			RequestCount:  activity.RequestCount,
			ErrorCount:    activity.ErrorCount,
			Rate:          activity.ErrorRate(),
			MeanPerIP:     meanPerIP,
			SensitiveHits: sensitiveHits,
		},
	}
}

// meanRequestsPerIP computes the mean request count across all
// clients in the snapshot.
func meanRequestsPerIP(snap *models.AggregateSnapshot) float64 {
	counts := make([]float64, 0, len(snap.IPs))
	for _, activity := range snap.IPs {
		counts = append(counts, float64(activity.RequestCount))
	}

	mean, err := stats.Mean(counts)
	if err != nil {
		return 0
	}
	return mean
}

// countSensitiveHits returns how many of the client's endpoints match
// a sensitive substring, plus the distinct matching paths in sorted
// order for a stable reason string.
func countSensitiveHits(endpoints map[string]bool, sensitive []string) (int64, []string) {
	var hits int64
	matched := make([]string, 0)

	for path := range endpoints {
		for _, snippet := range sensitive {
			if strings.Contains(path, snippet) {
				hits++
				matched = append(matched, path)
				break
			}
		}
	}

	sort.Strings(matched)
	return hits, matched
}

// errorRateSeverity scales the global finding severity by how far the
// rate sits above the threshold.
func errorRateSeverity(rate, threshold float64) string {
	excess := rate / threshold
	switch {
	case excess >= 3:
		return config.SeverityCritical
	case excess >= 2:
		return config.SeverityHigh
	case excess >= 1.5:
		return config.SeverityMedium
	default:
		return config.SeverityLow
	}
}

// suspicionSeverity scales by how many conditions fired at once.
func suspicionSeverity(conditions int) string {
	switch {
	case conditions >= 3:
		return config.SeverityCritical
	case conditions == 2:
		return config.SeverityHigh
	default:
		return config.SeverityMedium
	}
}
