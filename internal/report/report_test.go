package report

import (
	"testing"
	"time"

	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/pkg/models"
)

func sampleSnapshot() *models.AggregateSnapshot {
	first := time.Date(2024, 10, 10, 13, 55, 36, 0, time.UTC)
	return &models.AggregateSnapshot{
		TotalRequests: 10,
		EndpointCounts: map[string]int64{
			"/":       4,
			"/api":    3,
			"/login":  3,
			"/health": 0,
		},
		EndpointOrder: []string{"/", "/login", "/api", "/health"},
		StatusCounts:  map[int]int64{200: 7, 404: 2, 500: 1},
		ClassCounts:   map[string]int64{"2xx": 7, "4xx": 2, "5xx": 1},
		IPs: map[string]models.IPActivity{
			"1.1.1.1": {RequestCount: 6, ErrorCount: 1},
			"2.2.2.2": {RequestCount: 2, ErrorCount: 2},
			"3.3.3.3": {RequestCount: 2, ErrorCount: 0},
		},
		ParseFailures: 1,
		FirstSeen:     first,
		LastSeen:      first.Add(30 * time.Second),
	}
}

func TestBuild(t *testing.T) {
	result := Build(sampleSnapshot(), nil, config.Default())

	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if result.GeneratedAt.IsZero() {
		t.Error("expected a generation timestamp")
	}
	if result.TotalRequests != 10 || result.ParseFailures != 1 {
		t.Errorf("unexpected totals: %d/%d", result.TotalRequests, result.ParseFailures)
	}
	if result.UniqueIPCount != 3 {
		t.Errorf("expected 3 unique IPs, got %d", result.UniqueIPCount)
	}
	if result.ErrorRate != 0.3 {
		t.Errorf("expected error rate 0.3, got %v", result.ErrorRate)
	}
	if result.Findings == nil || len(result.Findings) != 0 {
		t.Error("nil findings must become an empty slice")
	}
	if result.StatusBreakdown["404"] != 2 {
		t.Errorf("expected exact status keys, got %v", result.StatusBreakdown)
	}
	if result.StatusClasses["2xx"] != 7 {
		t.Errorf("unexpected class counts: %v", result.StatusClasses)
	}
	if result.TimeRange == nil {
		t.Fatal("expected a time range")
	}
	if !result.TimeRange.Last.After(result.TimeRange.First) {
		t.Error("time range end should follow its start")
	}
}

func TestBuild_TopEndpointTieBreak(t *testing.T) {
	result := Build(sampleSnapshot(), nil, config.Default())

	// /login and /api both count 3; /login was seen first.
	want := []string{"/", "/login", "/api", "/health"}
	if len(result.TopEndpoints) != len(want) {
		t.Fatalf("expected %d endpoints, got %d", len(want), len(result.TopEndpoints))
	}
	for i, path := range want {
		if result.TopEndpoints[i].Path != path {
			t.Errorf("position %d: expected %q, got %q", i, path, result.TopEndpoints[i].Path)
		}
	}
}

func TestBuild_TopIPTieBreak(t *testing.T) {
	result := Build(sampleSnapshot(), nil, config.Default())

	want := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}
	for i, ip := range want {
		if result.TopIPs[i].IP != ip {
			t.Errorf("position %d: expected %q, got %q", i, ip, result.TopIPs[i].IP)
		}
	}
	if result.TopIPs[1].ErrorRate != 1.0 {
		t.Errorf("expected error rate 1.0 for 2.2.2.2, got %v", result.TopIPs[1].ErrorRate)
	}
}

func TestBuild_TopNTruncates(t *testing.T) {
	opts := config.Default()
	opts.TopN = 2

	result := Build(sampleSnapshot(), nil, opts)

	if len(result.TopEndpoints) != 2 {
		t.Errorf("expected 2 endpoints, got %d", len(result.TopEndpoints))
	}
	if len(result.TopIPs) != 2 {
		t.Errorf("expected 2 IPs, got %d", len(result.TopIPs))
	}
	if result.TopEndpoints[0].Path != "/" {
		t.Errorf("expected / first, got %q", result.TopEndpoints[0].Path)
	}
}

func TestBuild_EmptySnapshot(t *testing.T) {
	snap := &models.AggregateSnapshot{
		EndpointCounts: map[string]int64{},
		StatusCounts:   map[int]int64{},
		ClassCounts:    map[string]int64{},
		IPs:            map[string]models.IPActivity{},
		FailureReasons: map[models.FailureReason]int64{},
	}

	result := Build(snap, nil, config.Default())

	if result.TotalRequests != 0 || result.ErrorRate != 0 {
		t.Errorf("expected zero totals, got %+v", result)
	}
	if result.TopEndpoints == nil || len(result.TopEndpoints) != 0 {
		t.Error("expected an empty endpoint ranking")
	}
	if result.TopIPs == nil || len(result.TopIPs) != 0 {
		t.Error("expected an empty IP ranking")
	}
	if result.TimeRange != nil {
		t.Error("expected no time range without timestamps")
	}
}
