package aggregators

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/hpowernl/logscope/internal/parser"
	"github.com/hpowernl/logscope/pkg/models"
)

var sampleLines = []string{
	`127.0.0.1 - - [10/Oct/2024:13:55:36 +0000] "GET / HTTP/1.1" 200 1024`,
	`127.0.0.1 - - [10/Oct/2024:13:55:37 +0000] "GET /products HTTP/1.1" 200 2048`,
	`10.0.0.5 - - [10/Oct/2024:13:55:40 +0000] "GET /admin HTTP/1.1" 403 512`,
	`10.0.0.5 - - [10/Oct/2024:13:55:41 +0000] "GET /wp-login.php HTTP/1.1" 404 321`,
	`10.0.0.5 - - [10/Oct/2024:13:55:42 +0000] "GET /.env HTTP/1.1" 404 123`,
	`203.0.113.9 - - [10/Oct/2024:13:56:00 +0000] "POST /login HTTP/1.1" 500 900`,
	`203.0.113.9 - - [10/Oct/2024:13:56:10 +0000] "GET /api/orders HTTP/1.1" 200 777`,
	`not a log line at all`,
}

func foldLines(t *testing.T, lines []string) *Aggregator {
	t.Helper()

	p := parser.NewLineParser()
	agg := NewAggregator()
	for _, line := range lines {
		record, failure := p.ParseLine(line)
		if failure != nil {
			agg.AddFailure(failure)
			continue
		}
		agg.Add(record)
	}
	return agg
}

func TestAggregator_Snapshot(t *testing.T) {
	snap := foldLines(t, sampleLines).Snapshot()

	if snap.TotalRequests != 7 {
		t.Errorf("expected 7 requests, got %d", snap.TotalRequests)
	}
	if snap.ParseFailures != 1 {
		t.Errorf("expected 1 parse failure, got %d", snap.ParseFailures)
	}
	if snap.FailureReasons[models.FailureUnsupportedFormat] != 1 {
		t.Errorf("unexpected failure reasons: %v", snap.FailureReasons)
	}
	if len(snap.IPs) != 3 {
		t.Errorf("expected 3 unique IPs, got %d", len(snap.IPs))
	}

	if snap.StatusCounts[404] != 2 {
		t.Errorf("expected two 404s, got %d", snap.StatusCounts[404])
	}
	if snap.ClassCounts["4xx"] != 3 || snap.ClassCounts["5xx"] != 1 {
		t.Errorf("unexpected class counts: %v", snap.ClassCounts)
	}

	attacker := snap.IPs["10.0.0.5"]
	if attacker.RequestCount != 3 || attacker.ErrorCount != 3 {
		t.Errorf("unexpected attacker activity: %+v", attacker)
	}
	if !attacker.EndpointsHit["/admin"] {
		t.Error("expected /admin in attacker endpoints")
	}

	if snap.FirstSeen.IsZero() || snap.LastSeen.Before(snap.FirstSeen) {
		t.Errorf("unexpected time range: %v .. %v", snap.FirstSeen, snap.LastSeen)
	}
}

func TestAggregator_ClassSumsMatchTotal(t *testing.T) {
	snap := foldLines(t, sampleLines).Snapshot()

	var classSum int64
	for _, count := range snap.ClassCounts {
		classSum += count
	}
	if classSum != snap.TotalRequests {
		t.Errorf("class counts sum to %d, want %d", classSum, snap.TotalRequests)
	}
}

func TestAggregator_OrderIndependence(t *testing.T) {
	base := foldLines(t, sampleLines).Snapshot()

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]string, len(sampleLines))
		copy(shuffled, sampleLines)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		snap := foldLines(t, shuffled).Snapshot()

		if snap.TotalRequests != base.TotalRequests {
			t.Fatalf("permutation changed total: %d vs %d", snap.TotalRequests, base.TotalRequests)
		}
		if !reflect.DeepEqual(snap.EndpointCounts, base.EndpointCounts) {
			t.Fatalf("permutation changed endpoint counts: %v vs %v", snap.EndpointCounts, base.EndpointCounts)
		}
		if !reflect.DeepEqual(snap.StatusCounts, base.StatusCounts) {
			t.Fatalf("permutation changed status counts: %v vs %v", snap.StatusCounts, base.StatusCounts)
		}
		if !reflect.DeepEqual(snap.ClassCounts, base.ClassCounts) {
			t.Fatalf("permutation changed class counts: %v vs %v", snap.ClassCounts, base.ClassCounts)
		}
		if !reflect.DeepEqual(snap.IPs, base.IPs) {
			t.Fatalf("permutation changed per-IP stats")
		}
		if !snap.FirstSeen.Equal(base.FirstSeen) || !snap.LastSeen.Equal(base.LastSeen) {
			t.Fatalf("permutation changed time range")
		}
	}
}

func TestAggregator_Merge(t *testing.T) {
	t.Run("merge equals sequential fold", func(t *testing.T) {
		sequential := foldLines(t, sampleLines).Snapshot()

		left := foldLines(t, sampleLines[:4])
		right := foldLines(t, sampleLines[4:])
		left.Merge(right)
		merged := left.Snapshot()

		if merged.TotalRequests != sequential.TotalRequests {
			t.Errorf("merged total %d, want %d", merged.TotalRequests, sequential.TotalRequests)
		}
		if merged.ParseFailures != sequential.ParseFailures {
			t.Errorf("merged failures %d, want %d", merged.ParseFailures, sequential.ParseFailures)
		}
		if !reflect.DeepEqual(merged.EndpointCounts, sequential.EndpointCounts) {
			t.Errorf("merged endpoint counts differ: %v vs %v", merged.EndpointCounts, sequential.EndpointCounts)
		}
		if !reflect.DeepEqual(merged.IPs, sequential.IPs) {
			t.Errorf("merged per-IP stats differ")
		}
		if !reflect.DeepEqual(merged.EndpointOrder, sequential.EndpointOrder) {
			t.Errorf("merged first-seen order differs: %v vs %v", merged.EndpointOrder, sequential.EndpointOrder)
		}
		if !merged.FirstSeen.Equal(sequential.FirstSeen) || !merged.LastSeen.Equal(sequential.LastSeen) {
			t.Errorf("merged time range differs")
		}
	})

	t.Run("counts are commutative", func(t *testing.T) {
		ab := foldLines(t, sampleLines[:4])
		ab.Merge(foldLines(t, sampleLines[4:]))

		ba := foldLines(t, sampleLines[4:])
		ba.Merge(foldLines(t, sampleLines[:4]))

		snapAB, snapBA := ab.Snapshot(), ba.Snapshot()
		if !reflect.DeepEqual(snapAB.EndpointCounts, snapBA.EndpointCounts) {
			t.Error("endpoint counts not commutative")
		}
		if !reflect.DeepEqual(snapAB.IPs, snapBA.IPs) {
			t.Error("per-IP stats not commutative")
		}
		if !snapAB.FirstSeen.Equal(snapBA.FirstSeen) || !snapAB.LastSeen.Equal(snapBA.LastSeen) {
			t.Error("time range not commutative")
		}
	})

	t.Run("merge into empty aggregator", func(t *testing.T) {
		empty := NewAggregator()
		empty.Merge(foldLines(t, sampleLines))
		snap := empty.Snapshot()

		if snap.TotalRequests != 7 {
			t.Errorf("expected 7 requests after merge, got %d", snap.TotalRequests)
		}
	})
}

func TestAggregator_SnapshotIsFrozen(t *testing.T) {
	agg := foldLines(t, sampleLines[:2])
	snap := agg.Snapshot()

	p := parser.NewLineParser()
	record, _ := p.ParseLine(sampleLines[2])
	agg.Add(record)

	if snap.TotalRequests != 2 {
		t.Errorf("snapshot changed after later Add: %d", snap.TotalRequests)
	}
	if len(snap.IPs) != 1 {
		t.Errorf("snapshot IP set changed after later Add")
	}
}

func TestAggregator_Empty(t *testing.T) {
	snap := NewAggregator().Snapshot()

	if snap.TotalRequests != 0 || snap.ParseFailures != 0 {
		t.Errorf("expected zero totals, got %d/%d", snap.TotalRequests, snap.ParseFailures)
	}
	if len(snap.IPs) != 0 || len(snap.EndpointCounts) != 0 {
		t.Error("expected empty maps")
	}
	if !snap.FirstSeen.IsZero() {
		t.Error("expected zero time range")
	}
}
