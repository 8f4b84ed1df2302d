package analysis

import (
	"fmt"
	"sync"

	"github.com/hpowernl/logscope/internal/aggregators"
	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/internal/filters"
	"github.com/hpowernl/logscope/internal/parser"
	"github.com/hpowernl/logscope/internal/report"
	"github.com/hpowernl/logscope/pkg/models"
)

// Run executes the full pipeline over a stream of raw lines: parse,
// fold, detect, build. The configuration is validated before any line
// is touched; a bad line degrades to a counted failure and never
// aborts the run.
func Run(lines <-chan string, opts config.Options, filter *filters.Filter) (*models.AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := parser.NewLineParser()
	agg := aggregators.NewAggregator()
	var totalLines int64

	for line := range lines {
		totalLines++
		record, failure := p.ParseLine(line)
		if failure != nil {
			agg.AddFailure(failure)
			continue
		}
		if filter != nil && !filter.Matches(record) {
			continue
		}
		agg.Add(record)
	}

	snap := agg.Snapshot()
	findings := Detect(snap, opts)
	result := report.Build(snap, findings, opts)
	result.TotalLines = totalLines
	return result, nil
}

// RunParallel analyzes a fixed slice of lines with several workers.
// Parsing is pure, so lines are split into contiguous batches parsed
// independently; partial aggregates are merged in batch order to keep
// the first-seen endpoint ranking identical to a sequential run.
func RunParallel(lines []string, workers int, opts config.Options, filter *filters.Filter) (*models.AnalysisResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if workers < 1 {
		workers = 1
	}

	batchSize := (len(lines) + workers - 1) / workers
	if batchSize == 0 {
		batchSize = 1
	}

	partials := make([]*aggregators.Aggregator, 0, workers)
	var wg sync.WaitGroup

	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}

		agg := aggregators.NewAggregator()
		partials = append(partials, agg)

		wg.Add(1)
		go func(batch []string, agg *aggregators.Aggregator) {
			defer wg.Done()
			p := parser.NewLineParser()
			for _, line := range batch {
				record, failure := p.ParseLine(line)
				if failure != nil {
					agg.AddFailure(failure)
					continue
				}
				if filter != nil && !filter.Matches(record) {
					continue
				}
				agg.Add(record)
			}
		}(lines[start:end], agg)
	}

	wg.Wait()

	merged := aggregators.NewAggregator()
	for _, partial := range partials {
		merged.Merge(partial)
	}

	snap := merged.Snapshot()
	findings := Detect(snap, opts)
	result := report.Build(snap, findings, opts)
	result.TotalLines = int64(len(lines))
	return result, nil
}
