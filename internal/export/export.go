package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hpowernl/logscope/pkg/models"
)

// DataExporter writes analysis results to files.
type DataExporter struct{}

// NewDataExporter creates a new data exporter.
func NewDataExporter() *DataExporter {
	return &DataExporter{}
}

// ExportToJSON writes the full analysis result as indented JSON.
func (e *DataExporter) ExportToJSON(result *models.AnalysisResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// ExportToCSV writes a metric/value summary to CSV format.
func (e *DataExporter) ExportToCSV(result *models.AnalysisResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Metric", "Value"}
	if err := writer.Write(header); err != nil {
		return err
	}

	records := [][]string{
		{"Total Lines", fmt.Sprintf("%d", result.TotalLines)},
		{"Total Requests", fmt.Sprintf("%d", result.TotalRequests)},
		{"Parse Failures", fmt.Sprintf("%d", result.ParseFailures)},
		{"Unique IPs", fmt.Sprintf("%d", result.UniqueIPCount)},
		{"Error Rate", fmt.Sprintf("%.2f%%", result.ErrorRate*100)},
		{"Findings", fmt.Sprintf("%d", len(result.Findings))},
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, ep := range result.TopEndpoints {
		record := []string{"Endpoint " + ep.Path, fmt.Sprintf("%d", ep.Count)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// CreateReportSummary writes a plain-text report.
func CreateReportSummary(result *models.AnalysisResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(file, "          ACCESS LOG ANALYSIS REPORT           \n")
	fmt.Fprintf(file, "═══════════════════════════════════════════════\n\n")

	fmt.Fprintf(file, "SUMMARY\n")
	fmt.Fprintf(file, "─────────────────────────────────────────────\n")
	fmt.Fprintf(file, "Total Lines:         %d\n", result.TotalLines)
	fmt.Fprintf(file, "Parsed Requests:     %d\n", result.TotalRequests)
	fmt.Fprintf(file, "Parse Failures:      %d\n", result.ParseFailures)
	fmt.Fprintf(file, "Unique IPs:          %d\n", result.UniqueIPCount)
	fmt.Fprintf(file, "Error Rate:          %.2f%%\n\n", result.ErrorRate*100)

	if result.TimeRange != nil {
		fmt.Fprintf(file, "Time Range:          %s -> %s\n\n",
			result.TimeRange.First.Format("2006-01-02 15:04:05"),
			result.TimeRange.Last.Format("2006-01-02 15:04:05"))
	}

	if len(result.TopEndpoints) > 0 {
		fmt.Fprintf(file, "TOP ENDPOINTS\n")
		fmt.Fprintf(file, "─────────────────────────────────────────────\n")
		for i, ep := range result.TopEndpoints {
			fmt.Fprintf(file, "%2d. %s (%d requests)\n", i+1, ep.Path, ep.Count)
		}
		fmt.Fprintf(file, "\n")
	}

	if len(result.StatusBreakdown) > 0 {
		fmt.Fprintf(file, "STATUS CODE DISTRIBUTION\n")
		fmt.Fprintf(file, "─────────────────────────────────────────────\n")
		for status, count := range result.StatusBreakdown {
			pct := float64(count) / float64(result.TotalRequests) * 100
			fmt.Fprintf(file, "%s: %d (%.1f%%)\n", status, count, pct)
		}
		fmt.Fprintf(file, "\n")
	}

	if len(result.Findings) > 0 {
		fmt.Fprintf(file, "FINDINGS\n")
		fmt.Fprintf(file, "─────────────────────────────────────────────\n")
		for _, finding := range result.Findings {
			fmt.Fprintf(file, "[%s] %s (%s): %s\n",
				finding.Severity, finding.Kind, finding.Subject, finding.Reason)
		}
	}

	return nil
}
