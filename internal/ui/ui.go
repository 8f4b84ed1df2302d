package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/pkg/models"
)

// ConsoleUI renders analysis results to the terminal.
type ConsoleUI struct {
	writer io.Writer
	colors bool
}

// NewConsoleUI creates a new console UI.
func NewConsoleUI(enableColors bool) *ConsoleUI {
	return &ConsoleUI{
		writer: os.Stdout,
		colors: enableColors,
	}
}

// SetWriter redirects output, mainly for tests.
func (u *ConsoleUI) SetWriter(w io.Writer) {
	u.writer = w
}

// DisplayReport renders the full analysis result.
func (u *ConsoleUI) DisplayReport(result *models.AnalysisResult) {
	u.printHeader("📊 ACCESS LOG ANALYSIS")

	u.printSection("Summary")
	u.printKeyValue("Total Lines", fmt.Sprintf("%d", result.TotalLines))
	u.printKeyValue("Parsed Requests", fmt.Sprintf("%d", result.TotalRequests))
	u.printKeyValue("Parse Failures", fmt.Sprintf("%d", result.ParseFailures))
	u.printKeyValue("Unique IPs", fmt.Sprintf("%d", result.UniqueIPCount))
	u.printKeyValue("Error Rate (4xx/5xx)", fmt.Sprintf("%.2f%%", result.ErrorRate*100))

	if result.TimeRange != nil {
		u.printKeyValue("Time Range", fmt.Sprintf("%s -> %s",
			result.TimeRange.First.Format("2006-01-02 15:04:05"),
			result.TimeRange.Last.Format("2006-01-02 15:04:05")))
	}

	if len(result.TopEndpoints) > 0 {
		u.printSection("Top Endpoints")
		u.printEndpointsTable(result.TopEndpoints)
	}

	if len(result.TopIPs) > 0 {
		u.printSection("Top IPs")
		u.printIPsTable(result.TopIPs)
	}

	if len(result.StatusBreakdown) > 0 {
		u.printSection("Status Codes")
		u.printStatusTable(result)
	}

	u.printSection("Findings")
	if len(result.Findings) == 0 {
		fmt.Fprintln(u.writer, "No anomalies detected.")
	} else {
		u.printFindingsTable(result.Findings)
	}
}

// Print helper methods
func (u *ConsoleUI) printHeader(title string) {
	if u.colors {
		color.New(color.FgCyan, color.Bold).Fprintf(u.writer, "\n%s\n", title)
		color.New(color.FgCyan).Fprintf(u.writer, "%s\n\n", strings.Repeat("═", len(title)))
	} else {
		fmt.Fprintf(u.writer, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	}
}

func (u *ConsoleUI) printSection(title string) {
	if u.colors {
		color.New(color.FgYellow, color.Bold).Fprintf(u.writer, "\n%s\n", title)
		color.New(color.FgYellow).Fprintf(u.writer, "%s\n", strings.Repeat("─", len(title)))
	} else {
		fmt.Fprintf(u.writer, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	}
}

func (u *ConsoleUI) printKeyValue(key, value string) {
	if u.colors {
		color.New(color.FgWhite, color.Bold).Fprintf(u.writer, "%-25s", key+":")
		color.New(color.FgGreen).Fprintf(u.writer, "%s\n", value)
	} else {
		fmt.Fprintf(u.writer, "%-25s %s\n", key+":", value)
	}
}

func (u *ConsoleUI) printEndpointsTable(endpoints []models.EndpointCount) {
	table := tablewriter.NewWriter(u.writer)
	table.SetHeader([]string{"Path", "Requests"})

	for _, ep := range endpoints {
		table.Append([]string{
			truncate(ep.Path, 60),
			fmt.Sprintf("%d", ep.Count),
		})
	}

	table.Render()
}

func (u *ConsoleUI) printIPsTable(ips []models.IPCount) {
	table := tablewriter.NewWriter(u.writer)
	table.SetHeader([]string{"IP", "Requests", "Errors", "Error Rate"})

	for _, ip := range ips {
		table.Append([]string{
			ip.IP,
			fmt.Sprintf("%d", ip.Count),
			fmt.Sprintf("%d", ip.ErrorCount),
			fmt.Sprintf("%.1f%%", ip.ErrorRate*100),
		})
	}

	table.Render()
}

func (u *ConsoleUI) printStatusTable(result *models.AnalysisResult) {
	table := tablewriter.NewWriter(u.writer)
	table.SetHeader([]string{"Status", "Count"})

	codes := make([]string, 0, len(result.StatusBreakdown))
	for code := range result.StatusBreakdown {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		table.Append([]string{code, fmt.Sprintf("%d", result.StatusBreakdown[code])})
	}

	table.Render()
}

func (u *ConsoleUI) printFindingsTable(findings []models.Finding) {
	table := tablewriter.NewWriter(u.writer)
	table.SetHeader([]string{"Kind", "Subject", "Severity", "Reason"})

	for _, finding := range findings {
		table.Append([]string{
			string(finding.Kind),
			finding.Subject,
			u.colorizeSeverity(finding.Severity),
			truncate(finding.Reason, 70),
		})
	}

	table.Render()
}

func (u *ConsoleUI) colorizeSeverity(severity string) string {
	if !u.colors {
		return severity
	}
	return color.New(severityColor(severity)).Sprint(severity)
}

func severityColor(severity string) color.Attribute {
	switch severity {
	case config.SeverityCritical:
		return color.FgRed
	case config.SeverityHigh:
		return color.FgYellow
	case config.SeverityMedium:
		return color.FgBlue
	default:
		return color.FgWhite
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
