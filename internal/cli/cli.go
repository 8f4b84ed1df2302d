package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hpowernl/logscope/internal/analysis"
	"github.com/hpowernl/logscope/internal/config"
	"github.com/hpowernl/logscope/internal/export"
	"github.com/hpowernl/logscope/internal/filters"
	"github.com/hpowernl/logscope/internal/logreader"
	"github.com/hpowernl/logscope/internal/ui"
	"github.com/hpowernl/logscope/pkg/models"
)

var (
	// Global flags
	logFile      string
	useDemo      bool
	follow       bool
	configFile   string
	exportFormat string
	exportFile   string
	noColor      bool

	// Analysis options
	topN                int
	errorThreshold      float64
	sensitiveEndpoints  []string
	volumeFactor        float64
	suspiciousErrorRate float64
	workers             int

	// Filter flags
	filterMethods  []string
	filterStatuses []int
	filterPaths    []string
	filterIPs      []string
)

// RootCmd is the root command
var RootCmd = &cobra.Command{
	Use:   "logscope",
	Short: "Access log analyzer - traffic statistics and anomaly detection",
	Long: `Logscope analyzes Apache/Nginx combined-format access logs.

Features include:
  - Traffic statistics (endpoints, status codes, per-IP activity)
  - Global error-rate flagging
  - Suspicious IP detection (volume, error rate, sensitive endpoints)
  - JSON, CSV and text export`,
	Version: "1.0.0",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&logFile, "file", "f", "", "Log file to analyze ('-' or empty reads stdin)")
	RootCmd.PersistentFlags().BoolVar(&useDemo, "demo", false, "Run on built-in demo log lines")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	RootCmd.PersistentFlags().StringVar(&exportFormat, "export", "", "Export format (csv, json, text)")
	RootCmd.PersistentFlags().StringVarP(&exportFile, "output", "o", "", "Output file for export (default report.<format>)")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	RootCmd.AddCommand(analyzeCmd)
}

// Execute runs the CLI
func Execute() error {
	return RootCmd.Execute()
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze access logs",
	Long:  "Parse access-log lines, aggregate traffic statistics, and flag anomalous client behavior",
	RunE:  runAnalyze,
}

func init() {
	defaults := config.Default()
	analyzeCmd.Flags().IntVar(&workers, "workers", 1, "Parse workers for batched analysis (file input only)")
	analyzeCmd.Flags().BoolVar(&follow, "follow", false, "Keep reading lines appended to the log file")
	analyzeCmd.Flags().Float64Var(&errorThreshold, "error-threshold", defaults.ErrorThreshold, "Flag a high error rate above this 4xx+5xx fraction")
	analyzeCmd.Flags().Float64Var(&volumeFactor, "volume-factor", defaults.SuspiciousVolumeFactor, "Flag IPs above this multiple of the per-IP mean request count")
	analyzeCmd.Flags().Float64Var(&suspiciousErrorRate, "suspicious-error-rate", defaults.SuspiciousErrorRate, "Flag IPs above this per-IP error rate")
	analyzeCmd.Flags().StringSliceVar(&sensitiveEndpoints, "sensitive", defaults.SensitiveEndpoints, "Sensitive endpoint substrings")
	analyzeCmd.Flags().IntVar(&topN, "top", defaults.TopN, "Top N endpoints and IPs to report")

	analyzeCmd.Flags().StringSliceVar(&filterMethods, "method", nil, "Only count these HTTP methods")
	analyzeCmd.Flags().IntSliceVar(&filterStatuses, "status", nil, "Only count these status codes")
	analyzeCmd.Flags().StringSliceVar(&filterPaths, "path-contains", nil, "Only count paths containing one of these substrings")
	analyzeCmd.Flags().StringSliceVar(&filterIPs, "ip", nil, "Only count these client IPs")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	filter := filters.New(filterMethods, filterStatuses, filterPaths, filterIPs)
	if filter.IsEmpty() {
		filter = nil
	}

	result, err := analyze(cmd.Context(), opts, filter)
	if err != nil {
		return err
	}

	consoleUI := ui.NewConsoleUI(!noColor)
	consoleUI.DisplayReport(result)

	return exportResult(result)
}

// buildOptions merges defaults, the optional YAML file, and explicit
// flag overrides, then validates the result before any parsing starts.
func buildOptions(cmd *cobra.Command) (config.Options, error) {
	opts := config.Default()

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("top") {
		opts.TopN = topN
	}
	if flags.Changed("error-threshold") {
		opts.ErrorThreshold = errorThreshold
	}
	if flags.Changed("volume-factor") {
		opts.SuspiciousVolumeFactor = volumeFactor
	}
	if flags.Changed("suspicious-error-rate") {
		opts.SuspiciousErrorRate = suspiciousErrorRate
	}
	if flags.Changed("sensitive") {
		opts.SensitiveEndpoints = sensitiveEndpoints
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

func analyze(ctx context.Context, opts config.Options, filter *filters.Filter) (*models.AnalysisResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if useDemo {
		return analysis.RunParallel(logreader.DemoLines, 1, opts, filter)
	}

	reader := logreader.NewLogReader()

	if workers > 1 && logFile != "" && logFile != "-" && !follow {
		lines, err := reader.ReadAll(logFile)
		if err != nil {
			return nil, err
		}
		return analysis.RunParallel(lines, workers, opts, filter)
	}

	var lines <-chan string
	var errors <-chan error

	switch {
	case logFile == "" || logFile == "-":
		lines, errors = reader.ReadStdin(ctx)
	case follow:
		lines, errors = reader.TailFile(ctx, logFile, true)
	default:
		lines, errors = reader.ReadFile(ctx, logFile)
	}

	go func() {
		for err := range errors {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading log: %v\n", err)
			}
		}
	}()

	return analysis.Run(lines, opts, filter)
}

func exportResult(result *models.AnalysisResult) error {
	if exportFormat == "" {
		return nil
	}

	target := exportPath(exportFormat, exportFile)
	exporter := export.NewDataExporter()
	switch exportFormat {
	case "json":
		return exporter.ExportToJSON(result, target)
	case "csv":
		return exporter.ExportToCSV(result, target)
	case "text":
		return export.CreateReportSummary(result, target)
	default:
		return fmt.Errorf("unknown export format: %s", exportFormat)
	}
}

// exportPath resolves the export target, defaulting to report.<ext>
// when no output file was given.
func exportPath(format, path string) string {
	if path != "" {
		return path
	}
	switch format {
	case "json":
		return "report.json"
	case "csv":
		return "report.csv"
	default:
		return "report.txt"
	}
}
