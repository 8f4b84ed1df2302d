package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpowernl/logscope/pkg/models"
)

func TestExportPath(t *testing.T) {
	cases := []struct {
		name   string
		format string
		path   string
		want   string
	}{
		{"explicit path wins", "json", "out.json", "out.json"},
		{"json default", "json", "", "report.json"},
		{"csv default", "csv", "", "report.csv"},
		{"text default", "text", "", "report.txt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exportPath(tc.format, tc.path); got != tc.want {
				t.Errorf("exportPath(%q, %q) = %q, want %q", tc.format, tc.path, got, tc.want)
			}
		})
	}
}

func TestExportResult_DefaultOutputFile(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to enter temp dir: %v", err)
	}
	defer func() {
		exportFormat, exportFile = "", ""
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	}()

	exportFormat, exportFile = "json", ""

	if err := exportResult(&models.AnalysisResult{RunID: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat("report.json"); err != nil {
		t.Errorf("expected report.json to be written: %v", err)
	}
}

func TestExportResult_ExplicitOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my-report.csv")

	defer func() { exportFormat, exportFile = "", "" }()
	exportFormat, exportFile = "csv", path

	if err := exportResult(&models.AnalysisResult{RunID: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to be written: %v", path, err)
	}
}

func TestExportResult_NoFormat(t *testing.T) {
	defer func() { exportFormat, exportFile = "", "" }()
	exportFormat, exportFile = "", ""

	if err := exportResult(&models.AnalysisResult{}); err != nil {
		t.Errorf("no export requested must be a no-op, got %v", err)
	}
}
