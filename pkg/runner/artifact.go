package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antiwork/shortest/pkg/run"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ArtifactWriter writes the results of a test run to disk.
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a writer for outputDir.
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir}
}

// WriteAll writes results.json and summary.md.
func (w *ArtifactWriter) WriteAll(summary *Summary) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.WriteResultsJSON(summary); err != nil {
		return err
	}
	return w.WriteSummaryMarkdown(summary)
}

// WriteResultsJSON writes the full summary, steps included.
func (w *ArtifactWriter) WriteResultsJSON(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "results.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write results JSON: %w", err)
	}
	return nil
}

// WriteSummaryMarkdown writes a human readable summary.
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *Summary) error {
	var md strings.Builder

	md.WriteString("# Shortest Test Summary\n\n")
	fmt.Fprintf(&md, "**Passed:** %d\n\n", summary.Passed)
	fmt.Fprintf(&md, "**Failed:** %d\n\n", summary.Failed)
	fmt.Fprintf(&md, "**Duration:** %s\n\n", summary.Duration)

	md.WriteString("## Tests\n\n")
	for _, rec := range summary.Results {
		mark := "✅"
		if rec.Status != run.StatusPassed {
			mark = "❌"
		}
		fmt.Fprintf(&md, "%s **%s** (%d steps", mark, rec.TestName, len(rec.Steps))
		if rec.FromCache {
			md.WriteString(", cached")
		}
		md.WriteString(")\n")
		if rec.Reason != "" {
			fmt.Fprintf(&md, "   %s\n", rec.Reason)
		}
	}
	md.WriteString("\n")

	md.WriteString("## Token Usage\n\n")
	fmt.Fprintf(&md, "- **Prompt:** %d\n", summary.Usage.PromptTokens)
	fmt.Fprintf(&md, "- **Completion:** %d\n", summary.Usage.CompletionTokens)
	fmt.Fprintf(&md, "- **Total:** %d\n", summary.Usage.TotalTokens)

	if err := os.WriteFile(filepath.Join(w.outputDir, "summary.md"), []byte(md.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}
