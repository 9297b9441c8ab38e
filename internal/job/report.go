package job

import (
	"fmt"
	"os"
	"strings"

	"crypto-predictor/internal/domain"
)

const (
	BundleFileName = "USER_PROMPT.json"
	ReportFileName = "REPORT.md"
)

type reportEntry struct {
	prediction domain.PredictionResult
	usage      domain.TokenUsage
}

// Report accumulates per-iteration decisions and renders them as Markdown
// once the loop is over.
type Report struct {
	entries []reportEntry
	failure string
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) AddIteration(prediction domain.PredictionResult, usage domain.TokenUsage) {
	r.entries = append(r.entries, reportEntry{prediction: prediction, usage: usage})
}

// MarkIncomplete records why the run stopped before all iterations finished.
func (r *Report) MarkIncomplete(reason string) {
	r.failure = reason
}

func (r *Report) Incomplete() bool {
	return r.failure != ""
}

func (r *Report) Len() int {
	return len(r.entries)
}

func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("# Report\n\n")

	for i, e := range r.entries {
		fmt.Fprintf(&b, "## Iteration %d\n", i+1)
		fmt.Fprintf(&b, "- **decision: %s**\n", e.prediction.Decision)
		fmt.Fprintf(&b, "- **percentage: %s**\n", e.prediction.Percentage)
		fmt.Fprintf(&b, "- reason: %s\n\n", e.prediction.Reason)
	}

	if r.failure != "" {
		// keep the blockquote on one line
		reason := strings.Join(strings.Fields(r.failure), " ")
		fmt.Fprintf(&b, "> Incomplete: stopped after %d iteration(s): %s\n\n", len(r.entries), reason)
	}

	b.WriteString("\n## Token Usages\n")
	for i, e := range r.entries {
		fmt.Fprintf(&b, "- Tokens Usage: %d - %s\n", i+1, e.usage)
	}
	return b.String()
}

// WriteBundle stores the prompt bundle as 4-space indented JSON.
func WriteBundle(path string, bundle *domain.PromptBundle) error {
	data, err := bundle.Encode("    ")
	if err != nil {
		return fmt.Errorf("encode prompt bundle: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write prompt bundle: %w", err)
	}
	return nil
}

func WriteReport(path string, report *Report) error {
	if err := os.WriteFile(path, []byte(report.Render()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
