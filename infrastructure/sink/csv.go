package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ahrav/go-posescore/internal/domain"
)

// Column headers of the tabular outputs.
var (
	SummaryHeader = []string{"id", "n_poses_in", "n_pass", "pass_rate", "aggregate_method", "aggregate_score"}
	SweepHeader   = []string{"id", "pH", "ionic_strength", "aggregate"}
)

// formatFloat renders NaN as "NaN" and everything else in the shortest
// exact form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteSummaries writes one CSV row per complex summary.
func WriteSummaries(w io.Writer, rows []domain.ComplexSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ID,
			strconv.Itoa(r.NPosesIn),
			strconv.Itoa(r.NPass),
			formatFloat(r.PassRate()),
			string(r.Aggregate.Method),
			formatFloat(r.Aggregate.Value),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweep writes one CSV row per sweep point.
func WriteSweep(w io.Writer, points []domain.SweepPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SweepHeader); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{p.ID, formatFloat(p.PH), formatFloat(p.IonicStrength), formatFloat(p.Aggregate)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path, including parent directories, and fills it
// with write.
func WriteCSVFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
