package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trialscope-ai/trialsync/pkg/common/logger"
	"github.com/trialscope-ai/trialsync/pkg/trials"
)

// CSVExporter writes tables as CSV files under a fixed directory. The
// extension is appended here; callers pass the bare table name.
type CSVExporter struct {
	Dir string
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{Dir: dir}
}

// Write emits the full rectangular table: header row always, then one row
// per record. An empty table produces a header-only file.
func (e *CSVExporter) Write(table *trials.Table, name string) error {
	path := filepath.Join(e.Dir, name+".csv")

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Columns()); err != nil {
		return fmt.Errorf("writing header to %s: %w", path, err)
	}
	for _, rec := range table.Records {
		if err := w.Write(table.Row(rec)); err != nil {
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"path": path,
		"rows": table.Len(),
	}).Info("table exported")
	return nil
}
