package reporter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

// WriteJSONReport writes the dispatch report as JSON to the given path.
func WriteJSONReport(report *dispatch.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
