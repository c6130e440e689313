package annotate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/markimg/internal/utils"
	"github.com/menta2k/markimg/pkg/types"
)

// MarshalReports encodes a report set as indented JSON
func MarshalReports(set types.ReportSet) ([]byte, error) {
	data, err := json.MarshalIndent(set, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reports: %w", err)
	}
	return append(data, '\n'), nil
}

// writeReport writes set to <dir>/<name>.json
func writeReport(dir, name string, set types.ReportSet) (string, error) {
	data, err := MarshalReports(set)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, utils.SanitizeFilename(name)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
