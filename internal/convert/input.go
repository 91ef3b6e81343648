package convert

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Vijaysplendor/migaccel/internal/ado"
)

// ReadInputFile returns the non-empty trimmed lines of the input file.
func ReadInputFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return lines, nil
}

// ExtractDefinitions parses pipeline links out of the input lines. Both the
// web UI form (`_build?definitionId=N`) and the API definition form
// (`_apis/build/definitions/N/...`) are accepted. Lines that are not
// recognized pipeline URLs are skipped, not fatal.
func ExtractDefinitions(lines []string) (defs []ado.Definition, skipped []string) {
	for _, line := range lines {
		if d, ok := ado.ParseBuildURL(line); ok {
			defs = append(defs, d)
			continue
		}
		if d, err := ado.ParseDefinitionURL(line); err == nil {
			defs = append(defs, d)
			continue
		}
		skipped = append(skipped, line)
	}
	return defs, skipped
}
