package inference

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"leafscan/internal/models"
)

// LoadLabels reads the ordered label file, one label per line, skipping
// blank lines. The file order matches the model's output indices and is
// preserved exactly.
func LoadLabels(path string) (models.LabelSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer file.Close()

	var labels models.LabelSet
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("label file %s contains no labels", path)
	}
	return labels, nil
}
