package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leafscan/internal/models"
)

func writeLabelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadLabels_PreservesOrder(t *testing.T) {
	path := writeLabelFile(t, "Tomato_Healthy\nTomato_EarlyBlight\nPotato_LateBlight\n")

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	require.Equal(t, models.LabelSet{"Tomato_Healthy", "Tomato_EarlyBlight", "Potato_LateBlight"}, labels)
}

func TestLoadLabels_SkipsBlankLines(t *testing.T) {
	path := writeLabelFile(t, "Tomato_Healthy\n\n  \nPotato_Healthy\n")

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	require.Equal(t, models.LabelSet{"Tomato_Healthy", "Potato_Healthy"}, labels)
}

func TestLoadLabels_EmptyFile(t *testing.T) {
	path := writeLabelFile(t, "\n\n")

	_, err := LoadLabels(path)
	require.Error(t, err)
}

func TestLoadLabels_MissingFile(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
