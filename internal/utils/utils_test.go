package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/utils"
)

func TestEncodeCSVQuotesAndFillsGaps(t *testing.T) {
	b, err := utils.EncodeCSV([]string{"name", "note"}, []map[string]string{
		{"name": "a", "note": "x, y"},
		{"name": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "name,note\na,\"x, y\"\nb,\n", string(b))
}

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "seg.csv")
	require.NoError(t, utils.SafeWriteFile(path, []byte("a\n")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
