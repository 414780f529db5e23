package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robalyx/zoonas/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferKeepsNewestLines(t *testing.T) {
	t.Parallel()

	rb := logger.NewRingBuffer(3)
	assert.Nil(t, rb.Lines())

	for i := range 5 {
		rb.Add(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, rb.Lines())
}

func TestLogRotatorTruncatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	rotator := logger.NewLogRotator(file, 4, path)
	t.Cleanup(func() { _ = rotator.Sync() })

	for i := range 8 {
		_, err := fmt.Fprintf(rotator, "entry %d\n", i)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"entry 4", "entry 5", "entry 6", "entry 7"}, lines)

	// Writes keep appending after a rotation
	_, err = fmt.Fprintln(rotator, "entry 8")
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "entry 8\n"))
}
