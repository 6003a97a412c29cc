package diaglog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestOpen_WritesBannerFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.LogPID(1234))
	require.NoError(t, l.LogLine("Received an entry!"))
	require.NoError(t, l.Close())

	assert.Equal(t, []string{
		Banner,
		"Runtime query service pid: 1234",
		"Received an entry!",
	}, readLines(t, path))
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	for i := 0; i < 2; i++ {
		l, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, l.Logf("run %d", i))
		require.NoError(t, l.Close())
	}

	assert.Equal(t, []string{Banner, "run 0", Banner, "run 1"}, readLines(t, path))
}

func TestOpen_FailsOnMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "audit.log"))
	assert.Error(t, err)
}

func TestLogLine_FlushesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.LogLine("visible before close"))

	lines := readLines(t, path)
	assert.Equal(t, "visible before close", lines[len(lines)-1])
}

func TestLogLine_OneCallOneLine(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf)
	require.NoError(t, err)

	require.NoError(t, l.LogLine("a\nb"))
	assert.Equal(t, Banner+"\na b\n", buf.String())
}

func TestLogThreadInit(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf)
	require.NoError(t, err)

	require.NoError(t, l.LogThreadInit("worker-3"))
	assert.Contains(t, buf.String(), "audit writer thread, worker:worker-3\n")
}

func TestLogLine_AfterClose(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.Error(t, l.LogLine("late"))
}

func TestLogLine_ConcurrentWritersDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := Open(path)
	require.NoError(t, err)

	const writers, lines = 20, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < lines; i++ {
				_ = l.Logf("writer=%02d line=%02d payload=%s", w, i, strings.Repeat("x", 64))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, l.Close())

	got := readLines(t, path)
	require.Len(t, got, 1+writers*lines)
	seen := make(map[string]bool)
	for _, line := range got[1:] {
		var w, i int
		var payload string
		n, err := fmt.Sscanf(line, "writer=%02d line=%02d payload=%s", &w, &i, &payload)
		require.NoError(t, err, "torn line %q", line)
		require.Equal(t, 3, n)
		assert.Len(t, payload, 64)
		seen[line] = true
	}
	assert.Len(t, seen, writers*lines)
}
