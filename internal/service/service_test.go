package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provgraph/internal/capture"
	"github.com/roach88/provgraph/internal/diaglog"
	"github.com/roach88/provgraph/internal/engine"
	"github.com/roach88/provgraph/internal/ir"
)

func newBufferLogger(t *testing.T) (*diaglog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := diaglog.New(&buf)
	require.NoError(t, err)
	return l, &buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func writeStream(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOps_FilterIngestsAndLogs(t *testing.T) {
	diag, buf := newBufferLogger(t)
	svc := New(diag, WithEngineOptions(engine.WithWindow(2)))
	ops := svc.Ops()

	assert.False(t, ops.Filter(ir.NodeRecord{ID: ir.MustNodeID("a")}))
	assert.False(t, ops.Filter(ir.EdgeRecord{RelationID: 1, Source: ir.MustNodeID("a"), Destination: ir.MustNodeID("a")}))
	assert.False(t, ops.Filter(ir.EdgeRecord{RelationID: 2, Source: ir.MustNodeID("a"), Destination: ir.MustNodeID("b")}))

	stats := svc.Assembler().Stats()
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, uint64(1), stats.Resolved)

	assert.Equal(t, []string{diaglog.Banner, EntryLine, EntryLine, EntryLine}, lines(buf))
}

func TestOps_InitAndLogError(t *testing.T) {
	diag, buf := newBufferLogger(t)
	ops := New(diag).Ops()

	ops.Init("worker-0")
	ops.LogError("capture: lost 3 records")

	assert.Equal(t, []string{
		diaglog.Banner,
		"audit writer thread, worker:worker-0",
		"capture: lost 3 records",
	}, lines(buf))
}

func TestRun_ReplaysStream(t *testing.T) {
	diag, buf := newBufferLogger(t)
	svc := New(diag, WithEngineOptions(engine.WithWindow(3)))
	src := capture.NewFileSource(writeStream(t, `
records:
  - node: {id: a}
  - node: {id: b}
  - edge: {relation: 1, source: a, destination: b, repeat: 6}
`))

	require.NoError(t, svc.Run(context.Background(), src))
	stats := svc.Close()

	assert.Equal(t, uint64(8), stats.Ingested)
	assert.Equal(t, uint64(2), stats.Batches)
	assert.Equal(t, uint64(6), stats.Resolved)
	assert.Equal(t, 0, stats.Pending)

	got := lines(buf)
	require.Len(t, got, 10)
	assert.Equal(t, "audit writer thread, worker:worker-0", got[1])
	for _, line := range got[2:] {
		assert.Equal(t, EntryLine, line)
	}
}

func TestRun_RegistrationFailureIsReported(t *testing.T) {
	diag, _ := newBufferLogger(t)
	svc := New(diag)
	src := capture.NewFileSource(writeStream(t, "records: []\n"))
	require.NoError(t, src.Register(capture.Ops{Filter: func(ir.Record) bool { return false }}))

	err := svc.Run(context.Background(), src)
	require.Error(t, err)
	assert.True(t, capture.IsRegistrationError(err))
}

func TestRun_MarksLogOpaque(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	diag, err := diaglog.Open(path)
	require.NoError(t, err)
	defer diag.Close()

	src := capture.NewFileSource(writeStream(t, "records: []\n"))
	require.NoError(t, New(diag).Run(context.Background(), src))
	assert.True(t, src.IsOpaque(path))

	other := capture.NewFileSource(writeStream(t, "records: []\n"))
	require.NoError(t, New(diag, WithOpaqueLog(false)).Run(context.Background(), other))
	assert.False(t, other.IsOpaque(path))
}

func TestResolveFailureIsLogged(t *testing.T) {
	diag, buf := newBufferLogger(t)
	boom := errors.New("sink unavailable")
	svc := New(diag, WithEngineOptions(
		engine.WithWindow(1),
		engine.WithResolver(engine.ResolverFunc(func(_, _ ir.NodeRecord, _ ir.EdgeRecord) error {
			return boom
		})),
	))
	ops := svc.Ops()

	ops.Filter(ir.NodeRecord{ID: ir.MustNodeID("a")})
	ops.Filter(ir.EdgeRecord{RelationID: 9, Source: ir.MustNodeID("a"), Destination: ir.MustNodeID("a")})

	got := lines(buf)
	require.Len(t, got, 4)
	assert.Contains(t, got[2], "relation=9")
	assert.Contains(t, got[2], "sink unavailable")
	assert.Equal(t, EntryLine, got[3])
}

func TestNew_LeavesEngineOptionsUntouched(t *testing.T) {
	diag, _ := newBufferLogger(t)
	svc := New(diag, WithEngineOptions(
		engine.WithWindow(3),
		engine.WithResolver(engine.NopResolver{}),
		engine.WithObserver(engine.NopObserver{}),
	))

	require.Len(t, svc.engineOpts, 3)
	for i, opt := range svc.engineOpts[len(svc.engineOpts):cap(svc.engineOpts)] {
		assert.Nil(t, opt, "spare slot %d was written", i)
	}
	assert.Equal(t, 3, svc.Assembler().Window())
}
