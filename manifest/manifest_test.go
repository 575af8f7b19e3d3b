package manifest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/phanxgames/edition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Manifest {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	m := openTemp(t)

	id, err := m.BeginRun(ctx, "render --set kat.1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	for _, seq := range []int{3, 1, 2} {
		require.NoError(t, m.RecordItem(ctx, id, edition.Item{
			SequenceNumber: seq,
			SetName:        "kat.1",
			LocalIndex:     seq - 1,
			Images:         []string{fmt.Sprintf("images/%04d.png", seq)},
			Metadata:       fmt.Sprintf("metadata/%04d.json", seq),
			Chunk:          "run_0000.tar",
		}))
	}
	require.NoError(t, m.RecordChunk(ctx, id, edition.ChunkInfo{Name: "run_0000.tar", Index: 0, Entries: 6, Bytes: 4096}))
	require.NoError(t, m.FinishRun(ctx, id, nil))

	runs, err := m.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFinished, runs[0].Status)
	assert.Equal(t, 3, runs[0].Items)
	assert.False(t, runs[0].FinishedAt.IsZero())

	seqs, err := m.Rendered(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seqs)

	chunks, err := m.Chunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 4096, chunks[0].Bytes)
}

func TestFailedRun(t *testing.T) {
	ctx := context.Background()
	m := openTemp(t)
	id, err := m.BeginRun(ctx, "render --all")
	require.NoError(t, err)
	require.NoError(t, m.FinishRun(ctx, id, errors.New("encode failed")))

	runs, err := m.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Equal(t, "encode failed", runs[0].Error)
}

func TestFinishUnknownRun(t *testing.T) {
	m := openTemp(t)
	err := m.FinishRun(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownRun)
}

func TestRenderedAcrossRuns(t *testing.T) {
	ctx := context.Background()
	m := openTemp(t)
	a, err := m.BeginRun(ctx, "a")
	require.NoError(t, err)
	b, err := m.BeginRun(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, m.RecordItem(ctx, a, edition.Item{SequenceNumber: 5}))
	require.NoError(t, m.RecordItem(ctx, b, edition.Item{SequenceNumber: 5}))
	require.NoError(t, m.RecordItem(ctx, b, edition.Item{SequenceNumber: 7}))

	seqs, err := m.Rendered(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7}, seqs)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.db")
	m, err := Open(path)
	require.NoError(t, err)
	id, err := m.BeginRun(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, m.RecordItem(ctx, id, edition.Item{SequenceNumber: 9}))
	require.NoError(t, m.Close())

	m, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	seqs, err := m.Rendered(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, seqs)
}
