package edition

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestVerifyRenderedChunks(t *testing.T) {
	f := newRenderFixture(t)
	if err := f.r.RenderList(context.Background(), []int{1, 2}, RenderOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := f.r.RenderList(context.Background(), []int{4}, RenderOptions{AnimFrames: 3}); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(DefaultFolders())
	for _, c := range f.sink.Chunks {
		if err := v.AddChunk(c.Name, c.Data); err != nil {
			t.Fatal(err)
		}
	}
	rep := v.Report()
	if !rep.OK() {
		t.Fatalf("problems: %v", rep.Problems)
	}
	if rep.Chunks != 2 || rep.Entries != 8 {
		t.Errorf("chunks=%d entries=%d, want 2 and 8", rep.Chunks, rep.Entries)
	}
	if got := rep.Sequences(); !slices.Equal(got, []int{1, 2, 4}) {
		t.Errorf("Sequences = %v", got)
	}
	if rep.Frames[4] != 3 || !rep.Images[1] {
		t.Errorf("frames=%v images=%v", rep.Frames, rep.Images)
	}
	if got := rep.Missing([]int{1, 2, 3}, 0); !slices.Equal(got, []int{3}) {
		t.Errorf("Missing stills = %v, want [3]", got)
	}
	if got := rep.Missing([]int{4}, 3); got != nil {
		t.Errorf("Missing frames = %v, want none", got)
	}
	if got := rep.Missing([]int{4}, 4); !slices.Equal(got, []int{4}) {
		t.Errorf("Missing with 4 frames = %v, want [4]", got)
	}
}

func TestVerifyBadEntries(t *testing.T) {
	c := NewChunk(time.Time{})
	_ = c.Append("images/0001.png", []byte("not a png"))
	_ = c.Append("metadata/0001.json", []byte("{"))
	_ = c.Append("readme.txt", []byte("ok"))
	data, _ := c.Bytes()

	v := NewVerifier(DefaultFolders())
	if err := v.AddChunk("bad.tar", data); err != nil {
		t.Fatal(err)
	}
	rep := v.Report()
	if len(rep.Problems) != 2 {
		t.Errorf("problems = %v, want 2", rep.Problems)
	}
	if len(rep.Sequences()) != 0 {
		t.Errorf("invalid metadata counted: %v", rep.Sequences())
	}
}

func TestVerifyRootFolders(t *testing.T) {
	c := NewChunk(time.Time{})
	_ = c.Append("0007.json", []byte("{}"))
	data, _ := c.Bytes()
	path := filepath.Join(t.TempDir(), "root_0000.tar")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(Folders{})
	if err := v.AddFile(path); err != nil {
		t.Fatal(err)
	}
	if got := v.Report().Sequences(); !slices.Equal(got, []int{7}) {
		t.Errorf("Sequences = %v, want [7]", got)
	}
	if err := v.AddFile(filepath.Join(t.TempDir(), "missing.tar")); err == nil {
		t.Error("missing file should fail")
	}
}
