package edition

import (
	"bytes"
	"testing"
	"time"
)

func TestChunkRoundTrip(t *testing.T) {
	c := NewChunk(time.Unix(1700000000, 0))
	files := []Entry{
		{"images/0001.png", []byte("png-1")},
		{"metadata/0001.json", []byte(`{"a":1}`)},
		{"empty", nil},
	}
	for _, f := range files {
		if err := c.Append(f.Name, f.Data); err != nil {
			t.Fatalf("Append(%s): %v", f.Name, err)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	if c.Size()%512 != 0 {
		t.Errorf("Size = %d, want whole 512-byte blocks", c.Size())
	}

	data, err := c.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadChunk(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(files) {
		t.Fatalf("read %d entries, want %d", len(got), len(files))
	}
	for i := range files {
		if got[i].Name != files[i].Name || !bytes.Equal(got[i].Data, files[i].Data) {
			t.Errorf("entry %d = %s %q, want %s %q", i, got[i].Name, got[i].Data, files[i].Name, files[i].Data)
		}
	}

	if err := c.Append("late", []byte("x")); err == nil {
		t.Error("Append after Bytes should fail")
	}
	again, _ := c.Bytes()
	if !bytes.Equal(again, data) {
		t.Error("second Bytes call changed the archive")
	}
}

func TestChunkSizeGrows(t *testing.T) {
	c := NewChunk(time.Time{})
	before := c.Size()
	_ = c.Append("a", make([]byte, 1000))
	if c.Size() < before+1000 {
		t.Errorf("Size = %d after 1000-byte entry, want >= %d", c.Size(), before+1000)
	}
}

func TestChunkName(t *testing.T) {
	tests := []struct {
		archive string
		index   int
		want    string
	}{
		{"run", 0, "run_0000.tar"},
		{"run", 12, "run_0012.tar"},
		{"20260101T000000Z", 3, "20260101T000000Z_0003.tar"},
	}
	for _, tt := range tests {
		if got := ChunkName(tt.archive, tt.index); got != tt.want {
			t.Errorf("ChunkName(%q, %d) = %q, want %q", tt.archive, tt.index, got, tt.want)
		}
	}
}

func TestReadChunkCorrupt(t *testing.T) {
	if _, err := ReadChunk(bytes.NewReader(bytes.Repeat([]byte{0xff}, 1024))); err == nil {
		t.Error("ReadChunk of garbage should fail")
	}
}
