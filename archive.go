package edition

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// Chunk is one size-bounded archive: an in-memory TAR that frames and
// metadata are appended to in capture order. A Chunk is finished by Bytes and
// cannot be appended to afterwards.
type Chunk struct {
	buf      bytes.Buffer
	tw       *tar.Writer
	entries  []string
	modTime  time.Time
	finished bool
}

// NewChunk returns an empty chunk whose entries carry modTime.
func NewChunk(modTime time.Time) *Chunk {
	c := &Chunk{modTime: modTime}
	c.tw = tar.NewWriter(&c.buf)
	return c
}

// Append adds a named entry.
func (c *Chunk) Append(name string, data []byte) error {
	if c.finished {
		return errors.New("chunk: append after finish")
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  c.modTime,
	}
	if err := c.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("chunk: header %s: %w", name, err)
	}
	if _, err := c.tw.Write(data); err != nil {
		return fmt.Errorf("chunk: write %s: %w", name, err)
	}
	// Pad the entry now so Size reflects everything appended so far.
	if err := c.tw.Flush(); err != nil {
		return fmt.Errorf("chunk: flush %s: %w", name, err)
	}
	c.entries = append(c.entries, name)
	return nil
}

// Len returns the number of entries.
func (c *Chunk) Len() int { return len(c.entries) }

// Entries returns the entry names in append order. The returned slice MUST NOT
// be mutated.
func (c *Chunk) Entries() []string { return c.entries }

// Size returns the number of archive bytes written so far.
func (c *Chunk) Size() int64 { return int64(c.buf.Len()) }

// Bytes finishes the archive and returns its encoded form.
func (c *Chunk) Bytes() ([]byte, error) {
	if !c.finished {
		if err := c.tw.Close(); err != nil {
			return nil, fmt.Errorf("chunk: close: %w", err)
		}
		c.finished = true
	}
	return c.buf.Bytes(), nil
}

// Entry is one file read back from a chunk.
type Entry struct {
	Name string
	Data []byte
}

// ReadChunk decodes every entry of an encoded chunk.
func ReadChunk(r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)
	var out []Entry
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("read chunk: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return out, fmt.Errorf("read chunk: %s: %w", hdr.Name, err)
		}
		out = append(out, Entry{Name: hdr.Name, Data: data})
	}
}

// ChunkName returns the file name of the index-th chunk of an archive. Names
// of one archive sort in capture order.
func ChunkName(archive string, index int) string {
	return fmt.Sprintf("%s_%04d.tar", archive, index)
}
