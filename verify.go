package edition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// VerifyReport summarizes the entries found in a set of chunks.
type VerifyReport struct {
	Chunks   int
	Entries  int
	Images   map[int]bool // sequence numbers with a still image
	Frames   map[int]int  // sequence number to animation frame count
	Metadata map[int]bool
	Problems []string
}

// OK reports whether every entry decoded.
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

// Missing returns the sequence numbers of want that lack a metadata entry,
// or lack a still image (animFrames == 0) or a full set of animFrames frames.
func (r *VerifyReport) Missing(want []int, animFrames int) []int {
	var out []int
	for _, seq := range want {
		ok := r.Metadata[seq]
		if animFrames > 0 {
			ok = ok && r.Frames[seq] >= animFrames
		} else {
			ok = ok && r.Images[seq]
		}
		if !ok {
			out = append(out, seq)
		}
	}
	return out
}

// Sequences returns every sequence number with a metadata entry, sorted.
func (r *VerifyReport) Sequences() []int {
	out := make([]int, 0, len(r.Metadata))
	for seq := range r.Metadata {
		out = append(out, seq)
	}
	slices.Sort(out)
	return out
}

// Verifier checks chunks written by a Renderer.
type Verifier struct {
	folders Folders
	report  VerifyReport
}

// NewVerifier returns a verifier expecting entries under folders.
func NewVerifier(folders Folders) *Verifier {
	return &Verifier{
		folders: folders,
		report: VerifyReport{
			Images:   make(map[int]bool),
			Frames:   make(map[int]int),
			Metadata: make(map[int]bool),
		},
	}
}

// Report returns the findings so far.
func (v *Verifier) Report() *VerifyReport { return &v.report }

// AddFile verifies the chunk stored at name.
func (v *Verifier) AddFile(name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	return v.AddChunk(filepath.Base(name), data)
}

// AddChunk verifies one encoded chunk. Undecodable entries are recorded as
// problems; only an unreadable archive is returned as an error.
func (v *Verifier) AddChunk(name string, data []byte) error {
	entries, err := ReadChunk(bytes.NewReader(data))
	if err != nil {
		v.report.Problems = append(v.report.Problems, fmt.Sprintf("%s: %v", name, err))
		return fmt.Errorf("verify %s: %w", name, err)
	}
	v.report.Chunks++
	for _, e := range entries {
		v.report.Entries++
		if problem := v.entry(e); problem != "" {
			v.report.Problems = append(v.report.Problems, fmt.Sprintf("%s: %s: %s", name, e.Name, problem))
		}
	}
	return nil
}

func (v *Verifier) entry(e Entry) string {
	dir, file := path.Split(e.Name)
	dir = strings.TrimSuffix(dir, "/")
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	switch ext {
	case ".png":
		if _, err := png.Decode(bytes.NewReader(e.Data)); err != nil {
			return "png: " + err.Error()
		}
	case ".json":
		if !json.Valid(e.Data) {
			return "invalid json"
		}
	}

	switch {
	case ext == ".json" && dir == v.folders.Metadata:
		if seq, err := strconv.Atoi(base); err == nil {
			v.report.Metadata[seq] = true
		}
	case ext == ".png" && dir == v.folders.Images:
		if seq, err := strconv.Atoi(base); err == nil {
			v.report.Images[seq] = true
		}
	case ext == ".png" && path.Dir(dir) == cleanFolder(v.folders.Frames):
		seqStr, _, ok := strings.Cut(base, "_")
		if seq, err := strconv.Atoi(seqStr); ok && err == nil {
			v.report.Frames[seq]++
		}
	}
	return ""
}

// cleanFolder maps the empty folder to ".", which is what path.Dir returns
// for a top-level directory.
func cleanFolder(f string) string {
	if f == "" {
		return "."
	}
	return f
}
