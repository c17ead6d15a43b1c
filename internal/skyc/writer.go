package skyc

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/system"
)

// entryTime is stamped on every zip entry so identical shows produce
// identical archives.
var entryTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Result describes a written archive.
type Result struct {
	Path    string
	Bytes   int64
	Entries []string
}

// Write encodes s with layout and writes the container to path in a single
// rename. On any error nothing is left at path or next to it.
func Write(path string, layout Layout, s *show.Show, opts Options) (*Result, error) {
	entries, err := layout.Entries(s, opts)
	if err != nil {
		return nil, err
	}

	buf := system.GetBuffer()
	defer system.PutBuffer(buf)

	if err := Pack(buf, entries); err != nil {
		return nil, fmt.Errorf("pack archive: %w", err)
	}

	if opts.MaxSize > 0 && int64(buf.Len()) > opts.MaxSize {
		return nil, fmt.Errorf("archive is %d bytes, limit is %d", buf.Len(), opts.MaxSize)
	}

	opts.Progress.Emit("write", 0, 0)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	return &Result{Path: path, Bytes: int64(buf.Len()), Entries: names}, nil
}

// Pack writes entries as a deflated zip to w.
func Pack(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)

	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: entryTime,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			zw.Close()
			return fmt.Errorf("create %s: %w", e.Name, err)
		}
		if err := encodeJSON(fw, e.Value); err != nil {
			zw.Close()
			return fmt.Errorf("encode %s: %w", e.Name, err)
		}
	}

	return zw.Close()
}

func encodeJSON(w io.Writer, v any) error {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(b.Bytes())
	return err
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
