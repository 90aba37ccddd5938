package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/errs/v2"

	"loov.dev/eventview/import/records"
	"loov.dev/eventview/import/tef"
	"loov.dev/eventview/trace"
)

// loadFile reads the top-level nodes of a capture. The format follows the
// file extension, after an optional .gz or .zst suffix.
func loadFile(path string) ([]*trace.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Errorf("failed to open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	nodes, err := decode(path, bufio.NewReader(f))
	if err != nil {
		return nil, errs.Errorf("failed to load %q: %w", path, err)
	}
	return nodes, nil
}

func decode(name string, r io.Reader) ([]*trace.Node, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		defer func() { _ = zr.Close() }()
		return decode(strings.TrimSuffix(name, filepath.Ext(name)), zr)
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errs.Wrap(err)
		}
		defer zr.Close()
		return decode(strings.TrimSuffix(name, filepath.Ext(name)), zr)
	case ".json":
		var file tef.File
		if err := json.NewDecoder(r).Decode(&file); err != nil {
			return nil, errs.Errorf("failed to parse trace events: %w", err)
		}
		return tef.Convert(file)
	case ".jsonl", ".records":
		return records.ReadAll(r)
	default:
		return nil, errs.Errorf("unknown format %q", ext)
	}
}

// ingest appends nodes to a new store, numbering them in order.
func ingest(nodes []*trace.Node) (*trace.Store, error) {
	store := trace.NewStore()
	for _, node := range nodes {
		if _, err := store.Append(node); err != nil {
			return nil, err
		}
	}
	return store, nil
}
