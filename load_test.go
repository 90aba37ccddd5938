package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loov.dev/eventview/trace"
	"loov.dev/eventview/view"
)

const recordLines = `{"type":0,"time":0,"duration":6,"children":[{"type":3,"time":1,"duration":2}]}
{"type":2,"time":4,"duration":1}
`

const traceEvents = `{"traceEvents":[
{"name":"Layout","ph":"X","pid":1,"tid":1,"ts":100,"dur":2000},
{"name":"Paint","ph":"X","pid":1,"tid":1,"ts":3000,"dur":500}]}`

func gzipped(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"capture.jsonl":       []byte(recordLines),
		"capture.records.gz":  gzipped(t, recordLines),
		"capture.jsonl.zst":   zstded(t, recordLines),
		"trace.json":          []byte(traceEvents),
		"trace.JSON.GZ":       gzipped(t, traceEvents),
		"capture.records.zst": zstded(t, recordLines),
	}

	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			nodes, err := loadFile(path)
			require.NoError(t, err)
			require.Len(t, nodes, 2)

			store, err := ingest(nodes)
			require.NoError(t, err)
			assert.Equal(t, 2, store.Len())
			assert.Equal(t, 1, store.At(1).Sequence)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "capture.txt")
	require.NoError(t, os.WriteFile(unknown, []byte(recordLines), 0o644))
	_, err = loadFile(unknown)
	assert.ErrorContains(t, err, "unknown format")

	corrupt := filepath.Join(dir, "capture.jsonl.gz")
	require.NoError(t, os.WriteFile(corrupt, []byte(recordLines), 0o644))
	_, err = loadFile(corrupt)
	assert.Error(t, err)
}

func TestIngestRejectsUnordered(t *testing.T) {
	_, err := ingest([]*trace.Node{
		{Type: trace.TypeDom, Start: 5},
		{Type: trace.TypeDom, Start: 1},
	})
	assert.ErrorIs(t, err, trace.ErrMalformedEvent)
}

func TestParseTime(t *testing.T) {
	v, err := parseTime("live")
	require.NoError(t, err)
	assert.True(t, v.IsLive())

	v, err = parseTime(" 12.5ms ")
	require.NoError(t, err)
	assert.Equal(t, trace.Time(12.5), v)

	v, err = optionalTime("", "7")
	require.NoError(t, err)
	assert.Equal(t, trace.Time(7), v)

	_, err = parseTime("soon")
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	short := &trace.Node{Type: trace.TypePaint, Duration: 2}
	long := &trace.Node{Type: trace.TypePaint, Duration: 8}
	layout := &trace.Node{Type: trace.TypeLayout, Duration: 8}

	f, err := buildFilter(3, "", "", "")
	require.NoError(t, err)
	assert.False(t, f.Visible(short))
	assert.True(t, f.Visible(long))

	f, err = buildFilter(3, `type == "Paint"`, "1", "")
	require.NoError(t, err)
	assert.True(t, f.Visible(short))
	assert.False(t, f.Visible(layout))

	f, err = buildFilter(3, `type == "Paint"`, "", `type == "Layout"`)
	require.NoError(t, err)
	assert.True(t, f.Visible(layout))

	_, err = buildFilter(3, "", "-1", "")
	assert.Error(t, err)
	_, err = buildFilter(3, "duration", "", "")
	assert.Error(t, err)
}

func TestPrintRows(t *testing.T) {
	nodes, err := decode("capture.jsonl", strings.NewReader(recordLines))
	require.NoError(t, err)
	store, err := ingest(nodes)
	require.NoError(t, err)

	model, err := view.NewModel(store, view.WithFilter(view.MinDuration(0)))
	require.NoError(t, err)
	require.NoError(t, model.SetWindow(0, trace.Live))

	var out bytes.Buffer
	require.NoError(t, printRows(&out, model.Rows()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SEQ")
	assert.Contains(t, lines[1], "DOM Event")
	assert.Contains(t, lines[1], "DOM Event 67%")
	assert.Contains(t, lines[2], "Style Recalculation")
}

func TestRowFlags(t *testing.T) {
	assert.Equal(t, "-", rowFlags(&view.Row{}))
	assert.Equal(t, "AL!P", rowFlags(&view.Row{Annotated: true, Logs: true, Inconsistent: true, ProfilePending: true}))
}
