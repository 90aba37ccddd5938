// Package records reads event records stored one JSON object per line.
package records

/*
{"type":0,"time":12.5,"duration":8,"data":{"type":"click"},
 "children":[{"type":3,"time":13,"duration":2,"data":{"x":0,"y":0,"width":10,"height":20}}],
 "hints":[{"severity":1,"rule":"long-paint","description":"paint took 2ms"}]}
*/

import (
	"bufio"
	"io"

	"github.com/valyala/fastjson"
	"github.com/zeebo/errs/v2"

	"loov.dev/eventview/trace"
)

// maxRecordSize limits a single line.
const maxRecordSize = 64 << 20

// Decoder reads records from a stream. Blank lines are skipped.
type Decoder struct {
	scanner *bufio.Scanner
	parser  fastjson.Parser
	line    int
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxRecordSize)
	return &Decoder{scanner: scanner}
}

// Decode returns the next record, or io.EOF when the stream is exhausted.
func (dec *Decoder) Decode() (*trace.Node, error) {
	for dec.scanner.Scan() {
		dec.line++
		line := dec.scanner.Bytes()
		if isBlank(line) {
			continue
		}
		v, err := dec.parser.ParseBytes(line)
		if err != nil {
			return nil, errs.Errorf("line %d: %w", dec.line, err)
		}
		node, err := parseNode(v)
		if err != nil {
			return nil, errs.Errorf("line %d: %w", dec.line, err)
		}
		return node, nil
	}
	if err := dec.scanner.Err(); err != nil {
		return nil, errs.Wrap(err)
	}
	return nil, io.EOF
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader) ([]*trace.Node, error) {
	dec := NewDecoder(r)
	var nodes []*trace.Node
	for {
		node, err := dec.Decode()
		if err == io.EOF {
			return nodes, nil
		}
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, node)
	}
}

// Parse decodes a single record.
func Parse(data []byte) (*trace.Node, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return parseNode(v)
}

func parseNode(v *fastjson.Value) (*trace.Node, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, errs.Errorf("record is %v, expected object", v.Type())
	}

	code, err := number(v, "type").Int()
	if err != nil {
		return nil, errs.Errorf("type: %w", err)
	}
	typ, err := trace.ParseType(code)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	start, err := number(v, "time").Float64()
	if err != nil {
		return nil, errs.Errorf("time: %w", err)
	}

	node := &trace.Node{
		Type:     typ,
		Start:    trace.Time(start),
		Duration: trace.Time(v.GetFloat64("duration")),
		Sequence: v.GetInt("sequence"),
	}

	switch string(v.GetStringBytes("profile")) {
	case "processing":
		node.Profile = trace.ProfileProcessing
	case "ready":
		node.Profile = trace.ProfileReady
	}

	if data := v.Get("data"); data != nil {
		node.Details = parseDetails(data)
	}

	for _, hint := range v.GetArray("hints") {
		node.Annotations = append(node.Annotations, trace.Annotation{
			Kind:     trace.AnnotationHint,
			Severity: trace.Severity(hint.GetUint("severity")),
			Rule:     string(hint.GetStringBytes("rule")),
			Message:  string(hint.GetStringBytes("description")),
		})
	}
	for _, msg := range v.GetArray("logs") {
		node.Annotations = append(node.Annotations, trace.Annotation{
			Kind:    trace.AnnotationLog,
			Message: string(msg.GetStringBytes()),
		})
	}

	for i, c := range v.GetArray("children") {
		child, err := parseNode(c)
		if err != nil {
			return nil, errs.Errorf("child %d: %w", i, err)
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func parseDetails(data *fastjson.Value) trace.Details {
	d := trace.Details{
		Name:       string(data.GetStringBytes("type")),
		URL:        string(data.GetStringBytes("url")),
		LineNumber: data.GetInt("lineNumber"),
		ReadyState: data.GetInt("readyState"),
		Message:    string(data.GetStringBytes("message")),
		BackTrace:  string(data.GetStringBytes("backTrace")),
		Overhead:   trace.Time(data.GetFloat64("overhead")),

		TimerID:    data.GetInt("timerId"),
		SingleShot: data.GetBool("singleShot"),
		Interval:   trace.Time(data.GetFloat64("interval")),

		X:      data.GetInt("x"),
		Y:      data.GetInt("y"),
		Width:  data.GetInt("width"),
		Height: data.GetInt("height"),
	}
	for _, tuple := range data.GetArray("tuples") {
		typ, err := trace.ParseType(tuple.GetInt("type"))
		if err != nil {
			continue
		}
		d.Tuples = append(d.Tuples, trace.TypeCount{
			Type:     typ,
			Count:    tuple.GetInt("count"),
			Duration: trace.Time(tuple.GetFloat64("duration")),
		})
	}
	return d
}

// number returns the field key, or a JSON null when it is missing.
func number(v *fastjson.Value, key string) *fastjson.Value {
	if field := v.Get(key); field != nil {
		return field
	}
	return null
}

var null = fastjson.MustParse("null")

func isBlank(line []byte) bool {
	for _, c := range line {
		switch c {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}
