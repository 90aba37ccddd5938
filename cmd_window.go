package main

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/zeebo/clingy"
	"github.com/zeebo/errs/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loov.dev/eventview/trace"
	"loov.dev/eventview/view"
)

type cmdWindow struct {
	common
	path        string
	left, right string
	minDuration string
	expr        string
}

func (cmd *cmdWindow) Setup(params clingy.Parameters) {
	cmd.common.setup(params)
	cmd.left = params.Flag("left", "Left edge of the window in ms", "").(string)
	cmd.right = params.Flag("right", "Right edge of the window in ms, or live", "").(string)
	cmd.minDuration = params.Flag("min-duration", "Hide events shorter than this many ms", "").(string)
	cmd.expr = params.Flag("expr", "CEL expression selecting visible events", "").(string)
	cmd.path = params.Arg("file", "Capture to read").(string)
}

func (cmd *cmdWindow) Execute(ctx clingy.Context) error {
	if err := cmd.load(ctx); err != nil {
		return err
	}
	left, err := optionalTime(cmd.left, cmd.config.Window.Left)
	if err != nil {
		return err
	}
	right, err := optionalTime(cmd.right, cmd.config.Window.Right)
	if err != nil {
		return err
	}
	filter, err := buildFilter(cmd.config.Filter.MinDurationMs, cmd.config.Filter.Expr, cmd.minDuration, cmd.expr)
	if err != nil {
		return err
	}

	nodes, err := loadFile(cmd.path)
	if err != nil {
		return err
	}
	store, err := ingest(nodes)
	if err != nil {
		return err
	}

	model, err := view.NewModel(store, view.WithFilter(filter))
	if err != nil {
		return err
	}
	if err := model.SetWindow(left, right); err != nil {
		return err
	}

	begin, end := model.Bounds()
	p := message.NewPrinter(language.English)
	p.Fprintf(ctx.Stdout(), "window [%s, %s]: %d events, %d visible\n\n",
		trace.FormatMillis(left), formatEdge(right), end-begin, len(model.Rows()))
	return printRows(ctx.Stdout(), model.Rows())
}

// buildFilter combines the configured filter with command line overrides.
func buildFilter(minMs float64, expr, minOverride, exprOverride string) (view.Filter, error) {
	if minOverride != "" {
		v, err := strconv.ParseFloat(strings.TrimSuffix(minOverride, "ms"), 64)
		if err != nil {
			return nil, errs.Errorf("invalid min-duration %q: %w", minOverride, err)
		}
		minMs = v
	}
	if minMs < 0 {
		return nil, errs.Errorf("negative min-duration %v", minMs)
	}
	if exprOverride != "" {
		expr = exprOverride
	}

	filters := view.All{view.MinDuration(trace.Time(minMs))}
	if expr != "" {
		compiled, err := view.CompileExpr(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, compiled)
	}
	return filters, nil
}

func printRows(w io.Writer, rows []*view.Row) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p.Fprintf(tw, "SEQ\tSTART\tDURATION\tEVENT\tFLAGS\tDOMINANT\n")
	for _, row := range rows {
		printRow(p, tw, row)
	}
	return tw.Flush()
}

func printRow(p *message.Printer, w io.Writer, row *view.Row) {
	description := row.Type.String()
	if len(row.Summary) > 0 {
		description = row.Summary[0].Value
	}
	dominant := ""
	if slices := view.Breakdown(row.Aggregate()); len(slices) > 0 {
		dominant = p.Sprintf("%s %.0f%%", slices[0].Type, slices[0].Percent)
	}
	p.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
		row.Sequence,
		trace.FormatMillis(row.Start),
		trace.FormatMillisPrecision(row.Duration, 3),
		description,
		rowFlags(row),
		dominant)
}

// rowFlags renders A for annotated, L for logs, ! for inconsistent
// durations and P for a pending profile.
func rowFlags(row *view.Row) string {
	var b strings.Builder
	if row.Annotated {
		b.WriteByte('A')
	}
	if row.Logs {
		b.WriteByte('L')
	}
	if row.Inconsistent {
		b.WriteByte('!')
	}
	if row.ProfilePending {
		b.WriteByte('P')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func formatEdge(t trace.Time) string {
	if t.IsLive() {
		return "live"
	}
	return trace.FormatMillis(t)
}
