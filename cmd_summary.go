package main

import (
	"text/tabwriter"

	"github.com/zeebo/clingy"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"loov.dev/eventview/trace"
	"loov.dev/eventview/view"
)

type cmdSummary struct {
	common
	path string
}

func (cmd *cmdSummary) Setup(params clingy.Parameters) {
	cmd.common.setup(params)
	cmd.path = params.Arg("file", "Capture to summarize").(string)
}

func (cmd *cmdSummary) Execute(ctx clingy.Context) error {
	if err := cmd.load(ctx); err != nil {
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

	total := trace.Aggregate{}
	inconsistent := 0
	for _, node := range store.Nodes(0, store.Len()) {
		agg, n := trace.Derive(node)
		inconsistent += n
		for t, d := range agg {
			total[t] += d
		}
	}

	p := message.NewPrinter(language.English)
	extent := store.Extent()
	p.Fprintf(ctx.Stdout(), "capture  %v\n", store.Capture())
	p.Fprintf(ctx.Stdout(), "events   %d\n", store.Len())
	if store.Len() > 0 {
		p.Fprintf(ctx.Stdout(), "extent   %s - %s\n", trace.FormatMillis(extent.Start), trace.FormatMillis(extent.Finish))
	}
	if inconsistent > 0 {
		p.Fprintf(ctx.Stdout(), "inconsistent durations  %d\n", inconsistent)
	}
	p.Fprintln(ctx.Stdout())

	tw := tabwriter.NewWriter(ctx.Stdout(), 0, 4, 2, ' ', 0)
	p.Fprintf(tw, "TYPE\tSELF TIME\tSHARE\n")
	for _, slice := range view.Breakdown(total) {
		p.Fprintf(tw, "%s\t%s\t%.1f%%\n", slice.Type, trace.FormatMillisPrecision(slice.Duration, 3), slice.Percent)
	}
	return tw.Flush()
}
