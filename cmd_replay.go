package main

import (
	"log/slog"
	"sort"
	"text/tabwriter"

	"github.com/zeebo/clingy"
	"github.com/zeebo/errs/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"loov.dev/eventview/trace"
	"loov.dev/eventview/view"
)

type cmdReplay struct {
	common
	path        string
	rate        float64
	burst       int
	minDuration string
	expr        string
	stats       bool
}

func (cmd *cmdReplay) Setup(params clingy.Parameters) {
	cmd.common.setup(params)
	cmd.rate = params.Flag("rate", "Events per second, 0 for unlimited; defaults to the configured rate", -1.0,
		clingy.Transform(parseFloat)).(float64)
	cmd.burst = params.Flag("burst", "Events delivered at once; defaults to the configured burst", 0,
		clingy.Transform(parseInt)).(int)
	cmd.minDuration = params.Flag("min-duration", "Hide events shorter than this many ms", "").(string)
	cmd.expr = params.Flag("expr", "CEL expression selecting visible events", "").(string)
	cmd.stats = params.Flag("stats", "Print model metrics when done", false,
		clingy.Transform(parseBool), clingy.Boolean).(bool)
	cmd.path = params.Arg("file", "Capture to replay").(string)
}

func (cmd *cmdReplay) Execute(ctx clingy.Context) error {
	if err := cmd.load(ctx); err != nil {
		return err
	}
	log := slog.Default().With("component", "replay")

	limit, burst := rate.Limit(cmd.config.Replay.Rate), cmd.config.Replay.Burst
	if cmd.rate >= 0 {
		limit = rate.Limit(cmd.rate)
	}
	if cmd.burst > 0 {
		burst = cmd.burst
	}
	if limit == 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, burst)

	filter, err := buildFilter(cmd.config.Filter.MinDurationMs, cmd.config.Filter.Expr, cmd.minDuration, cmd.expr)
	if err != nil {
		return err
	}

	nodes, err := loadFile(cmd.path)
	if err != nil {
		return err
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	store := trace.NewStore()
	model, err := view.NewModel(store,
		view.WithFilter(filter),
		view.WithMeterProvider(provider),
		view.WithLogger(log))
	if err != nil {
		return err
	}
	if err := model.SetWindow(0, trace.Live); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(ctx.Stdout(), 0, 4, 2, ' ', 0)
	p.Fprintf(tw, "SEQ\tSTART\tDURATION\tEVENT\tFLAGS\tDOMINANT\n")
	model.Subscribe(func(n view.Notification) {
		if n.Change != view.RowAdded {
			return
		}
		if row, ok := model.Row(n.Sequence); ok {
			printRow(p, tw, row)
			_ = tw.Flush()
		}
	})

	rejected := 0
	for _, node := range nodes {
		if err := limiter.Wait(ctx); err != nil {
			return errs.Wrap(err)
		}
		node.Sequence = store.Len()
		if err := model.OnNodeArrived(node); err != nil {
			if !view.IsRejected(err) {
				return err
			}
			rejected++
		}
	}
	if err := tw.Flush(); err != nil {
		return errs.Wrap(err)
	}

	p.Fprintf(ctx.Stdout(), "\nreplayed %d events, %d rejected, %d visible\n",
		len(nodes), rejected, len(model.Rows()))

	if cmd.stats {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			return errs.Wrap(err)
		}
		totals := metricTotals(rm)
		names := make([]string, 0, len(totals))
		for name := range totals {
			names = append(names, name)
		}
		sort.Strings(names)

		p.Fprintln(ctx.Stdout())
		tw := tabwriter.NewWriter(ctx.Stdout(), 0, 4, 2, ' ', 0)
		for _, name := range names {
			p.Fprintf(tw, "%s\t%d\n", name, totals[name])
		}
		return tw.Flush()
	}
	return nil
}

// metricTotals sums the data points of every integer sum.
func metricTotals(rm metricdata.ResourceMetrics) map[string]int64 {
	totals := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}
