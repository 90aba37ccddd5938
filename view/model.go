package view

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zeebo/errs/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"loov.dev/eventview/trace"
)

// Row is the projection of a top-level node inside the current window.
type Row struct {
	Sequence int
	Type     trace.Type
	Start    trace.Time
	Duration trace.Time

	Visible        bool
	Annotated      bool
	Logs           bool
	Inconsistent   bool
	ProfilePending bool

	Summary []trace.Field

	node *trace.Node
}

// Aggregate returns a copy of the per-type self-time of the row's subtree.
func (row *Row) Aggregate() trace.Aggregate {
	agg, ok := row.node.Aggregate()
	if !ok {
		return nil
	}
	return agg.Clone()
}

// Model maintains the rows of the events inside a time window.
//
// Changing the window or the filter rebuilds every row. While the window
// follows the live edge, arriving events are appended without touching the
// existing rows.
//
// Model is not safe for concurrent use; all calls must come from the
// goroutine that feeds events.
type Model struct {
	store   *trace.Store
	capture uuid.UUID
	timers  *trace.Timers
	filter  Filter

	left, right trace.Time
	begin, end  int
	rows        map[int]*Row
	visible     int

	listeners []Listener
	cancelers []Canceler

	log     *slog.Logger
	metrics *metrics
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(log *slog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithMeterProvider sets where model metrics are reported.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(m *Model) {
		if met, err := newMetrics(provider); err == nil {
			m.metrics = met
		}
	}
}

// WithFilter sets the initial filter instead of DefaultMinDuration.
func WithFilter(filter Filter) Option {
	return func(m *Model) { m.filter = filter }
}

// NewModel creates a model over store. The initial window is empty, [0, 0].
func NewModel(store *trace.Store, opts ...Option) (*Model, error) {
	m := &Model{
		store:  store,
		filter: MinDuration(DefaultMinDuration),
		rows:   make(map[int]*Row),
		log:    slog.Default().With("component", "view"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		met, err := newMetrics(otel.GetMeterProvider())
		if err != nil {
			return nil, errs.Wrap(err)
		}
		m.metrics = met
	}
	m.adoptCapture()
	m.rebuild()
	return m, nil
}

// Reset starts a new capture. The store and the timer registry are cleared
// and the rows of the current window are rebuilt.
func (m *Model) Reset() {
	m.store.Reset()
	m.sync()
}

// adoptCapture rebinds the model to the store's current capture and reports
// whether it changed.
func (m *Model) adoptCapture() bool {
	if m.timers != nil && m.capture == m.store.Capture() {
		return false
	}
	m.capture = m.store.Capture()
	m.timers = trace.NewTimers()
	for i := 0; i < m.store.Len(); i++ {
		m.timers.Observe(m.store.At(i))
	}
	return true
}

// sync rebuilds when the store was reset behind the model's back.
func (m *Model) sync() {
	if m.adoptCapture() {
		m.rebuild()
	}
}

// Subscribe registers a listener for row notifications.
func (m *Model) Subscribe(l Listener) { m.listeners = append(m.listeners, l) }

// Track registers a collaborator whose pending lookups are cancelled on rebuild.
func (m *Model) Track(c Canceler) { m.cancelers = append(m.cancelers, c) }

// Store returns the underlying event store.
func (m *Model) Store() *trace.Store { return m.store }

// Window returns the current window.
func (m *Model) Window() (left, right trace.Time) { return m.left, m.right }

// Bounds returns the store range of the current window.
func (m *Model) Bounds() (begin, end int) { return m.begin, m.end }

// Live reports whether the window follows newly arriving events.
func (m *Model) Live() bool { return m.right.IsLive() }

// SetWindow selects the events starting in [left, right] and rebuilds all
// rows. Use trace.Live as right to follow arriving events. On error the
// previous window is kept.
func (m *Model) SetWindow(left, right trace.Time) error {
	if err := trace.CheckWindow(left, right); err != nil {
		return err
	}
	m.left, m.right = left, right
	m.adoptCapture()
	m.rebuild()
	return nil
}

// SetFilter replaces the visibility filter and rebuilds all rows.
func (m *Model) SetFilter(filter Filter) {
	m.filter = filter
	m.adoptCapture()
	m.rebuild()
}

// SetMinDuration shows only events lasting at least min.
func (m *Model) SetMinDuration(min trace.Time) error {
	if min < 0 || min != min {
		return errs.Errorf("invalid minimum duration %v", min)
	}
	m.SetFilter(MinDuration(min))
	return nil
}

// OnNodeArrived ingests node, whose sequence must equal the store length.
// A malformed node is rejected and leaves both store and rows unchanged.
func (m *Model) OnNodeArrived(node *trace.Node) error {
	m.sync()
	if err := m.store.AppendSequenced(node); err != nil {
		m.metrics.add(m.metrics.rejected, 1)
		m.log.Warn("event rejected", "error", err)
		return err
	}
	m.timers.Observe(node)

	if !m.Live() {
		return nil
	}
	if node.Start < m.left {
		m.begin, m.end = m.store.Len(), m.store.Len()
		return nil
	}

	m.end = m.store.Len()
	row := m.addRow(node)
	m.metrics.add(m.metrics.appended, 1)
	if row.Visible {
		m.notify(Notification{Change: RowAdded, Sequence: row.Sequence})
	}
	return nil
}

// Refresh recomputes the row of sequence after its node changed in place,
// for example when a profile was attached. It reports whether the row is
// part of the current window.
func (m *Model) Refresh(sequence int) bool {
	m.sync()
	row, ok := m.rows[sequence]
	if !ok {
		return false
	}

	// the node was edited in place after it passed the store checks
	if err := trace.Validate(row.node); err != nil {
		m.log.Warn("refreshed event is malformed", "sequence", sequence, "error", err)
	}

	row.node.Invalidate()
	wasVisible := row.Visible
	m.project(row)
	if row.Visible != wasVisible {
		if row.Visible {
			m.visible++
			m.metrics.visibleDelta(1)
		} else {
			m.visible--
			m.metrics.visibleDelta(-1)
		}
	}
	m.metrics.add(m.metrics.refreshed, 1)
	m.notify(Notification{Change: RowInvalidated, Sequence: sequence})
	return true
}

// Rows returns the visible rows of the window in store order. A store
// reset since the last call rebuilds the rows first.
func (m *Model) Rows() []*Row {
	m.sync()
	rows := make([]*Row, 0, m.visible)
	for seq := m.begin; seq < m.end; seq++ {
		if row, ok := m.rows[seq]; ok && row.Visible {
			rows = append(rows, row)
		}
	}
	return rows
}

// Row returns the row of sequence, visible or not.
func (m *Model) Row(sequence int) (*Row, bool) {
	m.sync()
	row, ok := m.rows[sequence]
	return row, ok
}

// AggregateFor returns the per-type self-time of the node with sequence,
// or false when it has not been computed yet.
func (m *Model) AggregateFor(sequence int) (trace.Aggregate, bool) {
	node, ok := m.store.Lookup(sequence)
	if !ok {
		return nil, false
	}
	agg, ok := node.Aggregate()
	if !ok {
		return nil, false
	}
	return agg.Clone(), true
}

// RangeFor returns the store range of events starting in [left, right].
func (m *Model) RangeFor(left, right trace.Time) (begin, end int, err error) {
	return m.store.Range(left, right)
}

// TimeDelta returns the time between the earliest and the latest start of
// the given rows.
func (m *Model) TimeDelta(sequences ...int) (trace.Time, error) {
	if len(sequences) == 0 {
		return 0, nil
	}
	first, last := trace.InvalidRange.Start, trace.InvalidRange.Finish
	for _, seq := range sequences {
		node, ok := m.store.Lookup(seq)
		if !ok {
			return 0, errs.Errorf("unknown sequence %d", seq)
		}
		first = first.Min(node.Start)
		last = last.Max(node.Start)
	}
	return last - first, nil
}

func (m *Model) rebuild() {
	for _, c := range m.cancelers {
		c.CancelPending()
	}

	m.rows = make(map[int]*Row, len(m.rows))
	m.metrics.visibleDelta(-m.visible)
	m.visible = 0

	begin, end, err := m.store.Range(m.left, m.right)
	if err != nil {
		// window was validated before it was stored
		panic(err)
	}
	m.begin, m.end = begin, end
	m.metrics.add(m.metrics.rebuilds, 1)

	m.notify(Notification{Change: WindowReplaced, Sequence: -1})
	for _, node := range m.store.Nodes(begin, end) {
		if row := m.addRow(node); row.Visible {
			m.notify(Notification{Change: RowAdded, Sequence: row.Sequence})
		}
	}
}

func (m *Model) addRow(node *trace.Node) *Row {
	row := &Row{Sequence: node.Sequence, node: node}
	m.project(row)
	m.rows[row.Sequence] = row
	if row.Visible {
		m.visible++
		m.metrics.visibleDelta(1)
	}
	return row
}

// project derives the node state, reusing cached values, and fills row.
func (m *Model) project(row *Row) {
	node := row.node
	_, inconsistent := trace.Derive(node)
	if inconsistent > 0 {
		m.metrics.add(m.metrics.inconsistent, inconsistent)
		m.log.Warn("inconsistent durations",
			"sequence", node.Sequence,
			"type", node.Type.String(),
			"nodes", inconsistent)
	}

	row.Type = node.Type
	row.Start = node.Start
	row.Duration = node.Duration
	row.Annotated = node.HasAnnotations()
	row.Logs = node.HasLogs()
	row.Inconsistent = node.SubtreeInconsistent()
	row.ProfilePending = node.Profile == trace.ProfileProcessing
	row.Summary = trace.Summary(node, m.timers)
	row.Visible = m.filter == nil || m.filter.Visible(node)
}

func (m *Model) notify(n Notification) {
	for _, l := range m.listeners {
		l(n)
	}
}

// IsRejected reports whether err is a malformed-event rejection.
func IsRejected(err error) bool { return errors.Is(err, trace.ErrMalformedEvent) }
