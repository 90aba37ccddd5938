package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loov.dev/eventview/trace"
	"loov.dev/eventview/view"
)

func TestBreakdown(t *testing.T) {
	slices := view.Breakdown(trace.Aggregate{
		trace.TypePaint:  6,
		trace.TypeLayout: 2,
		trace.TypeDom:    2,
		trace.TypeGC:     0,
	})

	require.Len(t, slices, 3)
	assert.Equal(t, trace.TypePaint, slices[0].Type)
	assert.Equal(t, trace.TypeDom, slices[1].Type)
	assert.Equal(t, trace.TypeLayout, slices[2].Type)
	assert.InDelta(t, 60, slices[0].Percent, 1e-9)
	assert.InDelta(t, 20, slices[1].Percent, 1e-9)
	assert.InDelta(t, 20, slices[2].Percent, 1e-9)
}

func TestBreakdownEmpty(t *testing.T) {
	assert.Empty(t, view.Breakdown(nil))
	assert.Empty(t, view.Breakdown(trace.Aggregate{trace.TypeMark: 0}))
}

func TestChangeString(t *testing.T) {
	assert.Equal(t, "row added", view.RowAdded.String())
	assert.Equal(t, "row invalidated", view.RowInvalidated.String())
	assert.Equal(t, "window replaced", view.WindowReplaced.String())
}
