package chart

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPlotRender(t *testing.T) {
	t.Parallel()

	for _, mode := range []ViewMode{ModeCount, ModeRate} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()

			ch, err := Plot{}.New("performance-chart-canvas", Build(scenarioPayload(), mode))
			require.NoError(t, err)

			var sb strings.Builder
			require.NoError(t, ch.Render(context.Background(), &sb))
			html := sb.String()
			assert.True(t, strings.HasPrefix(html, `<div id="performance-chart-canvas" class="chart-canvas">`))
			assert.Contains(t, html, "<svg")
			assert.Contains(t, html, "2024-01-02")

			patch, err := ch.Patch()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(patch, `"`))
			assert.NotContains(t, patch, "<svg")
		})
	}
}

func TestPlotRatePercentTicks(t *testing.T) {
	t.Parallel()

	ch, err := Plot{}.New("c", Build(scenarioPayload(), ModeRate))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, ch.Render(context.Background(), &sb))
	assert.Contains(t, sb.String(), "100.0%")
}

func TestPlotApplyKeepsElement(t *testing.T) {
	t.Parallel()

	ch, err := Plot{}.New("c", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)
	before, err := ch.Patch()
	require.NoError(t, err)

	require.NoError(t, ch.Apply(Build(scenarioPayload(), ModeRate)))
	after, err := ch.Patch()
	require.NoError(t, err)

	assert.Equal(t, "c", ch.ID())
	assert.NotEqual(t, before, after)
	assert.Equal(t, `document.getElementById("c").innerHTML = patch;`, ch.UpdateScript())
}

func TestPlotEmptyIsLibraryFailure(t *testing.T) {
	t.Parallel()

	r := NewRenderer(Plot{}, zaptest.NewLogger(t))
	page := NewPage("performance-chart")

	h, err := r.Mount(page, "performance-chart", Build(Payload{}, ModeCount))
	require.ErrorIs(t, err, ErrLibraryFailure)
	assert.Equal(t, StateMountFailed, h.State())
	assert.Contains(t, render(t, page.Container("performance-chart")), "no categories to plot")
}
