package chart

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEChartsCount(t *testing.T) {
	t.Parallel()

	ch, err := ECharts{}.New("performance-chart-canvas", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)
	assert.Equal(t, "performance-chart-canvas", ch.ID())

	patch, err := ch.Patch()
	require.NoError(t, err)
	assert.NotContains(t, patch, "__f__")
	assert.Contains(t, patch, `"type":"bar"`)
	assert.Contains(t, patch, `"name":"Locks"`)
	assert.Contains(t, patch, `"name":"Rocks"`)
	assert.Contains(t, patch, `"stack":"picks"`)
	assert.Contains(t, patch, ColorLocks)
	assert.Contains(t, patch, ColorRocks)
	assert.Contains(t, patch, `"2024-01-01"`)
	assert.Contains(t, patch, `"min":0`)
	assert.NotContains(t, patch, `"max":100`)
	assert.Contains(t, patch, FormatInteger.JS())
}

func TestEChartsApplyInPlace(t *testing.T) {
	t.Parallel()

	ch, err := ECharts{}.New("performance-chart-canvas", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)

	require.NoError(t, ch.Apply(Build(scenarioPayload(), ModeRate)))
	assert.Equal(t, "performance-chart-canvas", ch.ID())

	patch, err := ch.Patch()
	require.NoError(t, err)
	assert.Contains(t, patch, `"type":"line"`)
	assert.Contains(t, patch, `"name":"Success Rate"`)
	assert.Contains(t, patch, ColorRate)
	assert.Contains(t, patch, `"max":100`)
	assert.Contains(t, patch, "value.toFixed(1) + '%'")
	assert.NotContains(t, patch, `"name":"Locks"`)

	require.NoError(t, ch.Apply(Build(scenarioPayload(), ModeCount)))
	back, err := ch.Patch()
	require.NoError(t, err)

	fresh, err := ECharts{}.New("performance-chart-canvas", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)
	expected, err := fresh.Patch()
	require.NoError(t, err)
	assert.Equal(t, expected, back)
}

func TestEChartsRender(t *testing.T) {
	t.Parallel()

	ch, err := ECharts{Height: "320px"}.New("performance-chart-canvas", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, ch.Render(context.Background(), &sb))
	html := sb.String()

	assert.Contains(t, html, `<div id="performance-chart-canvas"`)
	assert.Contains(t, html, "height:320px")
	assert.Contains(t, html, `echarts.init(document.getElementById("performance-chart-canvas")`)
	assert.Contains(t, html, "chart.setOption({")

	assert.Contains(t, ch.UpdateScript(), "replaceMerge")
	assert.Contains(t, ch.UpdateScript(), `"performance-chart-canvas"`)
}

func TestEChartsEscapesScript(t *testing.T) {
	t.Parallel()

	p := scenarioPayload()
	p.Dates[0] = "</script><script>alert(1)</script>"

	ch, err := ECharts{}.New("c", Build(p, ModeCount))
	require.NoError(t, err)

	patch, err := ch.Patch()
	require.NoError(t, err)
	assert.NotContains(t, patch, "</script>")
}

func TestEChartsMismatch(t *testing.T) {
	t.Parallel()

	cfg := Build(scenarioPayload(), ModeCount)
	cfg.Series[0].Data = cfg.Series[0].Data[:1]

	_, err := ECharts{}.New("c", cfg)
	assert.Error(t, err)
}

func TestEChartsScripts(t *testing.T) {
	t.Parallel()

	ch, err := ECharts{}.New("c", Build(scenarioPayload(), ModeCount))
	require.NoError(t, err)

	scripts := ch.Scripts()
	require.NotEmpty(t, scripts)
	assert.True(t, strings.HasPrefix(scripts[0], "https://"))
	assert.True(t, strings.HasSuffix(scripts[0], "echarts.min.js"))
}
