package chart

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// funcMarkers wrap JavaScript functions in go-echarts option JSON.
var funcMarkers = regexp.MustCompile(`(__f__")|("__f__)|(__f__)`)

// ECharts draws interactive charts with Apache ECharts through go-echarts.
type ECharts struct {
	Width  string
	Height string
}

func (ECharts) Name() string { return "echarts" }

func (b ECharts) New(id string, cfg Config) (Chart, error) {
	width, height := b.Width, b.Height
	if width == "" {
		width = "100%"
	}
	if height == "" {
		height = "400px"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: id, Width: width, Height: height}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "top"}),
		charts.WithAnimation(true),
	)

	c := &echartsChart{bar: bar}
	if err := c.Apply(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

type echartsChart struct {
	bar *charts.Bar
}

func (c *echartsChart) ID() string {
	return c.bar.ChartID
}

func (c *echartsChart) Apply(cfg Config) error {
	for _, s := range cfg.Series {
		if len(s.Data) != len(cfg.Categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Data), len(cfg.Categories))
		}
	}

	valueFn := opts.FuncOpts("function (value) { return " + cfg.Format.JS() + "; }")
	labelFn := opts.FuncOpts("function (params) { var value = params.value; return " + cfg.Format.JS() + "; }")

	yAxis := opts.YAxis{
		Name:      cfg.YAxis.Title,
		Type:      "value",
		Min:       cfg.YAxis.Min,
		AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Formatter: valueFn},
	}
	if cfg.YAxis.Max != nil {
		yAxis.Max = *cfg.YAxis.Max
	}

	colors := make([]string, 0, len(cfg.Series))
	series := make([]charts.SingleSeries, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		colors = append(colors, s.Color)
		ss := charts.SingleSeries{
			Name:       s.Name,
			Type:       string(s.Kind),
			Stack:      s.Stack,
			YAxisIndex: s.YAxis,
			Color:      s.Color,
			ItemStyle:  &opts.ItemStyle{Color: s.Color, BorderColor: s.Color, BorderWidth: float32(s.StrokeWidth)},
			Label:      &opts.Label{Show: opts.Bool(true), Formatter: labelFn},
		}
		switch s.Kind {
		case KindLine:
			data := make([]opts.LineData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.LineData{Value: v}
			}
			ss.Data = data
			ss.ShowSymbol = opts.Bool(s.MarkerSize > 0)
			ss.SymbolSize = s.MarkerSize * 2
			ss.LineStyle = &opts.LineStyle{Color: s.Color, Width: float32(s.StrokeWidth)}
			ss.Label.Position = "top"
		default:
			data := make([]opts.BarData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.BarData{Value: v}
			}
			ss.Data = data
			ss.Label.Position = "inside"
		}
		series = append(series, ss)
	}

	categories := append([]string(nil), cfg.Categories...)

	c.bar.MultiSeries = series
	c.bar.SetXAxis(categories)
	c.bar.XAxisList = []opts.XAxis{{Type: "category", Data: categories}}
	c.bar.YAxisList = []opts.YAxis{yAxis}
	c.bar.SetGlobalOptions(
		charts.WithColorsOpts(colors),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis", ValueFormatter: valueFn}),
	)
	return nil
}

// Patch returns the full ECharts option object for the current config.
func (c *echartsChart) Patch() (string, error) {
	option := funcMarkers.ReplaceAllString(string(c.bar.JSONNotEscaped()), "")
	option = strings.ReplaceAll(strings.TrimSpace(option), "</", `<\/`)
	if option == "" {
		return "", fmt.Errorf("chart %s: empty option", c.ID())
	}
	return option, nil
}

func (c *echartsChart) UpdateScript() string {
	return "echarts.getInstanceByDom(document.getElementById(" + jsString(c.ID()) +
		")).setOption(patch, {replaceMerge: ['series', 'yAxis']});"
}

func (c *echartsChart) Scripts() []string {
	scripts := make([]string, 0, len(c.bar.JSAssets.Values))
	for _, v := range c.bar.JSAssets.Values {
		if !strings.HasPrefix(v, "http") {
			v = c.bar.AssetsHost + v
		}
		scripts = append(scripts, v)
	}
	return scripts
}

func (c *echartsChart) Render(ctx context.Context, w io.Writer) error {
	option, err := c.Patch()
	if err != nil {
		return err
	}
	ini := c.bar.Initialization
	id := jsString(c.ID())
	_, err = io.WriteString(w, `<div id="`+templ.EscapeString(c.ID())+`" class="chart-canvas" style="width:`+
		templ.EscapeString(ini.Width)+`;height:`+templ.EscapeString(ini.Height)+`;"></div>`+
		`<script type="text/javascript">(function () {`+
		`var chart = echarts.init(document.getElementById(`+id+`), `+jsString(ini.Theme)+`, {renderer: `+jsString(ini.Renderer)+`});`+
		`chart.setOption(`+option+`);`+
		`window.addEventListener('resize', function () { chart.resize(); });`+
		`})();</script>`)
	return err
}

func jsString(s string) string {
	q, err := templ.JSONString(s)
	if err != nil {
		return `""`
	}
	return q
}

var _ Backend = ECharts{}
