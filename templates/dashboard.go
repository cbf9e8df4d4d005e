package templates

import (
	"context"
	"io"
	"net/url"
	"sort"
	"strconv"
	"time"

	"picks-dashboard/chart"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

const tailwindCDN = "https://cdn.tailwindcss.com"

// pageWriter collects the first write error so templates can be written as
// straight-line code.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *pageWriter) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *pageWriter) component(ctx context.Context, c templ.Component) {
	if p.err == nil && c != nil {
		p.err = c.Render(ctx, p.w)
	}
}

// Dashboard is the full dashboard page.
func Dashboard(data DashboardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<!doctype html><html lang="en"><head><meta charset="UTF-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
		p.raw(`<title>Picks Dashboard - `)
		p.text(data.SelectedSport)
		p.raw(`</title><script src="` + tailwindCDN + `"></script>`)
		for _, src := range data.Scripts {
			p.raw(`<script src="`)
			p.text(src)
			p.raw(`"></script>`)
		}
		p.raw(`</head><body class="bg-[#F7F0E6] font-sans text-stone-800">`)
		p.raw(`<div class="max-w-6xl mx-auto p-6">`)

		p.raw(`<header class="flex items-center justify-between mb-6"><h1 class="text-3xl font-black">Picks Dashboard</h1>`)
		p.raw(`<p class="text-sm text-stone-500" id="last-updated">`)
		if data.LastUpdated.IsZero() {
			p.raw(`No data imported yet`)
		} else {
			p.text("Updated " + humanize.RelTime(data.LastUpdated, data.Now, "ago", "from now"))
		}
		p.raw(`</p></header>`)

		p.component(ctx, sportSelector(data))
		p.component(ctx, summaryCards(data.Summaries))
		p.component(ctx, chartCard(data))

		p.raw(`</div></body></html>`)
		return p.err
	})
}

func sportSelector(data DashboardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<form method="get" action="/dashboard" class="flex gap-3 items-end mb-6">`)
		p.raw(`<div><label for="sport" class="block text-sm font-semibold mb-1">Sport</label>`)
		p.raw(`<select id="sport" name="sport" class="p-3 border rounded-md">`)
		for _, sport := range data.Sports {
			p.raw(`<option value="`)
			p.text(sport)
			p.raw(`"`)
			if sport == data.SelectedSport {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(sportLabel(sport))
			p.raw(`</option>`)
		}
		p.raw(`</select></div>`)
		p.raw(`<input type="hidden" name="view" value="` + data.Mode.String() + `">`)
		p.raw(`<button type="submit" class="bg-[#5D4037] text-white font-bold py-3 px-6 rounded-xl">Show</button>`)
		p.raw(`</form>`)
		return p.err
	})
}

func summaryCards(summaries []SportSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<section class="grid grid-cols-2 md:grid-cols-4 gap-4 mb-6" id="sport-summaries">`)
		for _, s := range summaries {
			p.raw(`<div class="bg-white/90 rounded-3xl p-4 shadow" data-sport="`)
			p.text(s.Sport)
			p.raw(`"><div class="text-sm font-semibold text-stone-500">`)
			p.text(sportLabel(s.Sport))
			p.raw(`</div>`)
			if s.Total() == 0 {
				p.raw(`<div class="text-2xl font-extrabold">-</div><div class="text-xs text-stone-500">No graded picks</div></div>`)
				continue
			}
			p.raw(`<div class="text-2xl font-extrabold">`)
			p.text(chart.FormatPercent.Format(s.SuccessRate))
			p.raw(`</div><div class="text-xs text-stone-500">`)
			p.text(humanize.Comma(s.Locks) + " locks / " + humanize.Comma(s.Rocks) + " rocks")
			p.raw(`</div><img class="mt-2 w-full h-10" alt="" src="/sparkline?sport=`)
			p.text(url.QueryEscape(s.Sport))
			p.raw(`"></div>`)
		}
		p.raw(`</section>`)
		return p.err
	})
}

func chartCard(data DashboardPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		p.raw(`<section class="bg-white/90 rounded-3xl p-6 shadow-2xl">`)
		p.raw(`<div class="flex items-center justify-between mb-4"><h2 class="text-xl font-bold">Performance, last `)
		p.text(strconv.Itoa(data.WindowDays))
		p.raw(` days</h2>`)
		if len(data.Patches) > 0 {
			p.raw(`<label class="flex items-center gap-2 text-sm font-semibold" for="chartTypeToggle">`)
			p.raw(`<input type="checkbox" id="chartTypeToggle"`)
			if data.Mode == chart.ModeRate {
				p.raw(` checked`)
			}
			p.raw(`> Show success rate</label>`)
		}
		p.raw(`</div>`)

		p.component(ctx, data.Chart)
		p.component(ctx, chartData(data.ChartData))

		if len(data.Patches) > 0 {
			p.raw(`<script type="text/javascript">(function () {`)
			p.raw(`var toggle = document.getElementById('chartTypeToggle');`)
			p.raw(`if (!toggle) { return; }`)
			p.raw(`var patches = {`)
			modes := []chart.ViewMode{chart.ModeCount, chart.ModeRate}
			for i, mode := range modes {
				if i > 0 {
					p.raw(`, `)
				}
				p.raw(mode.String() + `: ` + data.Patches[mode])
			}
			p.raw(`};`)
			p.raw(`toggle.addEventListener('change', function () {`)
			p.raw(`var patch = patches[toggle.checked ? 'rate' : 'count'];`)
			p.raw(data.UpdateScript)
			p.raw(`});})();</script>`)
		}

		p.raw(`</section>`)
		return p.err
	})
}

// chartData is the hidden element carrying the raw chart series.
func chartData(attrs chart.Attrs) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}

		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		p.raw(`<div id="chart-data" class="hidden"`)
		for _, k := range keys {
			p.raw(` ` + templ.EscapeString(k) + `="`)
			p.text(attrs[k])
			p.raw(`"`)
		}
		p.raw(`></div>`)
		return p.err
	})
}

func sportLabel(sport string) string {
	switch sport {
	case "MarchMadness":
		return "March Madness"
	case "All":
		return "All Sports"
	}
	return sport
}

// ErrorPage is a minimal page for request-level failures.
func ErrorPage(title, message string, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		p.raw(`<!doctype html><html lang="en"><head><meta charset="UTF-8"><title>`)
		p.text(title)
		p.raw(`</title><script src="` + tailwindCDN + `"></script></head><body class="bg-[#F7F0E6] font-sans text-stone-800">`)
		p.raw(`<div class="min-h-screen flex items-center justify-center"><div class="max-w-xl w-full bg-white/90 rounded-3xl p-6 shadow-2xl">`)
		p.raw(`<h1 class="text-2xl font-black mb-2">`)
		p.text(title)
		p.raw(`</h1><p>`)
		p.text(message)
		p.raw(`</p><p class="text-xs text-stone-500 mt-4">`)
		p.text(now.UTC().Format(time.RFC1123))
		p.raw(`</p></div></div></body></html>`)
		return p.err
	})
}
