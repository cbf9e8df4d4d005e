package templates

import (
	"time"

	"picks-dashboard/chart"

	"github.com/a-h/templ"
)

type SportSummary struct {
	Sport       string    `json:"sport"`
	Locks       int64     `json:"locks"`
	Rocks       int64     `json:"rocks"`
	SuccessRate float64   `json:"success_rate"`
	Updated     time.Time `json:"updated"`
}

// Total is the number of graded picks.
func (s SportSummary) Total() int64 {
	return s.Locks + s.Rocks
}

type DashboardPageData struct {
	Sports        []string
	SelectedSport string
	Mode          chart.ViewMode
	WindowDays    int

	// Chart is the rendered chart container; ChartData is what the page
	// embeds on #chart-data for reference and client-side reads.
	Chart     templ.Component
	ChartData chart.Attrs

	// Patches holds the client-side update for each view mode. Empty when
	// the chart did not mount, which leaves the toggle inert.
	Patches      map[chart.ViewMode]string
	UpdateScript string
	Scripts      []string

	Summaries   []SportSummary
	LastUpdated time.Time
	Now         time.Time
}
