package chart

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ViewMode selects between raw counts and the success rate.
type ViewMode int

const (
	ModeCount ViewMode = iota
	ModeRate
)

func (m ViewMode) String() string {
	if m == ModeRate {
		return "rate"
	}
	return "count"
}

// ParseViewMode accepts "count", "rate" and "" (count).
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "", "count":
		return ModeCount, nil
	case "rate":
		return ModeRate, nil
	}
	return ModeCount, fmt.Errorf("unknown view %q", s)
}

// Other returns the mode the toggle switches to.
func (m ViewMode) Other() ViewMode {
	if m == ModeRate {
		return ModeCount
	}
	return ModeRate
}

// SeriesKind is how a series is drawn.
type SeriesKind string

const (
	KindBar  SeriesKind = "bar"
	KindLine SeriesKind = "line"
)

const (
	ColorLocks = "#22c55e"
	ColorRocks = "#ef4444"
	ColorRate  = "#4f46e5"
)

// ValueFormat is the label and tooltip formatting rule of a config.
type ValueFormat int

const (
	FormatInteger ValueFormat = iota
	FormatPercent
)

// Format renders v the way the chart labels it.
func (f ValueFormat) Format(v float64) string {
	if f == FormatPercent {
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// JS is the same rule as a JavaScript expression over `value`.
func (f ValueFormat) JS() string {
	if f == FormatPercent {
		return "value.toFixed(1) + '%'"
	}
	return "String(Math.round(value))"
}

// Series is one plotted series.
type Series struct {
	Name        string
	Kind        SeriesKind
	Color       string
	YAxis       int
	Data        []float64
	StrokeWidth float64
	MarkerSize  int
	Stack       string
}

// Axis describes the value axis. Max is nil when the axis grows with the data.
type Axis struct {
	Title string
	Min   float64
	Max   *float64
}

// Config is everything a backend needs to draw the chart. It is rebuilt
// from a Payload on every mode change and never mutated afterwards.
type Config struct {
	Mode       ViewMode
	Categories []string
	Series     []Series
	YAxis      Axis
	Format     ValueFormat

	source Payload
}

// Label formats the value of series s at index i.
func (c Config) Label(s, i int) string {
	return c.Format.Format(c.Series[s].Data[i])
}

// Build derives the chart config for mode from p. It does not sort or
// deduplicate dates and never aliases p's slices.
func Build(p Payload, mode ViewMode) Config {
	cfg := Config{
		Mode:       mode,
		Categories: slices.Clone(p.Dates),
		source:     p.clone(),
	}

	switch mode {
	case ModeRate:
		hundred := 100.0
		cfg.Format = FormatPercent
		cfg.YAxis = Axis{Title: "Success Rate (%)", Min: 0, Max: &hundred}
		cfg.Series = []Series{{
			Name:        "Success Rate",
			Kind:        KindLine,
			Color:       ColorRate,
			Data:        slices.Clone(p.SuccessRates),
			StrokeWidth: 3,
			MarkerSize:  4,
		}}
	default:
		cfg.Format = FormatInteger
		cfg.YAxis = Axis{Title: "Count", Min: 0}
		cfg.Series = []Series{
			{
				Name:        "Locks",
				Kind:        KindBar,
				Color:       ColorLocks,
				Data:        slices.Clone(p.LockCounts),
				StrokeWidth: 1,
				Stack:       "picks",
			},
			{
				Name:        "Rocks",
				Kind:        KindBar,
				Color:       ColorRocks,
				Data:        slices.Clone(p.RockCounts),
				StrokeWidth: 1,
				Stack:       "picks",
			},
		}
	}

	return cfg
}
