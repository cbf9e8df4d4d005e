package chart

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Messages shown in place of the chart.
const (
	NoDataMessage      = "No chart data yet. Check back once picks have been graded."
	ErrorMessagePrefix = "Error loading chart: "
)

// NewBackend returns the backend registered under name. An empty name
// selects echarts.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "", "echarts":
		return ECharts{}, nil
	case "plot":
		return Plot{}, nil
	}
	return nil, fmt.Errorf("unknown chart backend %q", name)
}

// Panel runs the whole chart pipeline for one page and contains every
// failure inside the chart container.
type Panel struct {
	r *Renderer
	l *zap.Logger
}

func NewPanel(r *Renderer, l *zap.Logger) *Panel {
	if l == nil {
		l = zap.NewNop()
	}
	return &Panel{r: r, l: l.Named("panel")}
}

// Load extracts the payload from src, builds the config for mode and mounts
// the chart into containerID.
//
// The returned error is informational: by the time Load returns, the
// container holds either the chart or a banner describing what went wrong.
// The handle is nil unless the chart was mounted.
func (p *Panel) Load(page *Page, containerID string, src Source, mode ViewMode) (*Handle, error) {
	c := page.Container(containerID)
	if c == nil {
		err := &RenderError{Kind: KindContainerNotFound, Container: containerID}
		p.l.Warn("chart container missing, skipping", zap.String("container", containerID))
		return nil, err
	}

	payload, err := Extract(src)
	switch {
	case errors.Is(err, ErrEmpty):
		c.Set(InfoBanner(NoDataMessage))
		return nil, err
	case err != nil:
		c.Set(ErrorBanner(ErrorMessagePrefix + err.Error()))
		p.l.Warn("chart data rejected", zap.String("container", containerID), zap.Error(err))
		return nil, err
	}

	h, err := p.r.Mount(page, containerID, Build(payload, mode))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Patches returns the client-side update for both view modes. It toggles
// the handle to the other mode and back, so the handle ends where it began.
func (p *Panel) Patches(h *Handle) (map[ViewMode]string, error) {
	start := h.Mode()
	patches := make(map[ViewMode]string, 2)

	for _, mode := range []ViewMode{start.Other(), start} {
		if err := p.r.Toggle(h, mode); err != nil {
			return nil, err
		}
		patch, err := h.Chart().Patch()
		if err != nil {
			return nil, err
		}
		patches[mode] = patch
	}
	return patches, nil
}
