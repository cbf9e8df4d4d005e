package chart

import (
	"fmt"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

// Backend builds charts with one charting library.
type Backend interface {
	Name() string
	New(id string, cfg Config) (Chart, error)
}

// Chart is a live chart instance owned by a Handle.
type Chart interface {
	templ.Component

	// ID is the element id the chart draws into. It never changes.
	ID() string

	// Apply replaces the chart options with cfg in place.
	Apply(cfg Config) error

	// Patch is a JavaScript expression the page hands to UpdateScript to
	// bring the client-side chart to the current config.
	Patch() (string, error)

	// UpdateScript is a JavaScript statement applying a variable named
	// `patch` to the chart element.
	UpdateScript() string

	// Scripts lists the script URLs the page loads before the chart.
	Scripts() []string
}

// State is the lifecycle state of a Handle.
type State int

const (
	StateUnmounted State = iota
	StateMounted
	StateMountFailed
)

func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateMountFailed:
		return "mount failed"
	}
	return "unmounted"
}

// Handle ties a mounted chart to its container.
type Handle struct {
	container *Container
	chart     Chart
	config    Config
	state     State
}

func (h *Handle) State() State { return h.state }

func (h *Handle) Config() Config { return h.config }

func (h *Handle) Mode() ViewMode { return h.config.Mode }

func (h *Handle) Chart() Chart { return h.chart }

func (h *Handle) Container() *Container { return h.container }

// Renderer mounts charts into page containers using one Backend.
type Renderer struct {
	backend Backend
	l       *zap.Logger
}

// NewRenderer returns a Renderer drawing with backend.
func NewRenderer(backend Backend, l *zap.Logger) *Renderer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Renderer{
		backend: backend,
		l:       l.Named("chart").With(zap.String("backend", backend.Name())),
	}
}

// Backend returns the backend charts are drawn with.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// Mount creates the chart for cfg inside the container with the given id.
//
// When the backend fails, the container shows an error banner instead of the
// chart and the returned handle is in StateMountFailed.
func (r *Renderer) Mount(page *Page, containerID string, cfg Config) (*Handle, error) {
	c := page.Container(containerID)
	if c == nil {
		return nil, &RenderError{Kind: KindContainerNotFound, Container: containerID}
	}

	h := &Handle{container: c, config: cfg}

	ch, err := r.construct(containerID+"-canvas", cfg)
	if err != nil {
		h.state = StateMountFailed
		rerr := &RenderError{Kind: KindLibraryFailure, Container: containerID, Err: err}
		c.Set(ErrorBanner(ErrorMessagePrefix + err.Error()))
		r.l.Error("mount failed", zap.String("container", containerID), zap.Error(err))
		return h, rerr
	}

	h.chart = ch
	h.state = StateMounted
	c.Set(ch)
	r.l.Debug("mounted",
		zap.String("container", containerID),
		zap.Stringer("mode", cfg.Mode),
		zap.Int("series", len(cfg.Series)),
		zap.Int("points", len(cfg.Categories)),
	)
	return h, nil
}

// Update applies cfg to the mounted chart without recreating it.
func (r *Renderer) Update(h *Handle, cfg Config) error {
	if h == nil || h.state != StateMounted {
		return ErrNotMounted
	}

	if err := r.apply(h.chart, cfg); err != nil {
		h.state = StateMountFailed
		h.container.Set(ErrorBanner(ErrorMessagePrefix + err.Error()))
		r.l.Error("update failed", zap.String("container", h.container.ID()), zap.Error(err))
		return &RenderError{Kind: KindLibraryFailure, Container: h.container.ID(), Err: err}
	}

	h.config = cfg
	return nil
}

// Toggle rebuilds the config for mode from the data the handle was built
// from and applies it in place.
func (r *Renderer) Toggle(h *Handle, mode ViewMode) error {
	if h == nil || h.state != StateMounted {
		return ErrNotMounted
	}
	return r.Update(h, Build(h.config.source, mode))
}

func (r *Renderer) construct(id string, cfg Config) (ch Chart, err error) {
	defer func() {
		if p := recover(); p != nil {
			ch, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return r.backend.New(id, cfg)
}

func (r *Renderer) apply(ch Chart, cfg Config) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return ch.Apply(cfg)
}
