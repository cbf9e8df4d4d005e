package chart

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Page is the set of containers a chart can be rendered into, addressed by
// element id.
type Page struct {
	containers map[string]*Container
}

// NewPage creates a page with an empty container for each id.
func NewPage(ids ...string) *Page {
	p := &Page{containers: make(map[string]*Container, len(ids))}
	for _, id := range ids {
		p.containers[id] = &Container{id: id}
	}
	return p
}

// Container returns the container with the given id, or nil.
func (p *Page) Container(id string) *Container {
	if p == nil {
		return nil
	}
	return p.containers[id]
}

// Container is a region of the page whose content is replaced as a whole.
type Container struct {
	id      string
	content templ.Component
}

func (c *Container) ID() string { return c.id }

// Set replaces the container content.
func (c *Container) Set(content templ.Component) {
	c.content = content
}

// Content returns the current content, nil when nothing was set.
func (c *Container) Content() templ.Component {
	return c.content
}

// Render writes the container element and its content.
func (c *Container) Render(ctx context.Context, w io.Writer) error {
	if _, err := io.WriteString(w, `<div id="`+templ.EscapeString(c.id)+`" class="chart-container">`); err != nil {
		return err
	}
	if c.content != nil {
		if err := c.content.Render(ctx, w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</div>`)
	return err
}

// InfoBanner is shown when there is no data to plot yet.
func InfoBanner(message string) templ.Component {
	return banner("alert alert-warning", "info", message)
}

// ErrorBanner is shown when the data or the chart could not be loaded.
func ErrorBanner(message string) templ.Component {
	return banner("alert alert-danger", "error", message)
}

func banner(class, kind, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="`+class+`" role="alert" data-banner="`+kind+`">`+
			templ.EscapeString(message)+`</div>`)
		return err
	})
}
