// Package creator is the in-process API: add labels, then create one PDF.
package creator

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/protect"
	"github.com/ByLCY/labelsheet/renderer"
	"github.com/ByLCY/labelsheet/sheet"
)

// ErrNoLabels is returned by Create when nothing was added.
var ErrNoLabels = errors.New("no labels added")

// Engine renders documents and typesets text; the canvas renderer is one.
type Engine interface {
	renderer.Renderer
	layout.Typesetter
}

// Creator collects labels for one label definition. A Creator is used by one caller at a time;
// independent creators may run concurrently.
type Creator struct {
	def    sheet.Definition
	engine Engine
	labels []*layout.LabelContent

	logger        *zap.Logger
	borders       bool
	protect       bool
	expiry        time.Duration
	now           func() time.Time
	meta          layout.DocumentMeta
	defaultFamily string
}

// Option configures a Creator.
type Option func(*Creator)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Creator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBorders draws a border around every occupied row.
func WithBorders(enabled bool) Option {
	return func(c *Creator) { c.borders = enabled }
}

// WithProtection adds the print-protection overlay, expiring offset after Create.
func WithProtection(offset time.Duration) Option {
	return func(c *Creator) {
		c.protect = true
		c.expiry = offset
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Creator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMeta sets the PDF document information.
func WithMeta(meta layout.DocumentMeta) Option {
	return func(c *Creator) { c.meta = meta }
}

// WithDefaultFamily sets the family for fragments without one.
func WithDefaultFamily(family string) Option {
	return func(c *Creator) { c.defaultFamily = family }
}

// New validates def and returns an empty creator.
func New(def sheet.Definition, engine Engine, opts ...Option) (*Creator, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("creator: engine 不能为空")
	}
	c := &Creator{
		def:    def,
		engine: engine,
		logger: zap.NewNop(),
		now:    time.Now,
		meta:   layout.DocumentMeta{Creator: "labelsheet"},
	}
	if df, ok := engine.(interface{ DefaultFamily() string }); ok {
		c.defaultFamily = df.DefaultFamily()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Definition returns the label definition.
func (c *Creator) Definition() sheet.Definition { return c.def }

// AddLabel appends a copy of l; later changes to l do not affect the sheet.
func (c *Creator) AddLabel(l *layout.LabelContent) {
	if l == nil {
		l = layout.NewLabel("")
	}
	c.labels = append(c.labels, l.Clone())
}

// Skip leaves the next n positions blank, e.g. to continue on a partially used sheet.
func (c *Creator) Skip(n int) {
	for i := 0; i < n; i++ {
		c.labels = append(c.labels, nil)
	}
}

// Len is the number of positions consumed so far (labels and skipped).
func (c *Creator) Len() int { return len(c.labels) }

// Layout runs pagination and composition without rendering.
func (c *Creator) Layout() ([]layout.PageLayout, *layout.Result, error) {
	pages, err := layout.Paginate(c.def, c.labels)
	if err != nil {
		return nil, nil, err
	}
	res, err := layout.Compose(c.def, pages, c.meta, layout.BuildOptions{
		Typesetter:    c.engine,
		DefaultFamily: c.defaultFamily,
		Borders:       c.borders,
	})
	if err != nil {
		return nil, nil, err
	}
	return pages, res, nil
}

// Create 生成 PDF，返回位于起始位置的 Reader。
func (c *Creator) Create() (*bytes.Reader, error) {
	if len(c.labels) == 0 {
		return nil, ErrNoLabels
	}
	started := c.now()
	pages, res, err := c.Layout()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("labels paginated",
		zap.String("definition", c.def.Name),
		zap.Int("labels", len(c.labels)),
		zap.Int("pages", len(pages)),
	)

	out, err := c.engine.Render(res)
	if err != nil {
		return nil, err
	}

	if c.protect {
		st := protect.NewState(started, c.expiry)
		out, err = protect.Apply(out, st)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("print protection applied", zap.Time("expires", st.Expiration))
	}

	c.logger.Info("label document created",
		zap.String("definition", c.def.Name),
		zap.Int("pages", len(pages)),
		zap.Int("bytes", len(out)),
		zap.Bool("protected", c.protect),
	)
	return bytes.NewReader(out), nil
}
