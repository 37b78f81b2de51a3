package creator

import (
	"bytes"

	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/sheet"
)

// SingleSheet 把同一个标签填满一整张标签纸。
type SingleSheet struct {
	creator *Creator
	label   *layout.LabelContent
}

// NewSingleSheet returns a creator for one full sheet of identical labels.
func NewSingleSheet(def sheet.Definition, engine Engine, opts ...Option) (*SingleSheet, error) {
	c, err := New(def, engine, opts...)
	if err != nil {
		return nil, err
	}
	return &SingleSheet{creator: c, label: layout.NewLabel("")}, nil
}

// SetAlignment changes the horizontal alignment of the label.
func (s *SingleSheet) SetAlignment(a layout.Alignment) *SingleSheet {
	if a == "" {
		a = layout.AlignCenter
	}
	s.label.Align = a
	return s
}

// AddText appends a fragment to the repeated label.
func (s *SingleSheet) AddText(text, family string, size float64, embed bool, styles ...layout.FontStyle) *SingleSheet {
	s.label.AddText(text, family, size, embed, styles...)
	return s
}

// Create fills every position of one sheet and renders it.
func (s *SingleSheet) Create() (*bytes.Reader, error) {
	if len(s.label.Fragments) == 0 {
		return nil, ErrNoLabels
	}
	s.creator.labels = s.creator.labels[:0]
	for i := 0; i < s.creator.def.Capacity(); i++ {
		s.creator.AddLabel(s.label)
	}
	return s.creator.Create()
}
