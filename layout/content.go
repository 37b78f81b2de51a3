package layout

import (
	"fmt"
	"strings"
)

// FontStyle 是可组合的字体样式位：粗体/斜体/下划线/删除线相互独立。
type FontStyle uint8

const (
	StyleBold FontStyle = 1 << iota
	StyleItalic
	StyleUnderline
	StyleStrikethrough

	StyleRegular FontStyle = 0
)

// Has reports whether every bit of f is set.
func (s FontStyle) Has(f FontStyle) bool { return s&f == f }

func (s FontStyle) String() string {
	if s == StyleRegular {
		return "regular"
	}
	var parts []string
	for _, p := range []struct {
		bit  FontStyle
		name string
	}{{StyleBold, "bold"}, {StyleItalic, "italic"}, {StyleUnderline, "underline"}, {StyleStrikethrough, "strikethrough"}} {
		if s.Has(p.bit) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFontStyle maps a single style keyword to its bit.
func ParseFontStyle(word string) (FontStyle, bool) {
	switch strings.ToLower(word) {
	case "regular", "normal":
		return StyleRegular, true
	case "bold", "b":
		return StyleBold, true
	case "italic", "i":
		return StyleItalic, true
	case "underline", "u":
		return StyleUnderline, true
	case "strike", "strikethrough", "strikethru", "s":
		return StyleStrikethrough, true
	default:
		return 0, false
	}
}

// Alignment 是单元格内文本的水平对齐方式。
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment accepts left/center/right (and start/end).
func ParseAlignment(v string) (Alignment, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return AlignLeft, true
	case "center", "centre", "middle":
		return AlignCenter, true
	case "right", "end":
		return AlignRight, true
	default:
		return "", false
	}
}

const (
	// DefaultFontSize is used for fragments without a size, in points.
	DefaultFontSize = 12.0
	lineSpacing     = 1.2
	cellPadding     = 1.2
)

// Fragment is one run of text with its font request.
type Fragment struct {
	Text   string    `json:"text"`
	Family string    `json:"family"`
	Size   float64   `json:"size"` // pt
	Style  FontStyle `json:"style"`
	Embed  bool      `json:"embed"`
}

// LabelContent is the ordered content of one grid cell.
type LabelContent struct {
	Align     Alignment  `json:"align"`
	Fragments []Fragment `json:"fragments"`
}

// NewLabel creates an empty label; an empty alignment means center.
func NewLabel(align Alignment) *LabelContent {
	if align == "" {
		align = AlignCenter
	}
	return &LabelContent{Align: align}
}

// AddText appends a fragment; styles are OR-ed together.
func (l *LabelContent) AddText(text, family string, size float64, embed bool, styles ...FontStyle) *LabelContent {
	var style FontStyle
	for _, s := range styles {
		style |= s
	}
	l.Fragments = append(l.Fragments, Fragment{
		Text:   text,
		Family: family,
		Size:   size,
		Style:  style,
		Embed:  embed,
	})
	return l
}

// Clone returns a deep copy so later edits by the caller do not leak into a sheet.
func (l *LabelContent) Clone() *LabelContent {
	if l == nil {
		return nil
	}
	out := &LabelContent{Align: l.Align}
	out.Fragments = append([]Fragment(nil), l.Fragments...)
	return out
}

// RenderInto 将标签内容排入单元格：片段作为行内文本段依次相接，共享换行；顶部对齐，水平对齐取自标签。
// 同一行的各段按基线对齐。
func (l *LabelContent) RenderInto(cell *TableCell, ts Typesetter, defaultFamily string) error {
	if cell == nil {
		return fmt.Errorf("目标单元格为空")
	}
	if ts == nil {
		return fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	align := l.Align
	if align == "" {
		align = AlignCenter
	}
	cell.Align = align

	runs := make([]Run, 0, len(l.Fragments))
	for _, frag := range l.Fragments {
		if frag.Text == "" {
			continue
		}
		family := frag.Family
		if family == "" {
			family = defaultFamily
		}
		size := frag.Size
		if size <= 0 {
			size = DefaultFontSize
		}
		runs = append(runs, Run{
			Text:     frag.Text,
			Font:     FontRef{Family: family, Style: frag.Style, Embed: frag.Embed},
			FontSize: size * PtToMm,
		})
	}
	if len(runs) == 0 {
		return nil
	}

	x := cell.X + cellPadding
	width := cell.Width - 2*cellPadding
	if width <= 0 {
		width = cell.Width
		x = cell.X
	}
	lines, err := ts.LayoutRuns(runs, width, lineSpacing)
	if err != nil {
		return fmt.Errorf("排版标签文本失败: %w", err)
	}

	cursorY := cell.Y
	for _, ln := range lines {
		cursorY += ln.GapBefore
		var offset float64
		switch align {
		case AlignLeft:
		case AlignRight:
			offset = width - ln.Width
		default:
			offset = (width - ln.Width) / 2
		}
		for _, seg := range ln.Segments {
			if seg.Run < 0 || seg.Run >= len(runs) {
				return fmt.Errorf("排版结果引用了不存在的文本段 %d", seg.Run)
			}
			run := runs[seg.Run]
			cell.Texts = append(cell.Texts, TextBox{
				Content:  seg.Content,
				X:        x + offset + seg.X,
				Y:        cursorY + ln.Ascent - seg.Ascent,
				Width:    seg.Width,
				Height:   ln.Height,
				Font:     run.Font,
				FontSize: run.FontSize,
				Lines:    []TextLine{{Content: seg.Content, Width: seg.Width, Height: ln.Height}},
				Align:    AlignLeft,
			})
		}
		cursorY += ln.Height
	}
	return nil
}
