package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/labelsheet/fonts"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/renderer"
)

const rowBorderWidth = 0.2

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	resolver      fonts.Resolver
	defaultFamily string

	fontMu   sync.Mutex
	families map[fonts.FaceID]*canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Fonts resolves family/bold/italic requests; defaults to fonts.Builtin().
	Fonts fonts.Resolver
	// DefaultFamily is used when a text box names no family; defaults to "Go".
	DefaultFamily string
}

// NewRenderer creates a renderer using the built-in Go fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with an injected font resolver.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Fonts == nil {
		opts.Fonts = fonts.Builtin()
	}
	if opts.DefaultFamily == "" {
		opts.DefaultFamily = fonts.FamilyGo
	}
	return &Renderer{
		resolver:      opts.Fonts,
		defaultFamily: opts.DefaultFamily,
		families:      map[fonts.FaceID]*canvas.FontFamily{},
	}
}

// DefaultFamily returns the family used for text boxes without one.
func (r *Renderer) DefaultFamily() string { return r.defaultFamily }

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, &renderer.RenderError{Err: fmt.Errorf("渲染结果为空")}
	}
	if len(result.Pages) == 0 {
		return nil, &renderer.RenderError{Err: fmt.Errorf("缺少可渲染的页面")}
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawTable(ctx, page.Table); err != nil {
			return nil, &renderer.RenderError{Page: i + 1, Err: err}
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, &renderer.RenderError{Err: fmt.Errorf("写入 PDF 失败: %w", err)}
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LayoutRuns 实现 layout.Typesetter 接口：各文本段首尾相接，共用一套贪心换行。
// 约定：width 与 Run.FontSize 均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
func (r *Renderer) LayoutRuns(runs []layout.Run, width float64, lineSpacing float64) ([]layout.TextLine, error) {
	if len(runs) == 0 {
		return nil, nil
	}
	faces := make([]*canvas.FontFace, len(runs))
	for i, run := range runs {
		face, err := r.fontFace(run.Font, toPt(run.FontSize), layout.Black)
		if err != nil {
			return nil, err
		}
		faces[i] = face
	}
	if lineSpacing <= 0 {
		lineSpacing = 1
	}
	return greedyWrapRuns(runs, faces, width, lineSpacing), nil
}

// drawTable 先画占用行的边框，再画每个单元格的文本。间隙单元格不绘制任何内容。
func (r *Renderer) drawTable(ctx *canvas.Context, table layout.TableBox) error {
	tableWidth := 0.0
	for _, w := range table.ColumnWidths {
		tableWidth += w
	}
	for _, row := range table.Rows {
		if row.Border {
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			ctx.SetStrokeColor(colorFromLayout(table.BorderColor))
			ctx.SetStrokeWidth(rowBorderWidth)
			ctx.DrawPath(table.X, row.Y, canvas.Rectangle(tableWidth, row.Height))
		}
		for _, cell := range row.Cells {
			if cell.Gap {
				continue
			}
			for _, tb := range cell.Texts {
				if err := r.drawTextBox(ctx, tb); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(tb.Font, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.FontSize}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch tb.Align {
	case layout.AlignLeft:
		textAlign = canvas.Left
		anchorX = tb.X
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}
		// 基线位置：行顶部加上字体上升部
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontRef, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	args := []interface{}{colorFromLayout(col), canvas.FontRegular, canvas.FontNormal}
	if font.Style.Has(layout.StyleUnderline) {
		args = append(args, canvas.FontUnderline)
	}
	if font.Style.Has(layout.StyleStrikethrough) {
		args = append(args, canvas.FontStrikethrough)
	}
	return family.Face(size, args...), nil
}

// ensureFontFamily 通过注入的 Resolver 找到具体字体面；字体面文件本身已是粗体/斜体，
// 因此以 FontRegular 载入，不做模拟。font.Embed 原样透传：PDF 输出始终嵌入字体子集。
func (r *Renderer) ensureFontFamily(font layout.FontRef) (*canvas.FontFamily, error) {
	familyName := font.Family
	if familyName == "" {
		familyName = r.defaultFamily
	}
	bold := font.Style.Has(layout.StyleBold)
	italic := font.Style.Has(layout.StyleItalic)

	id, ok := r.resolver.Resolve(familyName, bold, italic)
	if !ok {
		return nil, &fonts.ResolveError{Family: familyName, Bold: bold, Italic: italic}
	}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if family, ok := r.families[id]; ok {
		return family, nil
	}
	data, err := r.resolver.Bytes(id)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily(string(id))
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, &fonts.ResolveError{Family: familyName, Bold: bold, Italic: italic, Face: id, Err: err}
	}
	r.families[id] = family
	return family, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

type piece struct {
	run  int
	text string
}

// unit 是换行的最小单位：一个空白串、一个换行，或一个可能跨越多个文本段的单词。
type unit struct {
	pieces  []piece
	space   bool
	newline bool
}

func splitUnits(runs []layout.Run) []unit {
	var units []unit
	for i, run := range runs {
		for _, token := range tokenizeContent(run.Text) {
			if token == "\n" {
				units = append(units, unit{newline: true})
				continue
			}
			space := strings.TrimSpace(token) == ""
			if n := len(units); n > 0 && !space && !units[n-1].space && !units[n-1].newline {
				// 上一段末尾的单词与本段开头的单词之间没有空白，不能在此处断行
				units[n-1].pieces = append(units[n-1].pieces, piece{run: i, text: token})
				continue
			}
			units = append(units, unit{pieces: []piece{{run: i, text: token}}, space: space})
		}
	}
	return units
}

// lineBuilder 累积当前行的各段。
type lineBuilder struct {
	runs        []layout.Run
	faces       []*canvas.FontFace
	lineSpacing float64

	segments []layout.LineSegment
	width    float64
	last     int // 最近处理的文本段，空行的行高取自它
}

func (b *lineBuilder) add(run int, text string) {
	w := b.faces[run].TextWidth(text)
	if n := len(b.segments); n > 0 && b.segments[n-1].Run == run {
		b.segments[n-1].Content += text
		b.segments[n-1].Width += w
	} else {
		b.segments = append(b.segments, layout.LineSegment{
			Run:     run,
			Content: text,
			X:       b.width,
			Width:   w,
			Ascent:  b.faces[run].Metrics().Ascent,
		})
	}
	b.width += w
}

// take 去掉行尾空白后输出当前行，并返回该行的名义行高（最大字号 × 行距）。
func (b *lineBuilder) take() (layout.TextLine, float64) {
	for len(b.segments) > 0 {
		seg := &b.segments[len(b.segments)-1]
		trimmed := strings.TrimRightFunc(seg.Content, unicode.IsSpace)
		if trimmed == seg.Content {
			break
		}
		if trimmed == "" {
			b.segments = b.segments[:len(b.segments)-1]
			continue
		}
		seg.Content = trimmed
		seg.Width = b.faces[seg.Run].TextWidth(trimmed)
		break
	}

	var line layout.TextLine
	var content strings.Builder
	nominal := 0.0
	measure := func(run int) {
		m := b.faces[run].Metrics()
		line.Height = math.Max(line.Height, m.LineHeight)
		line.Ascent = math.Max(line.Ascent, m.Ascent)
		nominal = math.Max(nominal, b.runs[run].FontSize*b.lineSpacing)
	}
	if len(b.segments) == 0 {
		measure(b.last)
	}
	for _, seg := range b.segments {
		content.WriteString(seg.Content)
		measure(seg.Run)
		line.Width = seg.X + seg.Width
	}
	line.Content = content.String()
	line.Segments = b.segments
	if line.Height <= 0 {
		line.Height = nominal
	}

	b.segments = nil
	b.width = 0
	return line, nominal
}

// greedyWrapRuns 优先在空白处分割，单个词超过限制时在词内拆分；显式换行始终生效。
func greedyWrapRuns(runs []layout.Run, faces []*canvas.FontFace, width, lineSpacing float64) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	b := &lineBuilder{runs: runs, faces: faces, lineSpacing: lineSpacing}
	var lines []layout.TextLine
	emit := func(force bool) {
		if len(b.segments) == 0 && !force {
			return
		}
		line, nominal := b.take()
		if len(lines) > 0 {
			line.GapBefore = math.Max(nominal-line.Height, 0)
		}
		lines = append(lines, line)
	}

	units := splitUnits(runs)
	for i, u := range units {
		if u.newline {
			// 上一行恰好排满时已经换行，不再额外产生空行
			if i > 0 && !units[i-1].newline && len(b.segments) == 0 {
				continue
			}
			emit(true)
			continue
		}
		b.last = u.pieces[0].run

		unitWidth := 0.0
		for _, p := range u.pieces {
			unitWidth += faces[p.run].TextWidth(p.text)
		}
		if b.width > 0 && b.width+unitWidth > limit {
			emit(false)
			if u.space {
				continue
			}
		}
		if unitWidth <= limit {
			for _, p := range u.pieces {
				b.add(p.run, p.text)
			}
			continue
		}

		for _, p := range u.pieces {
			face := faces[p.run]
			for _, chunk := range splitTokenByWidth(p.text, limit, face) {
				if b.width > 0 && b.width+face.TextWidth(chunk) > limit {
					emit(false)
				}
				b.add(p.run, chunk)
			}
		}
	}

	emit(true)
	return lines
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
