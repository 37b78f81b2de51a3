package canvasrenderer

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ByLCY/labelsheet/fonts"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/renderer"
	"github.com/ByLCY/labelsheet/sheet"
)

var bodyFont = layout.FontRef{Family: fonts.FamilyGo}

// layoutText 把一段文本作为单个 Run 排版。
func layoutText(r *Renderer, content string, width float64, font layout.FontRef, fontSizeMM, spacing float64) ([]layout.TextLine, error) {
	return r.LayoutRuns([]layout.Run{{Text: content, Font: font, FontSize: fontSizeMM}}, width, spacing)
}

func TestLayoutRunsGreedyWrapsText(t *testing.T) {
	r := NewRenderer()

	// 这里的宽度/字号/行高均为 mm
	fontSizeMM := 12 * layout.PtToMm

	lines, err := layoutText(r, "hello world again", 10, bodyFont, fontSizeMM, 1.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if ln.Content != "" && (ln.Content[0] == ' ' || ln.Content[len(ln.Content)-1] == ' ') {
			t.Fatalf("line %d keeps surrounding spaces: %q", i, ln.Content)
		}
	}
}

func TestGreedyWrapHonorsNewlines(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm

	lines, err := layoutText(r, "foo\n\nbar", 100, bodyFont, fontSizeMM, 1.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

// TestLineHeightsInvariant 验证：
// 1) 首行 GapBefore == 0；
// 2) 其余行 GapBefore ≈ max(lineHeight - textHeight, 0)；
// 3) 各行的 Height 与 textHeight 一致（渲染器会用字体度量回填）。
func TestLineHeightsInvariant(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.3

	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	lines, err := layoutText(r, content, 40, bodyFont, fontSizeMM, 1.3)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for invariant test, got %d", len(lines))
	}

	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	wantLeading := math.Max(lineHeightMM-textHeight, 0)

	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	const eps = 1e-6
	for i := 1; i < len(lines); i++ {
		if diff := math.Abs(lines[i].GapBefore - wantLeading); diff > eps {
			t.Fatalf("line %d GapBefore mismatch: got=%g want=%g diff=%g", i, lines[i].GapBefore, wantLeading, diff)
		}
		if diff := math.Abs(lines[i].Height - textHeight); diff > eps {
			t.Fatalf("line %d Height mismatch: got=%g want=%g diff=%g", i, lines[i].Height, textHeight, diff)
		}
	}
}

// TestGreedyWrapWidthLimit 验证每行宽度不超过限制（mm）。
func TestGreedyWrapWidthLimit(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm

	limit := 30.0 // mm
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	lines, err := layoutText(r, content, limit, bodyFont, fontSizeMM, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected the long word to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 { // 允许极小的数值误差
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

func TestLayoutRunsUnknownFamily(t *testing.T) {
	r := NewRenderer()
	_, err := layoutText(r, "x", 10, layout.FontRef{Family: "Nope"}, 4, 1.2)
	var rerr *fonts.ResolveError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ResolveError, got %v", err)
	}
	if rerr.Family != "Nope" {
		t.Fatalf("unexpected family in error: %q", rerr.Family)
	}
}

func TestDefaultFamilyApplies(t *testing.T) {
	r := NewRendererWithOptions(Options{DefaultFamily: fonts.FamilyGoMono})
	if r.DefaultFamily() != fonts.FamilyGoMono {
		t.Fatalf("unexpected default family %q", r.DefaultFamily())
	}
	wide, err := layoutText(r, "iiii", 1000, layout.FontRef{}, 4, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	mm, err := layoutText(r, "MMMM", 1000, layout.FontRef{}, 4, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if math.Abs(wide[0].Width-mm[0].Width) > 1e-6 {
		t.Fatalf("monospace default expected equal widths, got %g and %g", wide[0].Width, mm[0].Width)
	}
}

func buildResult(t *testing.T, r *Renderer, n int, borders bool) *layout.Result {
	t.Helper()
	def, err := sheet.Lookup("L7160")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	labels := make([]*layout.LabelContent, n)
	for i := range labels {
		labels[i] = layout.NewLabel(layout.AlignCenter).
			AddText("WEBBERFUL!\n", fonts.FamilyGo, 12, true, layout.StyleBold).
			AddText("Wonderful Web Works\n", fonts.FamilyGo, 10, false, layout.StyleItalic, layout.StyleUnderline).
			AddText("struck", fonts.FamilyGoMono, 8, false, layout.StyleStrikethrough)
	}
	pages, err := layout.Paginate(def, labels)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	res, err := layout.Compose(def, pages, layout.DocumentMeta{Title: "labels"}, layout.BuildOptions{Typesetter: r, Borders: borders})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return res
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(buildResult(t, r, 25, true))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer()
	var rerr *renderer.RenderError
	if _, err := r.Render(nil); !errors.As(err, &rerr) {
		t.Fatalf("expected RenderError for nil result, got %v", err)
	}
	if _, err := r.Render(&layout.Result{}); !errors.As(err, &rerr) {
		t.Fatalf("expected RenderError for empty result, got %v", err)
	}

	res := buildResult(t, r, 1, false)
	res.Pages[0].Table.Rows[0].Cells[0].Texts[0].Font.Family = "Missing"
	_, err := r.Render(res)
	if !errors.As(err, &rerr) || rerr.Page != 1 {
		t.Fatalf("expected RenderError on page 1, got %v", err)
	}
	var ferr *fonts.ResolveError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected wrapped ResolveError, got %v", err)
	}
}

func TestLayoutRunsFlowInline(t *testing.T) {
	r := NewRenderer()
	size := 10 * layout.PtToMm
	bold := layout.FontRef{Family: fonts.FamilyGo, Style: layout.StyleBold}

	lines, err := r.LayoutRuns([]layout.Run{
		{Text: "Name: ", Font: bodyFont, FontSize: size},
		{Text: "Bob", Font: bold, FontSize: 2 * size},
	}, 100, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected both runs on one line, got %d lines", len(lines))
	}
	line := lines[0]
	if line.Content != "Name: Bob" {
		t.Fatalf("unexpected line content %q", line.Content)
	}
	if len(line.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(line.Segments))
	}
	first, second := line.Segments[0], line.Segments[1]
	if first.Run != 0 || second.Run != 1 {
		t.Fatalf("unexpected segment runs %d, %d", first.Run, second.Run)
	}
	if math.Abs(second.X-first.Width) > 1e-9 || first.Width <= 0 {
		t.Fatalf("second segment must start where the first ends: x=%g first=%g", second.X, first.Width)
	}
	if math.Abs(line.Width-(second.X+second.Width)) > 1e-9 {
		t.Fatalf("line width %g does not cover segments", line.Width)
	}
	if second.Ascent <= first.Ascent || line.Ascent != second.Ascent {
		t.Fatalf("line ascent must follow the larger run: line=%g first=%g second=%g", line.Ascent, first.Ascent, second.Ascent)
	}
}

func TestLayoutRunsKeepWordAcrossRuns(t *testing.T) {
	r := NewRenderer()
	mono := layout.FontRef{Family: fonts.FamilyGoMono}
	size := 10 * layout.PtToMm

	measured, err := layoutText(r, "aaaa bb", 1e6, mono, size, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	limit := measured[0].Width + 1e-6

	lines, err := r.LayoutRuns([]layout.Run{
		{Text: "aaaa bb", Font: mono, FontSize: size},
		{Text: "cc", Font: mono, FontSize: size},
	}, limit, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Content != "aaaa" || lines[1].Content != "bbcc" {
		t.Fatalf("word split across runs: %q / %q", lines[0].Content, lines[1].Content)
	}
	if len(lines[1].Segments) != 2 || lines[1].Segments[1].Run != 1 {
		t.Fatalf("second line must keep both runs, got %+v", lines[1].Segments)
	}
}

func TestLayoutRunsNewlineInsideRun(t *testing.T) {
	r := NewRenderer()
	size := 10 * layout.PtToMm
	lines, err := r.LayoutRuns([]layout.Run{
		{Text: "WEBBERFUL!\n", Font: bodyFont, FontSize: size},
		{Text: "Wonderful Web Works", Font: bodyFont, FontSize: size},
	}, 100, 1.2)
	if err != nil {
		t.Fatalf("LayoutRuns error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Content != "WEBBERFUL!" || lines[1].Content != "Wonderful Web Works" {
		t.Fatalf("unexpected lines %q / %q", lines[0].Content, lines[1].Content)
	}
}
