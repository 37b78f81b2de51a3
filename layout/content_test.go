package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFontStyleBits(t *testing.T) {
	s := StyleBold | StyleUnderline
	assert.True(t, s.Has(StyleBold))
	assert.False(t, s.Has(StyleItalic))
	assert.Equal(t, "bold|underline", s.String())
	assert.Equal(t, "regular", StyleRegular.String())
	assert.Equal(t, FontStyle(1), StyleBold)
	assert.Equal(t, FontStyle(8), StyleStrikethrough)
}

func TestNewLabelDefaultsToCenter(t *testing.T) {
	assert.Equal(t, AlignCenter, NewLabel("").Align)
	assert.Equal(t, AlignRight, NewLabel(AlignRight).Align)
}

func TestCloneIsIndependent(t *testing.T) {
	lbl := NewLabel(AlignLeft).AddText("a", "", 10, false)
	cp := lbl.Clone()
	lbl.AddText("b", "", 10, false)
	lbl.Fragments[0].Text = "changed"
	require.Len(t, cp.Fragments, 1)
	assert.Equal(t, "a", cp.Fragments[0].Text)
}

func TestRenderIntoFlowsFragmentsInline(t *testing.T) {
	lbl := NewLabel(AlignRight).
		AddText("Name: ", "Go", 12, false).
		AddText("", "Go", 12, false).
		AddText("Bob", "", 24, true, StyleBold, StyleUnderline)

	cell := &TableCell{X: 10, Y: 20, Width: 40, Height: 20}
	require.NoError(t, lbl.RenderInto(cell, &stubTypesetter{}, "Fallback"))
	assert.Equal(t, AlignRight, cell.Align)
	require.Len(t, cell.Texts, 2, "empty fragments are skipped")

	name, bob := cell.Texts[0], cell.Texts[1]
	assert.Equal(t, "Name: ", name.Content)
	assert.Equal(t, "Bob", bob.Content)
	assert.Equal(t, FontRef{Family: "Go"}, name.Font)
	assert.Equal(t, FontRef{Family: "Fallback", Style: StyleBold | StyleUnderline, Embed: true}, bob.Font)
	assert.InDelta(t, 12*PtToMm, name.FontSize, 1e-9)
	assert.InDelta(t, 24*PtToMm, bob.FontSize, 1e-9)

	// 同一行：首尾相接，右对齐，基线一致。
	inner := 40 - 2*cellPadding
	lineWidth := name.Width + bob.Width
	assert.InDelta(t, 10+cellPadding+inner-lineWidth, name.X, 1e-9)
	assert.InDelta(t, name.X+name.Width, bob.X, 1e-9)
	assert.InDelta(t, 20.0, bob.Y, 1e-9)
	assert.InDelta(t, name.Y+0.8*name.FontSize, bob.Y+0.8*bob.FontSize, 1e-9)
	assert.Greater(t, name.Y, bob.Y)
	assert.Equal(t, AlignLeft, name.Align)
}

func TestRenderIntoBreaksOnNewline(t *testing.T) {
	lbl := NewLabel("").
		AddText("WEBBERFUL!\n", "Go", 10, false).
		AddText("Wonderful Web Works", "Go", 10, false)

	cell := &TableCell{X: 0, Y: 0, Width: 100, Height: 30}
	require.NoError(t, lbl.RenderInto(cell, &stubTypesetter{}, ""))
	require.Len(t, cell.Texts, 2)

	first, second := cell.Texts[0], cell.Texts[1]
	assert.InDelta(t, first.Y+first.Height, second.Y, 1e-9)
	assert.InDelta(t, (100-2*cellPadding-first.Width)/2+cellPadding, first.X, 1e-9)
	assert.InDelta(t, (100-2*cellPadding-second.Width)/2+cellPadding, second.X, 1e-9)
}

func TestRenderIntoEmptyLabel(t *testing.T) {
	cell := &TableCell{Width: 10, Height: 10}
	require.NoError(t, NewLabel(AlignLeft).AddText("", "", 0, false).RenderInto(cell, &stubTypesetter{}, ""))
	assert.Empty(t, cell.Texts)
	assert.Error(t, NewLabel("").RenderInto(nil, &stubTypesetter{}, ""))
	assert.Error(t, NewLabel("").RenderInto(cell, nil, ""))
}

func TestParseAlignment(t *testing.T) {
	for in, want := range map[string]Alignment{"left": AlignLeft, "CENTER": AlignCenter, " end ": AlignRight} {
		got, ok := ParseAlignment(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseAlignment("justify")
	assert.False(t, ok)
}
