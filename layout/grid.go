package layout

import (
	"fmt"

	"github.com/ByLCY/labelsheet/sheet"
)

// GridCell 是网格中的一个物理单元格。Label 为 nil 表示空白（或间隙）。
type GridCell struct {
	Column  int           `json:"column"`
	Gap     bool          `json:"gap,omitempty"`
	Ordinal int           `json:"ordinal"` // 输入序列中的序号，空白单元格为 -1
	Label   *LabelContent `json:"label,omitempty"`
}

// GridRow 是一个物理行：标签行或间隙行，单元格数恒为物理列数。
type GridRow struct {
	Gap    bool       `json:"gap,omitempty"`
	Height float64    `json:"height"`
	Cells  []GridCell `json:"cells"`
}

// PageLayout 是一页的网格。
type PageLayout struct {
	Index        int       `json:"index"`
	ColumnWidths []float64 `json:"columnWidths"`
	Rows         []GridRow `json:"rows"`
	Capacity     int       `json:"capacity"`
}

// Occupied counts cells holding a label.
func (p PageLayout) Occupied() int {
	n := 0
	for _, row := range p.Rows {
		for _, cell := range row.Cells {
			if cell.Label != nil {
				n++
			}
		}
	}
	return n
}

// FreeSlots 按容量计算：Capacity 减去已占用的标签数。
// 行按需创建，尚未创建的行也计入，因此可能大于 BlankCells。
func (p PageLayout) FreeSlots() int {
	return p.Capacity - p.Occupied()
}

// BlankCells counts label cells present in the grid rows that hold no label.
func (p PageLayout) BlankCells() int {
	n := 0
	for _, row := range p.Rows {
		for _, cell := range row.Cells {
			if !cell.Gap && cell.Label == nil {
				n++
			}
		}
	}
	return n
}

// LabelRows counts rows that carry labels (gap rows excluded).
func (p PageLayout) LabelRows() int {
	n := 0
	for _, row := range p.Rows {
		if !row.Gap {
			n++
		}
	}
	return n
}

func newGridRow(columns int, height float64, gap bool) GridRow {
	row := GridRow{Gap: gap, Height: height, Cells: make([]GridCell, columns)}
	for i := range row.Cells {
		row.Cells[i] = GridCell{Column: i, Gap: gap || i%2 == 1, Ordinal: -1}
	}
	return row
}

// Paginate 按顺序把标签放入"标签列/间隙列"交错的网格，一页放满后换页。
// nil 元素占用一个位置但保持空白，可用于跳过已用过的标签。
func Paginate(def sheet.Definition, labels []*LabelContent) ([]PageLayout, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	physical := def.PhysicalColumns()
	widths := def.ColumnWidths()

	var (
		pages   []PageLayout
		current *PageLayout
		// rowNumber 是当前页的逻辑行号（从 1 开始），0 表示需要开新页。
		rowNumber int
		column    int
		pending   bool
	)
	for i, lbl := range labels {
		if rowNumber == 0 {
			if current != nil {
				pages = append(pages, *current)
			}
			current = &PageLayout{
				Index:        len(pages),
				ColumnWidths: append([]float64(nil), widths...),
				Capacity:     def.Capacity(),
			}
			current.Rows = append(current.Rows, newGridRow(physical, def.Height, false))
			rowNumber = 1
			pending = false
		} else if pending {
			// 垂直间隙为 0 时不插入间隙行，下一标签行直接相邻。
			if def.VerticalGap > 0 {
				current.Rows = append(current.Rows, newGridRow(physical, def.VerticalGap, true))
			}
			current.Rows = append(current.Rows, newGridRow(physical, def.Height, false))
			pending = false
		}

		cell := &current.Rows[len(current.Rows)-1].Cells[column]
		if lbl != nil {
			cell.Label = lbl
			cell.Ordinal = i
		}
		column++
		if column < physical {
			column++ // 间隙列
		}

		if column == physical {
			if rowNumber < def.RowsPerPage {
				pending = true
			}
			rowNumber++
			column = 0
		}
		if rowNumber > def.RowsPerPage {
			rowNumber = 0
			column = 0
		}
	}
	if current != nil {
		pages = append(pages, *current)
	}
	return pages, nil
}

// Compose 把分页网格交给文档模型：每页一个表格，行高、列宽、单元格内容均已定位（mm）。
func Compose(def sheet.Definition, pages []PageLayout, meta DocumentMeta, opts BuildOptions) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	width, height, _ := def.PageSize.Dimensions()
	margin := Margin{
		Top:    def.Margin.Top,
		Right:  def.Margin.Right,
		Bottom: def.Margin.Bottom,
		Left:   def.Margin.Left,
	}

	res := &Result{Meta: meta, Pages: make([]Page, 0, len(pages))}
	for _, pl := range pages {
		table := TableBox{
			X:            margin.Left,
			Y:            margin.Top,
			ColumnWidths: pl.ColumnWidths,
			BorderColor:  Black,
		}
		y := table.Y
		for _, gr := range pl.Rows {
			row := TableRow{Y: y, Height: gr.Height, Gap: gr.Gap, Cells: make([]TableCell, 0, len(gr.Cells))}
			x := table.X
			occupied := false
			for idx, gc := range gr.Cells {
				cell := TableCell{X: x, Y: y, Width: pl.ColumnWidths[idx], Height: gr.Height, Gap: gc.Gap}
				if gc.Label != nil {
					occupied = true
					if err := gc.Label.RenderInto(&cell, opts.Typesetter, opts.DefaultFamily); err != nil {
						return nil, fmt.Errorf("第 %d 页标签 #%d: %w", pl.Index+1, gc.Ordinal+1, err)
					}
				}
				row.Cells = append(row.Cells, cell)
				x += cell.Width
			}
			row.Border = opts.Borders && occupied
			table.Rows = append(table.Rows, row)
			y += gr.Height
		}
		res.Pages = append(res.Pages, Page{
			Width:  width,
			Height: height,
			Margin: margin,
			Table:  table,
		})
	}
	return res, nil
}
