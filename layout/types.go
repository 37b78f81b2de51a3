package layout

// 该文件定义交给渲染器的文档描述（页 → 表格 → 行 → 单元格），供渲染与调试 JSON 共用。

// Result 保存布局后的页面与文档元信息。
type Result struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Black is the border color used by the debug borders.
var Black = Color{}

// Page 记录页面尺寸、边距与该页的标签表格（单位：mm）。
type Page struct {
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Margin Margin   `json:"margin"`
	Table  TableBox `json:"table"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TableBox 保存一页标签网格：列宽向量在每页相同，行按物理顺序排列。
type TableBox struct {
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	ColumnWidths []float64  `json:"columnWidths"`
	Rows         []TableRow `json:"rows"`
	BorderColor  Color      `json:"borderColor"`
}

// TableRow 记录每一行的高度与单元格。Border 为 true 时四边绘制单线边框。
type TableRow struct {
	Y      float64     `json:"y"`
	Height float64     `json:"height"`
	Gap    bool        `json:"gap,omitempty"`
	Border bool        `json:"border,omitempty"`
	Cells  []TableCell `json:"cells"`
}

// TableCell 是一个物理单元格；间隙单元格与空白标签单元格没有文本。
// Texts 中每个文本框是一行里的一段，坐标已按 Align 计算好。
type TableCell struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Gap    bool      `json:"gap,omitempty"`
	Align  Alignment `json:"align,omitempty"`
	Texts  []TextBox `json:"texts,omitempty"`
}

// TextBox 表示一个已经排好坐标的文本片段。
type TextBox struct {
	Content  string     `json:"content"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Font     FontRef    `json:"font"`
	FontSize float64    `json:"fontSize"` // mm
	Color    Color      `json:"color"`
	Lines    []TextLine `json:"lines"`
	Align    Alignment  `json:"align"`
}

// FontRef is what the renderer hands to the font resolver.
type FontRef struct {
	Family string    `json:"family"`
	Style  FontStyle `json:"style"`
	Embed  bool      `json:"embed,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。Segments 按从左到右的顺序记录行内各段。
type TextLine struct {
	Content   string        `json:"content"`
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	GapBefore float64       `json:"gapBefore,omitempty"`
	Ascent    float64       `json:"ascent,omitempty"`
	Segments  []LineSegment `json:"segments,omitempty"`
}

// LineSegment 是一行中来自同一个 Run 的部分，X 相对行首。
type LineSegment struct {
	Run     int     `json:"run"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Width   float64 `json:"width"`
	Ascent  float64 `json:"ascent"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
