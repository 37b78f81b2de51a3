package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	// DefaultFamily is used for fragments that do not name a font family.
	DefaultFamily string
	// Borders draws a single black border around every occupied row; for layout debugging.
	Borders bool
}

// Run 是一段字体相同的文本；FontSize 单位为 mm。
type Run struct {
	Text     string
	Font     FontRef
	FontSize float64
}

// Typesetter 把一组行内文本段按宽度约束排成行：各段首尾相接，仅在宽度不够或遇到 '\n' 时换行。
// 行高为该行最大字号乘以 lineSpacing；长度单位均为 mm。
type Typesetter interface {
	LayoutRuns(runs []Run, width float64, lineSpacing float64) ([]TextLine, error)
}
