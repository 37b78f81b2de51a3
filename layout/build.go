package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/labelsheet/binding"
	"github.com/ByLCY/labelsheet/dsl"
	"github.com/ByLCY/labelsheet/sheet"
)

// Source 是从 DSL 文档中收集到的标签定义、标签序列与元信息。
type Source struct {
	Definition sheet.Definition
	Labels     []*LabelContent
	Meta       DocumentMeta
}

// Build 根据 DSL AST 生成分页后的标签网格布局。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	src, err := Collect(doc, data)
	if err != nil {
		return nil, err
	}
	pages, err := Paginate(src.Definition, src.Labels)
	if err != nil {
		return nil, err
	}
	return Compose(src.Definition, pages, src.Meta, opts)
}

// Collect 解析 sheet/label/meta 段落，展开 repeat 与 each，返回待分页的标签序列。
func Collect(doc *dsl.Document, data any) (*Source, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	section := doc.Sheet()
	if section == nil {
		return nil, fmt.Errorf("文档中缺少 sheet 段落")
	}
	def, err := resolveSheet(section)
	if err != nil {
		return nil, err
	}

	var labels []*LabelContent
	for _, sec := range doc.Labels() {
		expanded, err := expandLabel(sec, data)
		if err != nil {
			return nil, err
		}
		labels = append(labels, expanded...)
	}
	return &Source{
		Definition: def,
		Labels:     labels,
		Meta:       collectMeta(doc),
	}, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "labelsheet",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = valueToString(stmt.Assignment.Value)
			case "author":
				meta.Author = valueToString(stmt.Assignment.Value)
			case "subject":
				meta.Subject = valueToString(stmt.Assignment.Value)
			case "creator":
				meta.Creator = valueToString(stmt.Assignment.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(stmt.Assignment.Value)
			}
		}
	}
	return meta
}

// resolveSheet 查找产品目录（或 custom 从零开始），再应用块内的覆盖项。
func resolveSheet(section *dsl.SheetSection) (sheet.Definition, error) {
	var def sheet.Definition
	if strings.EqualFold(section.Name, "custom") {
		def = sheet.Definition{Name: "custom", PageSize: sheet.PageA4}
	} else {
		found, err := sheet.Lookup(section.Name)
		if err != nil {
			return sheet.Definition{}, fmt.Errorf("%s: %w", section.Pos, err)
		}
		def = found
	}
	if section.Block == nil {
		return def, nil
	}
	for _, stmt := range section.Block.Statements {
		assign := stmt.Assignment
		if assign == nil {
			return sheet.Definition{}, fmt.Errorf("%s: sheet 段落只接受 key: value 形式", section.Pos)
		}
		if err := applySheetOverride(&def, strings.ToLower(assign.Key), assign.Value); err != nil {
			return sheet.Definition{}, fmt.Errorf("sheet %s: %s: %w", section.Name, assign.Key, err)
		}
	}
	return def, nil
}

func applySheetOverride(def *sheet.Definition, key string, val *dsl.Value) error {
	switch key {
	case "name":
		def.Name = valueToString(val)
	case "width":
		return setLength(&def.Width, val)
	case "height":
		return setLength(&def.Height, val)
	case "hgap", "horizontal-gap":
		return setLength(&def.HorizontalGap, val)
	case "vgap", "vertical-gap":
		return setLength(&def.VerticalGap, val)
	case "margin-top":
		return setLength(&def.Margin.Top, val)
	case "margin-right":
		return setLength(&def.Margin.Right, val)
	case "margin-bottom":
		return setLength(&def.Margin.Bottom, val)
	case "margin-left":
		return setLength(&def.Margin.Left, val)
	case "margin":
		m, err := resolveMargin(val)
		if err != nil {
			return err
		}
		def.Margin = m
	case "page", "page-size":
		p, err := sheet.ParsePageSize(valueToString(val))
		if err != nil {
			return err
		}
		def.PageSize = p
	case "columns", "labels-per-row":
		return setInt(&def.LabelsPerRow, val)
	case "rows", "rows-per-page":
		return setInt(&def.RowsPerPage, val)
	default:
		return fmt.Errorf("未知的 sheet 属性")
	}
	return nil
}

func setLength(dst *float64, val *dsl.Value) error {
	l, err := ParseLength(valueToString(val))
	if err != nil {
		return err
	}
	*dst = l.ToMM()
	return nil
}

func setInt(dst *int, val *dsl.Value) error {
	n, err := strconv.Atoi(valueToString(val))
	if err != nil {
		return fmt.Errorf("需要整数: %w", err)
	}
	*dst = n
	return nil
}

// resolveMargin 接受单值或数组，按 CSS 语义展开：
// 1 个值四边相同；2 个值为上下/左右；4 个值为上/右/下/左。
func resolveMargin(val *dsl.Value) (sheet.Margin, error) {
	raw := valueToStringSlice(val)
	vals := make([]float64, 0, len(raw))
	for _, s := range raw {
		l, err := ParseLength(s)
		if err != nil {
			return sheet.Margin{}, err
		}
		vals = append(vals, l.ToMM())
	}
	switch len(vals) {
	case 1:
		v := vals[0]
		return sheet.Margin{Top: v, Right: v, Bottom: v, Left: v}, nil
	case 2:
		return sheet.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 4:
		return sheet.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	default:
		return sheet.Margin{}, fmt.Errorf("margin 需要 1、2 或 4 个值，得到 %d 个", len(vals))
	}
}

// labelArgs 是 label 关键字之后的修饰：对齐方式、repeat N、each path。
type labelArgs struct {
	align  Alignment
	repeat int
	each   string
}

func parseLabelArgs(sec *dsl.LabelSection) (labelArgs, error) {
	args := labelArgs{align: AlignCenter, repeat: 1}
	for i := 0; i < len(sec.Args); i++ {
		tok := sec.Args[i]
		if a, ok := ParseAlignment(tok.Value); ok && tok.Type == "Ident" {
			args.align = a
			continue
		}
		switch strings.ToLower(tok.Value) {
		case "repeat":
			if i+1 >= len(sec.Args) {
				return args, fmt.Errorf("%s: repeat 缺少次数", tok.Pos)
			}
			n, err := strconv.Atoi(sec.Args[i+1].Value)
			if err != nil || n < 0 {
				return args, fmt.Errorf("%s: repeat 次数无效: %s", tok.Pos, sec.Args[i+1].Value)
			}
			args.repeat = n
			i++
		case "each":
			// 路径由 Ident 与 '.'、'['、']'、数字组成，直到遇到下一个关键字。
			var b strings.Builder
			j := i + 1
			for ; j < len(sec.Args); j++ {
				v := sec.Args[j].Value
				if b.Len() > 0 && sec.Args[j].Type == "Ident" && !strings.HasSuffix(b.String(), ".") && !strings.HasSuffix(b.String(), "[") {
					break
				}
				b.WriteString(v)
			}
			if b.Len() == 0 {
				return args, fmt.Errorf("%s: each 缺少数据路径", tok.Pos)
			}
			args.each = b.String()
			i = j - 1
		default:
			return args, fmt.Errorf("%s: 未知的 label 参数 %q", tok.Pos, tok.Value)
		}
	}
	return args, nil
}

// recordPath 去掉可选的 "data." 前缀；"data" 本身指向根数据。
func recordPath(path string) string {
	if path == "data" {
		return ""
	}
	return strings.TrimPrefix(path, "data.")
}

func expandLabel(sec *dsl.LabelSection, data any) ([]*LabelContent, error) {
	args, err := parseLabelArgs(sec)
	if err != nil {
		return nil, err
	}

	var scopes []any
	if args.each != "" {
		path := recordPath(args.each)
		if path == "" {
			records, ok := data.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: 根数据不是数组", sec.Pos)
			}
			scopes = records
		} else {
			records, err := binding.Records(data, path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", sec.Pos, err)
			}
			scopes = records
		}
	} else {
		scopes = []any{data}
	}

	var out []*LabelContent
	for _, scope := range scopes {
		lbl, err := buildLabel(sec, args.align, scope)
		if err != nil {
			return nil, err
		}
		for n := 0; n < args.repeat; n++ {
			out = append(out, lbl.Clone())
		}
	}
	return out, nil
}

// textDefaults 来自 label 块内的赋值语句，作用于其后的 text。
type textDefaults struct {
	family string
	size   float64
	style  FontStyle
	embed  bool
}

func buildLabel(sec *dsl.LabelSection, align Alignment, scope any) (*LabelContent, error) {
	lbl := NewLabel(align)
	defaults := textDefaults{}
	if sec.Block == nil {
		return lbl, nil
	}
	for _, stmt := range sec.Block.Statements {
		switch {
		case stmt.Assignment != nil:
			if err := applyTextDefault(&defaults, stmt.Assignment); err != nil {
				return nil, fmt.Errorf("%s: %w", sec.Pos, err)
			}
		case stmt.Text != nil:
			text := binding.Interpolate(string(stmt.Text.Value), scope)
			lbl.AddText(text, defaults.family, defaults.size, defaults.embed, defaults.style)
		case stmt.Command != nil:
			if !strings.EqualFold(stmt.Command.Name, "text") {
				return nil, fmt.Errorf("%s: label 中不支持的指令 %s", stmt.Command.Pos, stmt.Command.Name)
			}
			frag, err := parseTextCommand(stmt.Command, defaults)
			if err != nil {
				return nil, err
			}
			frag.Text = binding.Interpolate(frag.Text, scope)
			lbl.Fragments = append(lbl.Fragments, frag)
		}
	}
	return lbl, nil
}

func applyTextDefault(d *textDefaults, assign *dsl.Assignment) error {
	switch strings.ToLower(assign.Key) {
	case "font", "family":
		d.family = valueToString(assign.Value)
	case "size":
		l, err := ParseLength(valueToString(assign.Value))
		if err != nil {
			return err
		}
		d.size = l.ToPT()
	case "style":
		for _, word := range valueToStringSlice(assign.Value) {
			s, ok := ParseFontStyle(word)
			if !ok {
				return fmt.Errorf("未知的字体样式 %q", word)
			}
			d.style |= s
		}
	case "embed":
		d.embed = parseBool(valueToString(assign.Value))
	default:
		return fmt.Errorf("未知的 label 属性 %s", assign.Key)
	}
	return nil
}

// parseTextCommand 解析 `text "内容" font "Family" size 10pt bold italic embed`。
func parseTextCommand(cmd *dsl.Command, d textDefaults) (Fragment, error) {
	if len(cmd.Args) == 0 || cmd.Args[0].Type != "String" {
		return Fragment{}, fmt.Errorf("%s: text 需要一个字符串参数", cmd.Pos)
	}
	frag := Fragment{
		Text:   cmd.Args[0].Value,
		Family: d.family,
		Size:   d.size,
		Style:  d.style,
		Embed:  d.embed,
	}
	args := cmd.Args[1:]
	for i := 0; i < len(args); i++ {
		tok := args[i]
		key := strings.ToLower(tok.Value)
		switch key {
		case "font", "family", "size":
			if i+1 >= len(args) {
				return Fragment{}, fmt.Errorf("%s: %s 缺少取值", tok.Pos, tok.Value)
			}
			val := args[i+1].Value
			i++
			if key == "size" {
				l, err := ParseLength(val)
				if err != nil {
					return Fragment{}, fmt.Errorf("%s: %w", tok.Pos, err)
				}
				frag.Size = l.ToPT()
			} else {
				frag.Family = val
			}
		case "embed":
			frag.Embed = true
		default:
			s, ok := ParseFontStyle(tok.Value)
			if !ok {
				return Fragment{}, fmt.Errorf("%s: 未知的 text 参数 %q", tok.Pos, tok.Value)
			}
			frag.Style |= s
		}
	}
	return frag, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Word != nil:
		return *val.Word
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.List != nil {
		out := make([]string, 0, len(val.List.Items))
		for _, item := range val.List.Items {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
