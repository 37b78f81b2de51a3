package protect

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// 注释标志位：Print | Locked | LockedContents。
const annotFlags = 4 | 128 | 512

// A4 in points, used when a page has no resolvable MediaBox.
var fallbackMediaBox = types.NewRectangle(0, 0, 595.28, 841.89)

// Apply 为 PDF 添加打印保护层并返回新的 PDF 字节。
func Apply(pdf []byte, st State) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("protect: 读取 PDF 失败: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("protect: 校验 PDF 失败: %w", err)
	}
	if err := ApplyContext(ctx, st); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("protect: 写入 PDF 失败: %w", err)
	}
	return out.Bytes(), nil
}

// ApplyContext mutates an already read pdfcpu context.
func ApplyContext(ctx *model.Context, st State) error {
	if st.Expiration.IsZero() {
		return fmt.Errorf("protect: 缺少过期时间")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("protect: 统计页数失败: %w", err)
	}
	for p := 1; p <= ctx.PageCount; p++ {
		if err := addProtector(ctx, p, st.marker()); err != nil {
			return fmt.Errorf("protect: 第 %d 页: %w", p, err)
		}
	}
	if err := installScripts(ctx, st); err != nil {
		return fmt.Errorf("protect: 写入脚本失败: %w", err)
	}
	return ensureVersion(ctx)
}

// addProtector 在页面上追加一个覆盖整页的不透明方形注释，外观为白色填充。
func addProtector(ctx *model.Context, pageNr int, marker string) error {
	pageDict, pageRef, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return fmt.Errorf("页面不存在")
	}
	box := fallbackMediaBox
	if inh != nil && inh.MediaBox != nil {
		box = inh.MediaBox
	}
	w, h := box.Width(), box.Height()

	ap, err := ctx.NewStreamDictForBuf([]byte(fmt.Sprintf("1 1 1 rg 0 0 %.2f %.2f re f", w, h)))
	if err != nil {
		return err
	}
	ap.InsertName("Type", "XObject")
	ap.InsertName("Subtype", "Form")
	ap.Insert("BBox", types.NewNumberArray(0, 0, w, h))
	ap.Insert("Resources", types.NewDict())
	if err := ap.Encode(); err != nil {
		return err
	}
	apRef, err := ctx.IndRefForNewObject(*ap)
	if err != nil {
		return err
	}

	annot := types.Dict(map[string]types.Object{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Square"),
		"Rect":    box.Array(),
		"NM":      types.StringLiteral(marker),
		"F":       types.Integer(annotFlags),
		"C":       types.NewNumberArray(1, 1, 1),
		"IC":      types.NewNumberArray(1, 1, 1),
		"BS":      types.Dict(map[string]types.Object{"W": types.Integer(0)}),
		"AP":      types.Dict(map[string]types.Object{"N": *apRef}),
	})
	if pageRef != nil {
		annot["P"] = *pageRef
	}
	annotRef, err := ctx.IndRefForNewObject(annot)
	if err != nil {
		return err
	}

	var annots types.Array
	if obj, found := pageDict.Find("Annots"); found {
		existing, err := ctx.DereferenceArray(obj)
		if err != nil {
			return fmt.Errorf("读取 Annots 失败: %w", err)
		}
		annots = append(annots, existing...)
	}
	// 追加在最后，位于其他注释之上。
	annots = append(annots, *annotRef)
	pageDict.Update("Annots", annots)
	return nil
}

func newJSAction(ctx *model.Context, script string) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf([]byte(script))
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	jsRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, err
	}
	action := types.Dict(map[string]types.Object{
		"Type": types.Name("Action"),
		"S":    types.Name("JavaScript"),
		"JS":   *jsRef,
	})
	return ctx.IndRefForNewObject(action)
}

// installScripts 写入 /OpenAction、/AA /DP、/Names /JavaScript 与 /ViewerPreferences。
func installScripts(ctx *model.Context, st State) error {
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}

	library, err := newJSAction(ctx, LibraryScript(st.marker()))
	if err != nil {
		return err
	}
	names := types.NewDict()
	if obj, found := root.Find("Names"); found {
		existing, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		if existing != nil {
			names = existing
		}
	}
	var entries []nameEntry
	if obj, found := names.Find("JavaScript"); found {
		if err := collectNames(ctx, obj, 0, &entries); err != nil {
			return fmt.Errorf("读取文档脚本名称树失败: %w", err)
		}
	}
	names.Update("JavaScript", types.Dict(map[string]types.Object{
		"Names": mergeNameEntry(entries, libraryName, *library),
	}))
	root.Update("Names", names)
	// 名称树已在上面合并，避免写出时再用解析得到的旧树覆盖。
	delete(ctx.Names, "JavaScript")

	open, err := newJSAction(ctx, OpenScript(st))
	if err != nil {
		return err
	}
	root.Update("OpenAction", *open)

	afterPrint, err := newJSAction(ctx, AfterPrintScript())
	if err != nil {
		return err
	}
	aa := types.NewDict()
	if obj, found := root.Find("AA"); found {
		existing, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		if existing != nil {
			aa = existing
		}
	}
	aa.Update("DP", *afterPrint)
	root.Update("AA", aa)

	prefs := types.NewDict()
	if obj, found := root.Find("ViewerPreferences"); found {
		existing, err := ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		if existing != nil {
			prefs = existing
		}
	}
	prefs.Update("PrintScaling", types.Name("None"))
	root.Update("ViewerPreferences", prefs)
	return nil
}

// ensureVersion 保证文档版本不低于 1.6（PrintScaling 需要 1.6）。
func ensureVersion(ctx *model.Context) error {
	if ctx.XRefTable.Version() >= model.V16 {
		return nil
	}
	v := model.V16
	ctx.HeaderVersion = &v
	if ctx.RootVersion != nil {
		ctx.RootVersion = &v
	}
	root, err := ctx.Catalog()
	if err != nil {
		return err
	}
	root.Update("Version", types.Name(v.String()))
	return nil
}

// 名称树最大深度，超过即视为损坏。
const maxNameTreeDepth = 32

type nameEntry struct {
	key   string
	name  types.Object
	value types.Object
}

// collectNames 展开名称树（含 Kids 中间节点）为按出现顺序排列的叶子条目。
func collectNames(ctx *model.Context, obj types.Object, depth int, out *[]nameEntry) error {
	if depth > maxNameTreeDepth {
		return fmt.Errorf("名称树层级超过 %d", maxNameTreeDepth)
	}
	node, err := ctx.DereferenceDict(obj)
	if err != nil || node == nil {
		return err
	}
	if obj, found := node.Find("Names"); found {
		arr, err := ctx.DereferenceArray(obj)
		if err != nil {
			return err
		}
		for i := 0; i+1 < len(arr); i += 2 {
			key, ok := nameKey(arr[i])
			if !ok {
				continue
			}
			*out = append(*out, nameEntry{key: key, name: arr[i], value: arr[i+1]})
		}
	}
	if obj, found := node.Find("Kids"); found {
		kids, err := ctx.DereferenceArray(obj)
		if err != nil {
			return err
		}
		for _, kid := range kids {
			if err := collectNames(ctx, kid, depth+1, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func nameKey(o types.Object) (string, bool) {
	switch k := o.(type) {
	case types.StringLiteral:
		return string(k), true
	case types.HexLiteral:
		b, err := k.Bytes()
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

// mergeNameEntry 用 value 替换或插入 key，返回按键排序的扁平 Names 数组。
func mergeNameEntry(entries []nameEntry, key string, value types.Object) types.Array {
	merged := make([]nameEntry, 0, len(entries)+1)
	for _, e := range entries {
		if e.key != key {
			merged = append(merged, e)
		}
	}
	merged = append(merged, nameEntry{key: key, name: types.StringLiteral(key), value: value})
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].key < merged[j].key })

	arr := make(types.Array, 0, 2*len(merged))
	for _, e := range merged {
		arr = append(arr, e.name, e.value)
	}
	return arr
}
