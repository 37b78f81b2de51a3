package fonts

import (
	"io/fs"
)

// Source Sans Pro 族名（大小写无关），每个族名对应一张重定向规则。
const (
	ssansLight            = "ssans pro light"
	ssansLightItalic      = "ssans pro light italic"
	ssansExtraLight       = "ssans pro extra light"
	ssansExtraLightItalic = "ssans pro extra light italic"
	ssansRegular          = "ssans pro regular"
	ssansBold             = "ssans pro bold"
	ssansBoldItalic       = "ssans pro bold italic"
	ssansItalic           = "ssans pro italic"
	ssansSemibold         = "ssans pro semibold"
	ssansSemiboldItalic   = "ssans pro semibold italic"
	ssansBlack            = "ssans pro black"
	ssansBlackItalic      = "ssans pro black italic"

	ssansPrefix = "ssans pro"
)

// ssansRule: 请求粗体/粗斜体/斜体时转到另一个族名（新族名按同样的请求继续解析）；都不适用时使用 face。
type ssansRule struct {
	face       string
	bold       string
	boldItalic string
	italic     string
}

var ssansRules = map[string]ssansRule{
	ssansLight:            {face: "Light", bold: ssansRegular, boldItalic: ssansItalic, italic: ssansLightItalic},
	ssansLightItalic:      {face: "LightItalic", bold: ssansItalic, boldItalic: ssansItalic},
	ssansExtraLight:       {face: "ExtraLight", bold: ssansLight, boldItalic: ssansLightItalic, italic: ssansExtraLightItalic},
	ssansExtraLightItalic: {face: "ExtraLightItalic", bold: ssansLightItalic, boldItalic: ssansLightItalic},
	ssansRegular:          {face: "Regular", bold: ssansBold, boldItalic: ssansBoldItalic, italic: ssansItalic},
	ssansBold:             {face: "Bold", boldItalic: ssansBoldItalic, italic: ssansBoldItalic},
	ssansBoldItalic:       {face: "BoldItalic"},
	ssansItalic:           {face: "Italic", bold: ssansBoldItalic, boldItalic: ssansBoldItalic},
	ssansSemibold:         {face: "Semibold", bold: ssansBold, boldItalic: ssansBoldItalic, italic: ssansSemiboldItalic},
	ssansSemiboldItalic:   {face: "SemiboldItalic", bold: ssansBoldItalic, boldItalic: ssansBoldItalic},
	ssansBlack:            {face: "Black", bold: ssansBold, boldItalic: ssansBoldItalic, italic: ssansBlackItalic},
	ssansBlackItalic:      {face: "BlackItalic", bold: ssansBoldItalic, boldItalic: ssansBoldItalic},
}

// resolveSSans 沿规则链走到终点，返回字体面名称（如 "BoldItalic"）。
func resolveSSans(family string, bold, italic bool) string {
	for i := 0; i <= len(ssansRules); i++ {
		rule := ssansRules[family]
		var next string
		switch {
		case bold && italic:
			next = rule.boldItalic
		case bold:
			next = rule.bold
		case italic:
			next = rule.italic
		}
		if next == "" || next == family {
			return rule.face
		}
		family = next
	}
	return ssansRules[ssansRegular].face
}

// SSansFile returns the file name that holds a Source Sans Pro face.
func SSansFile(id FaceID) string {
	return string(id) + ".ttf"
}

type ssansKey struct {
	family       string
	bold, italic bool
}

// ssansTable 在包初始化时由规则链一次性展开：每个 (族名, 粗体, 斜体) 对应一个字体面。
var ssansTable = func() map[ssansKey]FaceID {
	table := make(map[ssansKey]FaceID, len(ssansRules)*4)
	for family := range ssansRules {
		for _, bold := range []bool{false, true} {
			for _, italic := range []bool{false, true} {
				table[ssansKey{family, bold, italic}] = FaceID("SourceSansPro-" + resolveSSans(family, bold, italic))
			}
		}
	}
	return table
}()

// SourceSansPro 构建 Source Sans Pro 的静态解析表。字体文件从 fsys 读取，
// 文件名为 SourceSansPro-<Face>.ttf；以 "ssans pro" 开头的未知族名按 regular 规则解析。
func SourceSansPro(fsys fs.FS) *Registry {
	reg := NewRegistry()
	for key, id := range ssansTable {
		reg.Register(key.family, key.bold, key.italic, id, func() ([]byte, error) {
			return fs.ReadFile(fsys, SSansFile(id))
		})
	}
	reg.registerPrefix(ssansPrefix, ssansRegular)
	return reg
}

// HasSourceSansPro reports whether fsys holds at least the regular face.
func HasSourceSansPro(fsys fs.FS) bool {
	_, err := fs.Stat(fsys, SSansFile(ssansTable[ssansKey{family: ssansRegular}]))
	return err == nil
}
