package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置族名。
const (
	FamilyGo       = "Go"
	FamilyGoMono   = "Go Mono"
	FamilyGoMedium = "Go Medium"
)

// Builtin 返回随程序分发的 Go 字体族，不依赖文件系统。
func Builtin() *Registry {
	reg := NewRegistry()
	for _, f := range []struct {
		family       string
		bold, italic bool
		id           FaceID
		data         []byte
	}{
		{FamilyGo, false, false, "Go-Regular", goregular.TTF},
		{FamilyGo, true, false, "Go-Bold", gobold.TTF},
		{FamilyGo, false, true, "Go-Italic", goitalic.TTF},
		{FamilyGo, true, true, "Go-BoldItalic", gobolditalic.TTF},
		{FamilyGoMono, false, false, "GoMono-Regular", gomono.TTF},
		{FamilyGoMono, true, false, "GoMono-Bold", gomonobold.TTF},
		{FamilyGoMono, false, true, "GoMono-Italic", gomonoitalic.TTF},
		{FamilyGoMono, true, true, "GoMono-BoldItalic", gomonobolditalic.TTF},
		// Go Medium 没有更粗的字重，粗体请求退回到 Go Bold。
		{FamilyGoMedium, false, false, "GoMedium-Regular", gomedium.TTF},
		{FamilyGoMedium, false, true, "GoMedium-Italic", gomediumitalic.TTF},
		{FamilyGoMedium, true, false, "Go-Bold", gobold.TTF},
		{FamilyGoMedium, true, true, "Go-BoldItalic", gobolditalic.TTF},
	} {
		reg.RegisterBytes(f.family, f.bold, f.italic, f.id, f.data)
	}
	return reg
}
