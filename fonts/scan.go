package fonts

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"seehuhn.de/go/sfnt"
)

// AddFont 读取 TrueType/OpenType 数据，按字体自身声明的族名与粗斜体标志登记。
func (r *Registry) AddFont(data []byte) (FaceID, error) {
	info, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("解析字体失败: %w", err)
	}
	if info.FamilyName == "" {
		return "", fmt.Errorf("字体缺少族名")
	}
	id := FaceID(info.PostScriptName())
	r.RegisterBytes(info.FamilyName, info.IsBold, info.IsItalic, id, data)
	return id, nil
}

// LoadDir 递归登记 dir 下所有 .ttf/.otf 文件，返回登记的字体面数量。
func (r *Registry) LoadDir(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取字体文件 %s 失败: %w", path, err)
		}
		if _, err := r.AddFont(data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		count++
		return nil
	})
	return count, err
}
