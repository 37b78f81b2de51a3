package renderer

import (
	"fmt"

	"github.com/ByLCY/labelsheet/layout"
)

// Renderer 将布局结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// RenderError 标记渲染阶段的失败；Page 从 1 开始，0 表示与具体页面无关。
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("渲染第 %d 页失败: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("渲染失败: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
