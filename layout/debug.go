package layout

import (
	"encoding/json"
	"os"
)

// debugDump 同时包含分页网格与定位后的文档模型。
type debugDump struct {
	Grid   []PageLayout `json:"grid,omitempty"`
	Layout *Result      `json:"layout"`
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。grid 可为空。
func WriteDebugJSON(path string, res *Result, grid []PageLayout) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(debugDump{Grid: grid, Layout: res}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
