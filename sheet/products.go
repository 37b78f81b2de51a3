package sheet

import (
	"fmt"
	"sort"
	"strings"
)

// 常见不干胶标签规格（单位 mm）。
var products = map[string]Definition{
	"L7651": {
		Name: "L7651", Width: 38.1, Height: 21.2, HorizontalGap: 2.5, VerticalGap: 0,
		Margin:   Margin{Top: 10.7, Right: 4.75, Bottom: 10.7, Left: 4.75},
		PageSize: PageA4, LabelsPerRow: 5, RowsPerPage: 13,
	},
	"L7654": {
		Name: "L7654", Width: 45.7, Height: 25.4, HorizontalGap: 2.6, VerticalGap: 0,
		Margin:   Margin{Top: 21.5, Right: 9.7, Bottom: 21.5, Left: 9.7},
		PageSize: PageA4, LabelsPerRow: 4, RowsPerPage: 10,
	},
	"L7160": {
		Name: "L7160", Width: 63.5, Height: 38.1, HorizontalGap: 2.5, VerticalGap: 0,
		Margin:   Margin{Top: 15.15, Right: 7.25, Bottom: 15.15, Left: 7.25},
		PageSize: PageA4, LabelsPerRow: 3, RowsPerPage: 7,
	},
	"L7163": {
		Name: "L7163", Width: 99.1, Height: 38.1, HorizontalGap: 2.5, VerticalGap: 0,
		Margin:   Margin{Top: 15.15, Right: 4.65, Bottom: 15.15, Left: 4.65},
		PageSize: PageA4, LabelsPerRow: 2, RowsPerPage: 7,
	},
	"5160": {
		Name: "5160", Width: 66.675, Height: 25.4, HorizontalGap: 3.175, VerticalGap: 0,
		Margin:   Margin{Top: 12.7, Right: 4.7625, Bottom: 12.7, Left: 4.7625},
		PageSize: PageLetter, LabelsPerRow: 3, RowsPerPage: 10,
	},
}

// Lookup finds a catalog product. "L7651", "l7651" and "Avery-L7651" are equivalent.
func Lookup(name string) (Definition, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "AVERY-")
	def, ok := products[key]
	if !ok {
		return Definition{}, fmt.Errorf("未知标签规格: %s", name)
	}
	return def, nil
}

// Products returns every catalog entry sorted by name.
func Products() []Definition {
	out := make([]Definition, 0, len(products))
	for _, def := range products {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
