// Package sheet describes label sheet geometry: label size, gaps, margins and grid shape.
package sheet

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// PageSize names a paper format.
type PageSize string

const (
	PageA4     PageSize = "A4"
	PageLetter PageSize = "LETTER"
)

var (
	pageMu    sync.RWMutex
	pageSizes = map[PageSize][2]float64{
		PageA4:     {210, 297},
		PageLetter: {215.9, 279.4},
	}
)

// RegisterPageSize adds (or replaces) a paper format, dimensions in millimetres.
func RegisterPageSize(name PageSize, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("page size %s: dimensions must be positive", name)
	}
	pageMu.Lock()
	defer pageMu.Unlock()
	pageSizes[PageSize(strings.ToUpper(string(name)))] = [2]float64{width, height}
	return nil
}

// ParsePageSize accepts any registered name, case-insensitive.
func ParsePageSize(s string) (PageSize, error) {
	p := PageSize(strings.ToUpper(strings.TrimSpace(s)))
	if _, _, ok := p.Dimensions(); !ok {
		return "", fmt.Errorf("未知纸张尺寸: %s", s)
	}
	return p, nil
}

// Dimensions returns width and height in millimetres (portrait).
func (p PageSize) Dimensions() (float64, float64, bool) {
	pageMu.RLock()
	defer pageMu.RUnlock()
	d, ok := pageSizes[p]
	return d[0], d[1], ok
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top" validate:"gte=0"`
	Right  float64 `json:"right" validate:"gte=0"`
	Bottom float64 `json:"bottom" validate:"gte=0"`
	Left   float64 `json:"left" validate:"gte=0"`
}

// Definition is the immutable geometry of one label product. Lengths are millimetres.
type Definition struct {
	Name          string   `json:"name"`
	Width         float64  `json:"width" validate:"gt=0"`
	Height        float64  `json:"height" validate:"gt=0"`
	HorizontalGap float64  `json:"horizontalGap" validate:"gte=0"`
	VerticalGap   float64  `json:"verticalGap" validate:"gte=0"`
	Margin        Margin   `json:"margin"`
	PageSize      PageSize `json:"pageSize" validate:"required,pagesize"`
	LabelsPerRow  int      `json:"labelsPerRow" validate:"gte=1"`
	RowsPerPage   int      `json:"rowsPerPage" validate:"gte=1"`
}

// ErrInvalidDefinition is wrapped by every ConfigurationError.
var ErrInvalidDefinition = errors.New("invalid label definition")

// ConfigurationError lists every rule a Definition violates.
type ConfigurationError struct {
	Definition string
	Problems   []string
}

func (e *ConfigurationError) Error() string {
	name := e.Definition
	if name == "" {
		name = "custom"
	}
	return fmt.Sprintf("label definition %q: %s", name, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidDefinition
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pagesize", func(fl validator.FieldLevel) bool {
		_, _, ok := PageSize(fl.Field().String()).Dimensions()
		return ok
	})
	return v
}

// Validate reports a *ConfigurationError when the grid math would be degenerate.
func (d Definition) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ConfigurationError{Definition: d.Name, Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	sort.Strings(problems)
	return &ConfigurationError{Definition: d.Name, Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "pagesize":
		return fmt.Sprintf("%s %q is not a known page size", field, fe.Value())
	default:
		return fmt.Sprintf("%s fails %s", field, fe.Tag())
	}
}

// PhysicalColumns counts label columns plus the gap columns between them.
func (d Definition) PhysicalColumns() int {
	return 2*d.LabelsPerRow - 1
}

// ColumnWidths 返回每个物理列的宽度：奇数列（从 1 开始）为标签宽度，偶数列为水平间隙。
func (d Definition) ColumnWidths() []float64 {
	n := d.PhysicalColumns()
	if n < 1 {
		return nil
	}
	widths := make([]float64, n)
	for i := range widths {
		if i%2 == 0 {
			widths[i] = d.Width
		} else {
			widths[i] = d.HorizontalGap
		}
	}
	return widths
}

// Capacity is the number of labels one sheet holds.
func (d Definition) Capacity() int {
	return d.LabelsPerRow * d.RowsPerPage
}

// ContentSize is the extent of the label grid without margins.
func (d Definition) ContentSize() (float64, float64) {
	k, r := float64(d.LabelsPerRow), float64(d.RowsPerPage)
	w := k*d.Width + (k-1)*d.HorizontalGap
	h := r*d.Height + (r-1)*d.VerticalGap
	return w, h
}

// Fits reports whether margins plus grid fit on the page.
func (d Definition) Fits() bool {
	pw, ph, ok := d.PageSize.Dimensions()
	if !ok {
		return false
	}
	w, h := d.ContentSize()
	const eps = 0.01
	return d.Margin.Left+w+d.Margin.Right <= pw+eps && d.Margin.Top+h+d.Margin.Bottom <= ph+eps
}

// GridPosition locates a label by its ordinal. Row and Column are logical (gaps excluded).
type GridPosition struct {
	Page   int `json:"page"`
	Row    int `json:"row"`
	Column int `json:"column"`
}

// PositionOf derives the grid position of the ordinal-th label (0-based).
func (d Definition) PositionOf(ordinal int) GridPosition {
	capacity := d.Capacity()
	if capacity <= 0 || ordinal < 0 {
		return GridPosition{}
	}
	inPage := ordinal % capacity
	return GridPosition{
		Page:   ordinal / capacity,
		Row:    inPage / d.LabelsPerRow,
		Column: inPage % d.LabelsPerRow,
	}
}

// PhysicalColumn 包含间隙列后的列序号（从 0 开始）。
func (d Definition) PhysicalColumn(pos GridPosition) int {
	return 2 * pos.Column
}

// PhysicalRow 包含间隙行后的行序号；垂直间隙为 0 时不存在间隙行。
func (d Definition) PhysicalRow(pos GridPosition) int {
	if d.VerticalGap > 0 {
		return 2 * pos.Row
	}
	return pos.Row
}
