package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
	if diff := math.Abs(72*PtToMm - 25.4); diff > 1e-9 {
		t.Fatalf("72pt 应等于 25.4mm，实际 %g", 72*PtToMm)
	}
}

// TestLengthConversions 覆盖 Length 在常见单位上的转换正确性。
func TestLengthConversions(t *testing.T) {
	cases := []struct {
		in     Length
		wantMM float64
	}{
		{Length{Value: 1, Unit: UnitIN}, 25.4},
		{Length{Value: 2.54, Unit: UnitCM}, 25.4},
		{Length{Value: 12, Unit: UnitPT}, 12 * PtToMm},
		{Length{Value: 38.1, Unit: UnitMM}, 38.1},
		{Length{Value: 7, Unit: UnitNone}, 7},
	}
	for _, c := range cases {
		if got := c.in.ToMM(); math.Abs(got-c.wantMM) > 1e-9 {
			t.Fatalf("%v%s 转 mm 期望 %g，实际 %g", c.in.Value, UnitToString(c.in.Unit), c.wantMM, got)
		}
	}
	if got := (Length{Value: 10, Unit: UnitMM}).ToPT(); math.Abs(got-10*MmToPt) > 1e-9 {
		t.Fatalf("10mm 转 pt 期望 %g，实际 %g", 10*MmToPt, got)
	}
	if got := (Length{Value: 11, Unit: UnitNone}).ToPT(); got != 11 {
		t.Fatalf("无单位字号应按 pt 处理，实际 %g", got)
	}
}

func TestParseLength(t *testing.T) {
	l, err := ParseLength(" 21.2mm ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Unit != UnitMM || l.Value != 21.2 {
		t.Fatalf("unexpected length: %+v", l)
	}
	if l, err = ParseLength("12PT"); err != nil || l.Unit != UnitPT || l.Value != 12 {
		t.Fatalf("unexpected pt length: %+v err=%v", l, err)
	}
	for _, bad := range []string{"", "mm", "abc", "1..2cm"} {
		if _, err := ParseLength(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
