package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit 是长度字面量携带的单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位，按毫米处理
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// pt 与 mm 的换算。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	}
	return ""
}

// Length 保留数值及其原始单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToMM 换算为毫米；无单位视为毫米。
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	}
	return l.Value
}

func (l Length) ToPT() float64 { return l.ToMM() * MmToPt }

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// ParseLength 解析形如 "12.5mm"、"1in"、"10pt" 的长度字面量。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("空的长度值")
	}
	unit := UnitNone
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无效的长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// PageSize 返回命名纸张的宽高（毫米）。landscape 为真时交换宽高。
func PageSize(name string, landscape bool) (float64, float64, error) {
	var w, h float64
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "A4":
		w, h = 210, 297
	case "A3":
		w, h = 297, 420
	case "A5":
		w, h = 148, 210
	case "LETTER":
		w, h = 215.9, 279.4
	case "LEGAL":
		w, h = 215.9, 355.6
	default:
		return 0, 0, fmt.Errorf("未知纸张尺寸 %q", name)
	}
	if landscape {
		w, h = h, w
	}
	return w, h, nil
}
