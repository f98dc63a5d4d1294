package layout

import (
	"fmt"
	"math"
)

// DocumentMeta 为输出文件的元信息。
type DocumentMeta struct {
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// PageSpec 描述页面尺寸与边距（用户单位）。
type PageSpec struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Margins Margins `json:"margins"`
}

// Document 是按顺序自上而下绘制的顶层块集合。
type Document struct {
	Meta    DocumentMeta `json:"meta"`
	Page    PageSpec     `json:"page"`
	Spacing float64      `json:"spacing,omitempty"`
	Blocks  []Node       `json:"-"`
}

const cursorEpsilon = 1e-6

// Draw 依次绘制各块。每块从左边距开始；放不下且不在页顶时先换页（表格自行分页）。
// 绘制后光标未下移的块（如段落、图片）按其高度推进。
func (d *Document) Draw(c Canvas) error {
	for i, n := range d.Blocks {
		left := c.Margins().Left
		h, err := blockHeight(c, n)
		if err != nil {
			return fmt.Errorf("第 %d 个块: %w", i, err)
		}
		if _, paged := n.(*BoxTable); !paged {
			if h > c.RemainingHeight() && c.Y() > c.Margins().Top+cursorEpsilon {
				c.NewPage()
			}
		}
		top := c.Y()
		c.SetXY(left, top)
		if err := n.Draw(c); err != nil {
			return fmt.Errorf("第 %d 个块: %w", i, err)
		}
		y := c.Y()
		if math.Abs(y-top) < cursorEpsilon {
			y = top + h
		}
		c.SetXY(left, y+d.Spacing)
	}
	return nil
}

func blockHeight(c Canvas, n Node) (float64, error) {
	if h := n.Height(); h > 0 {
		return h, nil
	}
	return n.AutoHeight(c)
}
