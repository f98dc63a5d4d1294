package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// OutlineNode 是布局树的调试快照。
type OutlineNode struct {
	Kind     string        `json:"kind"`
	Width    float64       `json:"width,omitempty"`
	Height   float64       `json:"height,omitempty"`
	Text     string        `json:"text,omitempty"`
	Rotation int           `json:"rotation,omitempty"`
	Skip     bool          `json:"skip,omitempty"`
	Position *int          `json:"position,omitempty"`
	Children []OutlineNode `json:"children,omitempty"`
}

// Outline 生成节点及其子节点的快照。
func Outline(n Node) OutlineNode {
	out := OutlineNode{Kind: fmt.Sprintf("%T", n), Width: n.Width(), Height: n.Height()}
	switch v := n.(type) {
	case *Box:
		out.Kind = "box"
		out.Text = abbreviate(v.Text)
		out.Rotation = v.Rotation()
		if v.Flow != nil {
			out.Children = append(out.Children, Outline(v.Flow))
		}
	case *FlowBlock:
		out.Kind = "flow"
		for _, r := range v.runs {
			out.Children = append(out.Children, OutlineNode{Kind: "run", Text: abbreviate(r.Text), Height: r.Font.Size})
		}
	case *BoxRow:
		out.Kind = "row"
		out.Skip = v.Skip
		for _, cell := range v.cells {
			out.Children = append(out.Children, Outline(cell))
		}
	case *BoxTable:
		out.Kind = "table"
		v.Rows(func(i int, r *BoxRow) {
			child := Outline(r)
			pos := i
			child.Position = &pos
			out.Children = append(out.Children, child)
		})
	case *Image:
		out.Kind = "image"
		out.Text = v.Src
	case *BoxGroup:
		out.Kind = "group"
	case *Spacer:
		out.Kind = "spacer"
	}
	return out
}

// WriteDebugJSON 将文档的布局树输出为 JSON，便于调试或可视化。
func WriteDebugJSON(doc *Document, path string) error {
	if doc == nil {
		return nil
	}
	payload := struct {
		Meta   DocumentMeta  `json:"meta"`
		Page   PageSpec      `json:"page"`
		Blocks []OutlineNode `json:"blocks"`
	}{Meta: doc.Meta, Page: doc.Page}
	for _, n := range doc.Blocks {
		payload.Blocks = append(payload.Blocks, Outline(n))
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
