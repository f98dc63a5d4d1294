package layout

// Node 是布局树中所有节点（Box、BoxRow、BoxTable、FlowBlock、图片等）共有的能力。
type Node interface {
	AutoWidth(c Canvas) (float64, error)
	AutoHeight(c Canvas) (float64, error)
	Width() float64
	Height() float64
	// Draw 在当前光标处绘制节点。
	Draw(c Canvas) error
	// Clone 深拷贝节点及其拥有的全部子节点。
	Clone() Node
}

// WidthSetter is implemented by nodes whose width can be assigned.
type WidthSetter interface {
	SetWidth(w float64)
}

// HeightSetter is implemented by nodes whose height can be assigned.
type HeightSetter interface {
	SetHeight(h float64)
}

// Spacer 占据固定宽度的空白，高度不可设置。
type Spacer struct {
	W, H float64
}

func (s *Spacer) AutoWidth(Canvas) (float64, error)  { return s.W, nil }
func (s *Spacer) AutoHeight(Canvas) (float64, error) { return s.H, nil }
func (s *Spacer) Width() float64                     { return s.W }
func (s *Spacer) Height() float64                    { return s.H }
func (s *Spacer) SetWidth(w float64)                 { s.W = w }
func (s *Spacer) Clone() Node                        { cp := *s; return &cp }

// Draw advances the cursor by the spacer width.
func (s *Spacer) Draw(c Canvas) error {
	c.SetXY(c.X()+s.W, c.Y())
	return nil
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		if n != nil {
			out[i] = n.Clone()
		}
	}
	return out
}
