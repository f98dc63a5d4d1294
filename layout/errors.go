package layout

import "errors"

var (
	// ErrInvalidRotation 旋转值不在 0..3 内。
	ErrInvalidRotation = errors.New("layout: rotation must be 0, 1, 2 or 3")
	// ErrWidthRequired 在设置宽度之前进行了折行计算。
	ErrWidthRequired = errors.New("layout: width must be set before flowing text")
	// ErrSizeUnresolved 绘制时无法确定宽度或高度。
	ErrSizeUnresolved = errors.New("layout: unable to resolve width and height")
	// ErrMissingResource 引用的文件不存在。
	ErrMissingResource = errors.New("layout: resource not found")
	// ErrNotImage 文件内容不是可解码的图片。
	ErrNotImage = errors.New("layout: not a decodable image")
	// ErrInvalidFont 字号非正数。
	ErrInvalidFont = errors.New("layout: font size must be positive")
	// ErrUnknownOption 配置中出现了无法识别的键。
	ErrUnknownOption = errors.New("layout: unknown option")
	// ErrFlowDesync 实际绘制的行数超出了度量阶段得到的行数。
	ErrFlowDesync = errors.New("layout: flow pass produced more lines than the metrics pass")
)
