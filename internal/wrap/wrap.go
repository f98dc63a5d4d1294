// Package wrap 实现各画布共用的单行断行规则。
package wrap

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const epsilon = 1e-9

// Measure returns the rendered width of s.
type Measure func(s string) float64

// FitLine 从 text 中取出能放进 avail 宽度的一行，返回该行与剩余部分。
//
// 规则：
//   - 仅考虑第一个换行符之前的内容，换行符保留在 rest 开头；
//   - 优先在空白处断行，行尾空白会被去掉；
//   - 第一个词就放不下时，若 atStart 为真或该词比整行 full 还宽，则在字符间切分（至少一个字符）；
//     否则返回空行，由调用方换到下一行再试。
func FitLine(text string, avail, full float64, atStart bool, measure Measure) (line, rest string) {
	if text == "" {
		return "", ""
	}
	head := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		head = text[:i]
	}
	if measure(head) <= avail+epsilon {
		return head, text[len(head):]
	}

	tokens := tokenize(head)
	var (
		consumed int
		accepted int // 已接受内容（含前导空白）的字节长度
		hasWord  bool
	)
	for _, tok := range tokens {
		next := consumed + len(tok)
		if measure(head[:next]) > avail+epsilon {
			if hasWord {
				cut := accepted
				if isSpace(tok) {
					cut = consumed
				}
				return strings.TrimRightFunc(head[:cut], unicode.IsSpace), text[cut:]
			}
			if !atStart && (isSpace(tok) || measure(tok) <= full+epsilon) {
				return "", text
			}
			n := splitRunes(head, avail, measure)
			return head[:n], text[n:]
		}
		consumed = next
		if !isSpace(tok) {
			hasWord = true
			accepted = consumed
		}
	}
	// head 整体放不下，循环内必然返回。
	return head, text[len(head):]
}

// Lines 将 text 按 width 折成多行。显式换行产生新行，自动断行后剩余部分去掉前导空格。
func Lines(text string, width float64, measure Measure) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for {
		line, rest := FitLine(text, width, width, true, measure)
		out = append(out, line)
		rest = Advance(rest)
		if rest == "" {
			return out
		}
		text = rest
	}
}

// Advance 去掉剩余文本开头的一个换行符以及随后的空格。
func Advance(rest string) string {
	rest = strings.TrimPrefix(rest, "\n")
	return strings.TrimLeft(rest, " ")
}

// splitRunes returns how many bytes of s fit in avail, never less than one rune.
func splitRunes(s string, avail float64, measure Measure) int {
	_, size := utf8.DecodeRuneInString(s)
	n := size
	for n < len(s) {
		_, sz := utf8.DecodeRuneInString(s[n:])
		if measure(s[:n+sz]) > avail+epsilon {
			break
		}
		n += sz
	}
	return n
}

// tokenize 将一行拆成交替的空白段与非空白段。
func tokenize(s string) []string {
	var tokens []string
	start := 0
	lastSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i == 0 {
			lastSpace = sp
			continue
		}
		if sp != lastSpace {
			tokens = append(tokens, s[start:i])
			start = i
			lastSpace = sp
		}
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isSpace(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsSpace(r)
}
