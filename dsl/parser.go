// Package dsl 解析 .folio 布局文档。
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	folioLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "Variable", Pattern: `\$\{[^}\n]*\}`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)(?:pt|mm|cm|in|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.-]*`},
		{Name: "Symbol", Pattern: `[][(),=;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames       = invertSymbols(folioLexer.Symbols())
	newlineTokenType = mustTokenType("Newline")
	lbraceTokenType  = mustTokenType("LBrace")
	rbraceTokenType  = mustTokenType("RBrace")
	symbolTokenType  = mustTokenType("Symbol")
	stringTokenType  = mustTokenType("String")

	documentParser = participle.MustBuild[Document](
		participle.Lexer(folioLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
	)
)

// Parse parses a document from an io.Reader. name is used in error positions.
func Parse(name string, r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", name, err)
	}
	return doc, nil
}

// ParseString parses a document held in memory.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("解析失败: %w", err)
	}
	return doc, nil
}

// Parse implements participle.Parseable: 一个参数是到换行、分号或花括号为止的任意单个记号。
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	tok := lex.Peek()
	if stopsArgs(tok) {
		return participle.NextMatch
	}
	next := lex.Next()
	lexeme, err := newLexeme(*next)
	if err != nil {
		return err
	}
	*l = lexeme
	return nil
}

// Capture implements participle.Capture by unquoting Go-style strings.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量缺少内容")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

func stopsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, rbraceTokenType, lbraceTokenType:
		return true
	case symbolTokenType:
		return tok.Value == ";"
	}
	return false
}

func newLexeme(tok lexer.Token) (Lexeme, error) {
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringTokenType {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		val = unquoted
	}
	return Lexeme{Type: name, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := folioLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
