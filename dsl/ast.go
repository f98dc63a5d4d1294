package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Document is the root of a .folio file:
//
//	folio "title" { meta {...} resources {...} page letter margin 1in  body {...} }
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Title    *StringLiteral `parser:"Newline* 'folio' @String?"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is one top-level part of a document.
type Section struct {
	Meta      *Block    `parser:"  'meta' @@"`
	Resources *Block    `parser:"| 'resources' @@"`
	Page      *PageSpec `parser:"| 'page' @@"`
	Body      *Block    `parser:"| 'body' @@"`
}

// PageSpec keeps the raw tokens after `page` (size, orientation, margins...).
type PageSpec struct {
	Args []*Lexeme `parser:"@@*"`
}

// Block is a braced list of statements separated by newlines or semicolons.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement is either `key: value` or a command.
type Statement struct {
	Assignment *Assignment `parser:"  @@"`
	Command    *Command    `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command is `name arg* { ... }?`, e.g. `box "Total" width 2in { fill: #eee }`.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// Value is the right-hand side of an assignment.
type Value struct {
	String   *StringLiteral `parser:"  @String"`
	Number   *string        `parser:"| @Number"`
	Color    *string        `parser:"| @Color"`
	Variable *string        `parser:"| @Variable"`
	Ident    *string        `parser:"| @Ident"`
	Array    *ArrayValue    `parser:"| @@"`
}

// ArrayValue captures `[ a, b ]`; newlines also separate items.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Lexeme is a single raw token used as a command argument.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Text 返回值的字符串形式，数组以逗号连接。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Variable != nil:
		return *v.Variable
	case v.Ident != nil:
		return *v.Ident
	case v.Array != nil:
		return strings.Join(v.Strings(), ",")
	}
	return ""
}

// Strings flattens an array value; a scalar yields a one-element slice.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		if s := v.Text(); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		if s := item.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Sections of each kind, in document order.
func (d *Document) Meta() []*Block {
	var out []*Block
	for _, s := range d.Sections {
		if s.Meta != nil {
			out = append(out, s.Meta)
		}
	}
	return out
}

func (d *Document) Resources() []*Block {
	var out []*Block
	for _, s := range d.Sections {
		if s.Resources != nil {
			out = append(out, s.Resources)
		}
	}
	return out
}

// Page returns the last page spec, or nil.
func (d *Document) Page() *PageSpec {
	var page *PageSpec
	for _, s := range d.Sections {
		if s.Page != nil {
			page = s.Page
		}
	}
	return page
}

func (d *Document) Body() []*Block {
	var out []*Block
	for _, s := range d.Sections {
		if s.Body != nil {
			out = append(out, s.Body)
		}
	}
	return out
}
