package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/folio/dsl"
)

const sampleDSL = `
folio "Marx Brothers" {
  meta {
    title: "Screen time"
    keywords: [
      "report"
      "internal"
    ]
  }

  resources {
    color brand #0098CE
    style legend { font-size: 9; border: 1 }
  }

  page letter portrait margin 1in 0.5in

  body {
    // 两列说明
    box legend "Hello, ${user.name}!" width 3.75in ln 0 {
      fill: brand
      padding: [1mm, 2mm]
    }
    table min-rows 2 {
      row { box "a" width 1in; box "b" width -2.5mm }
    }
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Title == nil || string(*doc.Title) != "Marx Brothers" {
		t.Fatalf("expected title, got %v", doc.Title)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}

	meta := doc.Meta()
	if len(meta) != 1 || len(meta[0].Statements) != 2 {
		t.Fatalf("meta statements missing: %+v", meta)
	}
	keywords := meta[0].Statements[1].Assignment
	if keywords == nil || strings.Join(keywords.Value.Strings(), "|") != "report|internal" {
		t.Fatalf("unexpected keywords: %+v", keywords)
	}

	res := doc.Resources()[0].Statements
	if res[0].Command == nil || res[0].Command.Args[1].Type != "Color" {
		t.Fatalf("color resource not parsed: %+v", res[0])
	}

	page := doc.Page()
	if page == nil || len(page.Args) != 5 || page.Args[0].Value != "letter" || page.Args[3].Value != "1in" {
		t.Fatalf("unexpected page args: %+v", page)
	}

	body := doc.Body()[0].Statements
	if len(body) != 2 {
		t.Fatalf("expected 2 body commands, got %d", len(body))
	}
	box := body[0].Command
	if box.Name != "box" || box.Args[1].Type != "String" || box.Args[1].Value != "Hello, ${user.name}!" {
		t.Fatalf("unexpected box command: %+v", box)
	}
	if box.Block == nil || len(box.Block.Statements) != 2 {
		t.Fatalf("box block missing")
	}
	if got := box.Block.Statements[1].Assignment.Value.Text(); got != "1mm,2mm" {
		t.Fatalf("unexpected padding value %q", got)
	}

	table := body[1].Command
	row := table.Block.Statements[0].Command
	if row.Name != "row" || len(row.Block.Statements) != 2 {
		t.Fatalf("row cells not parsed: %+v", row)
	}
	if v := row.Block.Statements[1].Command.Args[2].Value; v != "-2.5mm" {
		t.Fatalf("negative length not parsed: %q", v)
	}
}

func TestParseRejectsUnclosedBlock(t *testing.T) {
	if _, err := dsl.ParseString(`folio { body { box "x" `); err == nil {
		t.Fatalf("expected parse error")
	}
}
