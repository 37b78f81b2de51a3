package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/labelsheet/dsl"
)

const sampleDSL = `
labels Shipping v1 {
  meta {
    title: "Shipping labels"
    keywords: [
      "warehouse"
      "outbound"
    ]
  }

  // 65-up sheet with a custom top margin
  sheet L7651 {
    margin-top: 12mm
  }

  label center repeat 2 {
    text "WEBBERFUL!" font "Go" size 12pt bold
    text "Wonderful Web Works" size 10pt italic underline
  }

  label left each data.guests {
    text "${name}" size 11pt
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Name != "Shipping" {
		t.Fatalf("expected document name Shipping, got %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("expected version v1, got %s", doc.Version)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(doc.Sections))
	}
	if kind := doc.Sections[1].Kind(); kind != "sheet" {
		t.Fatalf("expected second section to be sheet, got %s", kind)
	}

	meta := doc.Sections[0].Meta
	if meta == nil {
		t.Fatalf("meta section missing")
	}
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("expected title assignment, got %+v", meta.Block.Statements[0])
	}
	if got := string(*title.Value.String); got != "Shipping labels" {
		t.Fatalf("expected title 'Shipping labels', got %s", got)
	}
	keywords := meta.Block.Statements[1].Assignment
	if keywords == nil || keywords.Value.List == nil || len(keywords.Value.List.Items) != 2 {
		t.Fatalf("expected 2 keywords, got %+v", keywords)
	}

	sheet := doc.Sheet()
	if sheet == nil || sheet.Name != "L7651" {
		t.Fatalf("expected sheet L7651, got %+v", sheet)
	}
	if sheet.Block == nil || len(sheet.Block.Statements) != 1 {
		t.Fatalf("expected one sheet override")
	}
	override := sheet.Block.Statements[0].Assignment
	if override == nil || override.Key != "margin-top" || override.Value.Number == nil || *override.Value.Number != "12mm" {
		t.Fatalf("unexpected sheet override: %+v", sheet.Block.Statements[0])
	}

	labels := doc.Labels()
	if len(labels) != 2 {
		t.Fatalf("expected 2 label sections, got %d", len(labels))
	}
	if got := tokensToString(labels[0].Args); got != "center repeat 2" {
		t.Fatalf("unexpected label args: %s", got)
	}
	if len(labels[0].Block.Statements) != 2 {
		t.Fatalf("expected 2 text commands, got %d", len(labels[0].Block.Statements))
	}
	text := labels[0].Block.Statements[0].Command
	if text == nil || text.Name != "text" {
		t.Fatalf("expected text command, got %+v", labels[0].Block.Statements[0])
	}
	if got := tokensToString(text.Args); got != "WEBBERFUL! font Go size 12pt bold" {
		t.Fatalf("unexpected text args: %s", got)
	}
	if got := tokensToString(labels[1].Args); got != "left each data . guests" {
		t.Fatalf("unexpected each args: %s", got)
	}
	if got := labels[1].Block.Statements[0].Command.Args[0].Value; !strings.Contains(got, "${name}") {
		t.Fatalf("expected interpolation in text literal, got %s", got)
	}
}

func TestParseSheetWithoutBlock(t *testing.T) {
	doc, err := dsl.ParseString("labels Plain v1 {\n  sheet Avery-5160\n  label { text \"x\" }\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sheet := doc.Sheet()
	if sheet == nil || sheet.Name != "Avery-5160" || sheet.Block != nil {
		t.Fatalf("unexpected sheet section: %+v", sheet)
	}
	if len(doc.Labels()) != 1 {
		t.Fatalf("expected one label")
	}
}

func TestParseRejectsUnknownSection(t *testing.T) {
	if _, err := dsl.ParseString("labels Bad v1 {\n  page A4 { }\n}\n"); err == nil {
		t.Fatalf("expected parse error for unknown section")
	}
}

func tokensToString(parts []*dsl.Lexeme) string {
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, p.Value)
	}
	return strings.Join(values, " ")
}
