package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Subject", "Accuracy", "Hits"}
	rows := [][]string{
		{"p01", "97.50%", "12"},
		{"long-id", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "Subject  Accuracy  Hits" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "-------  --------  ----" {
		t.Fatalf("unexpected separator line: %q", lines[1])
	}
	if lines[2] != "p01        97.50%    12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
	if lines[3] != "long-id     8.00%     3" {
		t.Fatalf("unexpected row line: %q", lines[3])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Subject", "N"}, [][]string{{"被験者", "2"}, {"ab", "3"}}, map[int]bool{1: true})
	if lines[2] != "被験者   2" {
		t.Fatalf("unexpected wide row: %q", lines[2])
	}
	if lines[3] != "ab       3" {
		t.Fatalf("unexpected narrow row: %q", lines[3])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil, got %v", lines)
	}
}
