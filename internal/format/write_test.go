package format

import "testing"

func TestWriterColumnTracking(t *testing.T) {
	w := NewWriter("", Options{LineWidth: 10})
	w.WriteString("héllo")
	if w.Column() != 5 {
		t.Fatalf("column: got %d, want 5", w.Column())
	}
	w.WriteString("世界")
	if w.Column() != 9 {
		t.Fatalf("wide runes: got %d, want 9", w.Column())
	}
	if w.Fits("x") {
		t.Fatal("a space and one more cell should exceed width 10")
	}
	w.Newline()
	if !w.AtLineStart() || w.Column() != 0 {
		t.Fatal("newline should reset the column")
	}
	if !w.Fits("a-very-long-word-exceeding-width") {
		t.Fatal("an empty line always fits")
	}
}

func TestWriterSpace(t *testing.T) {
	w := NewWriter("", Options{})
	w.Space()
	w.WriteString("a")
	w.Space()
	w.Space()
	w.WriteString("b")
	w.Newline()
	w.WriteString("c")
	if got := w.String(); got != "a b\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestWriterCopyRangeAndFinish(t *testing.T) {
	src := "abc\ndef\n"
	w := NewWriter(src, Options{})
	w.CopyRange(-3, 4)
	w.CopyRange(4, 100)
	w.CopyRange(5, 2)
	w.WriteString("\n\n  \n")
	if got := w.Finish(); got != src {
		t.Fatalf("got %q, want %q", got, src)
	}
	if got := NewWriter("", Options{}).Finish(); got != "" {
		t.Fatalf("blank output: got %q", got)
	}
}
