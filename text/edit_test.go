package text

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"hslf/record"
	"hslf/textprop"
)

func TestNewEmptyBlock(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))

	if got := b.Text(); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
	if b.RunType() != record.TextTypeOther {
		t.Errorf("RunType() = %d, want %d", b.RunType(), record.TextTypeOther)
	}
	if b.Index() != -1 {
		t.Errorf("Index() = %d, want -1", b.Index())
	}
	if len(b.Paragraphs()) != 1 || len(b.Paragraphs()[0].Runs()) != 1 {
		t.Fatal("empty block must carry one paragraph with one run")
	}

	// the record set must be complete enough to save right away
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestAppendText_SingleLine(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))

	run, err := b.AppendText("Hello", false)
	if err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if run.RawText() != "Hello" {
		t.Errorf("returned run text = %q, want %q", run.RawText(), "Hello")
	}
	if len(b.Paragraphs()) != 1 {
		t.Errorf("got %d paragraphs, want 1: the empty run is reused", len(b.Paragraphs()))
	}
	if got := b.Text(); got != "Hello" {
		t.Errorf("Text() = %q, want %q", got, "Hello")
	}
}

func TestAppendText_MultiLine(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))

	run, err := b.AppendText("X\nY", false)
	if err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if run.RawText() != "Y" {
		t.Errorf("returned run text = %q, want the last segment %q", run.RawText(), "Y")
	}
	if got := b.RawText(); got != "X\rY" {
		t.Errorf("RawText() = %q, want %q", got, "X\rY")
	}
	if got := len(b.Paragraphs()); got != 2 {
		t.Fatalf("got %d paragraphs, want 2", got)
	}
	if got := b.Text(); got != "X\nY" {
		t.Errorf("Text() = %q, want %q", got, "X\nY")
	}
}

func TestAppendText_AsNewParagraph(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))
	if _, err := b.AppendText("first", false); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if _, err := b.AppendText("second", true); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}

	if got := len(b.Paragraphs()); got != 2 {
		t.Fatalf("got %d paragraphs, want 2", got)
	}
	// the previous paragraph gained its line separator during the save
	if got := b.RawText(); got != "first\rsecond" {
		t.Errorf("RawText() = %q, want %q", got, "first\rsecond")
	}
}

func TestAppendText_ClonesStyleOfLastRun(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))
	run, err := b.AppendText("lead", false)
	if err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	run.SetBold(true)
	run.SetFontSize(28)

	appended, err := b.AppendText("tail", true)
	if err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if !appended.Bold() {
		t.Error("appended run lost the bold flag of the preceding run")
	}
	if got := appended.FontSize(); got != 28 {
		t.Errorf("appended run font size = %d, want 28", got)
	}
	// styles are copies, not aliases
	appended.SetFontSize(8)
	if got := run.FontSize(); got != 28 {
		t.Errorf("editing the new run changed the old one: font size = %d", got)
	}
}

func TestAppendText_OnParsedBlock(t *testing.T) {
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"start", styleSpans([]int{6}, []int{6}))
	b := parseOne(t, host)

	if _, err := b.AppendText(" more", false); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if got := b.Text(); got != "start more" {
		t.Errorf("Text() = %q, want %q", got, "start more")
	}

	// the storage record in the tree carries the new text as well
	for _, r := range host.Children() {
		if ba, ok := r.(*record.TextBytesAtom); ok {
			if ba.Text() != "start more" {
				t.Errorf("stored text = %q, want %q", ba.Text(), "start more")
			}
			return
		}
	}
	t.Fatal("no narrow text record in the host")
}

func TestAppendText_EmptyBlock(t *testing.T) {
	b := &Block{}
	if _, err := b.AppendText("x", false); !errors.Is(err, ErrStructure) {
		t.Errorf("AppendText() error = %v, want ErrStructure", err)
	}
}

func TestSetText(t *testing.T) {
	sta := styleSpans(nil, []int{4, 4})
	first := sta.AddParagraphTextPropCollection(4)
	first.AddWithName(textprop.AlignmentName).SetValue(textprop.AlignCenter)
	sta.AddParagraphTextPropCollection(4)

	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody, "one\rtwo", sta)
	b := parseOne(t, host)

	run, err := b.SetText("three\nfour\nfive")
	if err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if run.RawText() != "five" {
		t.Errorf("returned run text = %q, want %q", run.RawText(), "five")
	}
	if got := b.Text(); got != "three\nfour\nfive" {
		t.Errorf("Text() = %q, want %q", got, "three\nfour\nfive")
	}
	if got := len(b.Paragraphs()); got != 3 {
		t.Fatalf("got %d paragraphs, want 3", got)
	}
	// the surviving first paragraph keeps its style, the new ones clone it
	for i, p := range b.Paragraphs() {
		if got := p.Alignment(); got != textprop.AlignCenter {
			t.Errorf("paragraph %d alignment = %d, want the inherited center", i, got)
		}
	}
}

func TestSetText_Twice(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))
	if _, err := b.SetText("a\nb\nc"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if _, err := b.SetText("just one"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if got := len(b.Paragraphs()); got != 1 {
		t.Errorf("got %d paragraphs, want 1", got)
	}
	if got := b.Text(); got != "just one" {
		t.Errorf("Text() = %q, want %q", got, "just one")
	}
}

func TestSetText_SwitchesEncoding(t *testing.T) {
	b := NewEmptyBlock(zaptest.NewLogger(t))
	if _, err := b.SetText("привет"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}

	var wide *record.TextCharsAtom
	for _, r := range b.Host().Children() {
		switch a := r.(type) {
		case *record.TextCharsAtom:
			wide = a
		case *record.TextBytesAtom:
			t.Fatal("narrow record still present after storing non-Latin text")
		}
	}
	if wide == nil || wide.Text() != "привет" {
		t.Errorf("wide record = %v, want the stored text", wide)
	}
}
