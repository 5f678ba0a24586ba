package text

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"hslf/record"
	"hslf/textprop"
)

// findChild returns the first child of the given concrete type, or nil.
func findStyleChild(host *record.Container) *record.StyleTextPropAtom {
	for _, r := range host.Children() {
		if a, ok := r.(*record.StyleTextPropAtom); ok {
			return a
		}
	}
	return nil
}

func TestSave_RoundTrip(t *testing.T) {
	sta := styleSpans(nil, []int{3, 3})
	sta.AddParagraphTextPropCollection(3)
	second := sta.AddParagraphTextPropCollection(3)
	second.AddWithName(textprop.AlignmentName).SetValue(textprop.AlignCenter)

	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody, "AB\rCD", sta)
	b := parseOne(t, host)

	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := host.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	recs, err := record.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	back := parseOne(t, recs[0].(*record.Container))

	if back.Text() != b.Text() {
		t.Errorf("round trip text = %q, want %q", back.Text(), b.Text())
	}
	paras := back.Paragraphs()
	if len(paras) != 2 {
		t.Fatalf("round trip produced %d paragraphs, want 2", len(paras))
	}
	if paras[0].Alignment() != textprop.AlignLeft || paras[1].Alignment() != textprop.AlignCenter {
		t.Error("paragraph styles did not survive the round trip")
	}
}

func TestSave_CoverageAccountsForTerminator(t *testing.T) {
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"AB\rCD", styleSpans([]int{3, 3}, []int{6}))
	b := parseOne(t, host)
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sta := findStyleChild(host)
	if sta == nil {
		t.Fatal("no style record in the host after save")
	}
	textLen := charLen(toInternalString(b.RawText()))

	sum := 0
	for _, span := range sta.ParagraphStyles() {
		sum += span.CharactersCovered()
	}
	if sum != textLen+1 {
		t.Errorf("paragraph coverage sum = %d, want %d", sum, textLen+1)
	}
	sum = 0
	for _, span := range sta.CharacterStyles() {
		sum += span.CharactersCovered()
	}
	if sum != textLen+1 {
		t.Errorf("character coverage sum = %d, want %d", sum, textLen+1)
	}
}

func TestSave_MergesEqualSpans(t *testing.T) {
	// two paragraphs and two runs with identical styling collapse into a
	// single span of each kind
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"AB\rCD", styleSpans([]int{3, 3}, []int{3, 3}))
	b := parseOne(t, host)
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	sta := findStyleChild(host)
	if got := len(sta.ParagraphStyles()); got != 1 {
		t.Errorf("paragraph spans = %d, want 1 after merging", got)
	}
	if got := len(sta.CharacterStyles()); got != 1 {
		t.Errorf("character spans = %d, want 1 after merging", got)
	}
	if got := sta.CharacterStyles()[0].CharactersCovered(); got != 6 {
		t.Errorf("merged character coverage = %d, want 6", got)
	}
}

func TestSave_KeepsDistinctSpans(t *testing.T) {
	sta := styleSpans([]int{6}, nil)
	bold := sta.AddCharacterTextPropCollection(3)
	bold.AddWithName(textprop.CharFlagsName).SetSubValue(true, textprop.BoldFlag)
	sta.AddCharacterTextPropCollection(3)

	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody, "AB\rCD", sta)
	b := parseOne(t, host)
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := findStyleChild(host).CharacterStyles()
	if len(got) != 2 {
		t.Fatalf("character spans = %d, want 2 distinct spans", len(got))
	}
	if got[0].CharactersCovered() != 3 || got[1].CharactersCovered() != 3 {
		t.Errorf("span coverage = %d, %d, want 3, 3",
			got[0].CharactersCovered(), got[1].CharactersCovered())
	}
}

func TestSave_SwitchesToWideStorage(t *testing.T) {
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"plain", styleSpans([]int{6}, []int{6}))
	b := parseOne(t, host)

	b.Paragraphs()[0].Runs()[0].SetRawText("日本語")
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	children := host.Children()
	// the storage record is swapped in place, siblings keep their order
	if children[1].RecType() != record.TypeTextChars {
		t.Fatalf("children[1] is %s, want TextCharsAtom", children[1].RecType())
	}
	for _, r := range children {
		if r.RecType() == record.TypeTextBytes {
			t.Fatal("narrow record must be removed after the switch")
		}
	}
	if got := b.Paragraphs()[0].charsAtom; got == nil {
		t.Error("paragraph not rewired to the wide record")
	}
	if got := b.Paragraphs()[0].bytesAtom; got != nil {
		t.Error("paragraph still references the narrow record")
	}
}

func TestSave_SwitchesBackToNarrowStorage(t *testing.T) {
	sta := styleSpans([]int{3}, []int{3})
	host := record.NewContainer(record.TypeSlideListWithText, 0)
	host.AppendChild(record.NewTextHeaderAtom(record.TextTypeBody))
	ca := record.NewTextCharsAtom()
	ca.SetText("中文")
	host.AppendChild(ca)
	host.AppendChild(sta)

	b := parseOne(t, host)
	b.Paragraphs()[0].Runs()[0].SetRawText("ok")
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if host.Children()[1].RecType() != record.TypeTextBytes {
		t.Errorf("children[1] is %s, want TextBytesAtom", host.Children()[1].RecType())
	}
}

func TestSave_SplicesSynthesizedRecords(t *testing.T) {
	host := record.NewContainer(record.TypeSlideListWithText, 0)
	host.AppendChild(record.NewTextHeaderAtom(record.TextTypeOther))

	b := parseOne(t, host)
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	children := host.Children()
	if len(children) != 3 {
		t.Fatalf("host has %d children, want header, text and style", len(children))
	}
	wantTypes := []record.Type{record.TypeTextHeader, record.TypeTextBytes, record.TypeStyleTextProp}
	for i, want := range wantTypes {
		if children[i].RecType() != want {
			t.Errorf("children[%d] = %s, want %s", i, children[i].RecType(), want)
		}
	}
}

func TestSave_UpdatesSpecInfoSize(t *testing.T) {
	var payload bytes.Buffer
	_ = binary.Write(&payload, binary.LittleEndian, uint32(4))
	_ = binary.Write(&payload, binary.LittleEndian, uint32(0x2)) // language run
	_ = binary.Write(&payload, binary.LittleEndian, int16(1033))
	var raw bytes.Buffer
	var h [8]byte
	binary.LittleEndian.PutUint16(h[2:4], uint16(record.TypeTextSpecInfo))
	binary.LittleEndian.PutUint32(h[4:8], uint32(payload.Len()))
	raw.Write(h[:])
	raw.Write(payload.Bytes())
	recs, err := record.Decode(raw.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	spec := recs[0].(*record.TextSpecInfoAtom)

	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"abc", styleSpans([]int{4}, []int{4}))
	host.AppendChild(spec)

	b := parseOne(t, host)
	if _, err := b.AppendText("defgh", false); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}

	if got, want := spec.CharactersCovered(), charLen("abcdefgh")+1; got != want {
		t.Errorf("spec info covers %d characters, want %d", got, want)
	}
}

func TestSave_WritesThroughTextbox(t *testing.T) {
	tb := record.NewTextbox(0)
	tb.AppendChild(record.NewTextHeaderAtom(record.TextTypeOther))
	ba := record.NewTextBytesAtom()
	ba.SetText("old")
	tb.AppendChild(ba)
	tb.AppendChild(styleSpans([]int{4}, []int{4}))
	if err := tb.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	b, err := ParseTextbox(tb, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("ParseTextbox() error = %v", err)
	}
	b.Paragraphs()[0].Runs()[0].SetRawText("new")
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !bytes.Contains(tb.Cached(), []byte("new")) {
		t.Error("textbox cache was not rewritten on save")
	}
	if bytes.Contains(tb.Cached(), []byte("old")) {
		t.Error("textbox cache still holds the replaced text")
	}
}

func TestSave_EmptyBlock(t *testing.T) {
	b := &Block{}
	if err := b.Save(); !errors.Is(err, ErrStructure) {
		t.Errorf("Save() error = %v, want ErrStructure", err)
	}
}

func TestSave_ParagraphWithoutRuns(t *testing.T) {
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"ab", styleSpans([]int{3}, []int{3}))
	b := parseOne(t, host)
	b.paras[0].runs = nil
	if err := b.Save(); !errors.Is(err, ErrStructure) {
		t.Errorf("Save() error = %v, want ErrStructure", err)
	}
}

func TestSave_RestoresLineSeparators(t *testing.T) {
	host := hostWithText(record.TypeSlideListWithText, record.TextTypeBody,
		"AB\rCD", styleSpans([]int{3, 3}, []int{6}))
	b := parseOne(t, host)

	// drop the separator that leads into the second paragraph
	b.paras[0].runs[0].text = "AB"
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := b.RawText(); got != "AB\rCD" {
		t.Errorf("RawText() = %q, want %q", got, "AB\rCD")
	}
}
