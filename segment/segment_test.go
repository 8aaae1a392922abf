package segment

import (
	"reflect"
	"testing"

	"github.com/hugobastidas/pdf-loan-splitter/pagescan"
)

// seq builds a page sequence from a compact notation: "c" content, "b" blank,
// anything else a separator carrying that string as barcode value.
func seq(labels ...string) []pagescan.Analysis {
	pages := make([]pagescan.Analysis, len(labels))
	for i, l := range labels {
		a := pagescan.Analysis{Index: i + 1}
		switch l {
		case "c":
			a.Text = "texto"
		case "b":
			a.IsBlank = true
		default:
			a.BarcodeValue = l
			a.BarcodeType = "CODE_128"
		}
		pages[i] = a
	}
	return pages
}

// Two separators delimiting two runs of content: the first separator is
// consumed with nothing open, the second closes the first run, the trailing
// run closes at end of file with no bounding barcode.
func TestSplitTwoSeparators(t *testing.T) {
	docs, err := Split(seq("CEDULA_001", "c", "c", "c", "c", "CERT_002", "c", "c", "c", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}

	d1 := docs[0]
	if !reflect.DeepEqual(d1.Pages, []int{2, 3, 4, 5}) {
		t.Errorf("doc1 pages = %v", d1.Pages)
	}
	if d1.StartPage != 2 || d1.EndPage != 6 {
		t.Errorf("doc1 range = [%d,%d], want [2,6]", d1.StartPage, d1.EndPage)
	}
	if d1.BarcodeValue != "CERT_002" {
		t.Errorf("doc1 barcode = %q, want the closing separator's value", d1.BarcodeValue)
	}

	d2 := docs[1]
	if !reflect.DeepEqual(d2.Pages, []int{7, 8, 9, 10}) {
		t.Errorf("doc2 pages = %v", d2.Pages)
	}
	if d2.BarcodeValue != "" {
		t.Errorf("doc2 barcode = %q, want none (closed at EOF)", d2.BarcodeValue)
	}
	if d2.StartPage != 7 || d2.EndPage != 10 {
		t.Errorf("doc2 range = [%d,%d], want [7,10]", d2.StartPage, d2.EndPage)
	}
}

// Zero separators: exactly one document spanning all content pages.
func TestSplitNoSeparators(t *testing.T) {
	docs, err := Split(seq("c", "c", "c", "c", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	d := docs[0]
	if !reflect.DeepEqual(d.Pages, []int{1, 2, 3, 4, 5}) {
		t.Errorf("pages = %v", d.Pages)
	}
	if d.BarcodeValue != "" {
		t.Errorf("barcode = %q, want none", d.BarcodeValue)
	}
	if d.StartPage != 1 || d.EndPage != 5 {
		t.Errorf("range = [%d,%d]", d.StartPage, d.EndPage)
	}
}

// Blank page inside a span: excluded from emitted pages, flagged on the doc.
func TestSplitBlankInsideSpan(t *testing.T) {
	docs, err := Split(seq("SEP_1", "c", "b", "c", "c", "SEP_2"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	d := docs[0]
	if !reflect.DeepEqual(d.Pages, []int{2, 4, 5}) {
		t.Errorf("pages = %v, want [2 4 5]", d.Pages)
	}
	if !d.HasBlankPages {
		t.Error("blank page inside span not flagged")
	}
	if d.StartPage != 2 || d.EndPage != 6 {
		t.Errorf("range = [%d,%d], want [2,6]", d.StartPage, d.EndPage)
	}
}

// Consecutive leading separators yield nothing; trailing content closes at
// EOF with no barcode.
func TestSplitConsecutiveSeparators(t *testing.T) {
	docs, err := Split(seq("SEP_1", "SEP_2", "c", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	d := docs[0]
	if !reflect.DeepEqual(d.Pages, []int{3, 4}) {
		t.Errorf("pages = %v", d.Pages)
	}
	if d.BarcodeValue != "" {
		t.Errorf("barcode = %q, want none", d.BarcodeValue)
	}
}

// Entirely separators and blanks: zero documents, not an error.
func TestSplitNoContent(t *testing.T) {
	docs, err := Split(seq("SEP_1", "b", "SEP_2", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("documents = %d, want 0", len(docs))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	docs, err := Split(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("documents = %d, want 0", len(docs))
	}
}

// Blank pages between the last content page and the closing separator count
// as blank-in-span; blanks before the first content page of the span do not.
func TestSplitBlankBoundaries(t *testing.T) {
	// blank(2) precedes the first content page(3): outside [3,5].
	docs, err := Split(seq("SEP_1", "b", "c", "c", "SEP_2"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].HasBlankPages {
		t.Fatalf("docs = %+v, blank before start must not flag", docs)
	}

	// trailing blank(4) between content(3) and separator(5): inside [3,5].
	docs, err = Split(seq("SEP_1", "b", "c", "b", "SEP_2"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || !docs[0].HasBlankPages {
		t.Fatalf("docs = %+v, trailing blank must flag", docs)
	}
}

// Blanks accumulated before a silently-consumed separator must not leak into
// the next document.
func TestSplitBlankResetOnEmptyClose(t *testing.T) {
	docs, err := Split(seq("b", "SEP_1", "c", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d", len(docs))
	}
	if docs[0].HasBlankPages {
		t.Error("blank from before the separator leaked into the document")
	}
}

func TestSplitRejectsBadOrdering(t *testing.T) {
	pages := seq("c", "c")
	pages[1].Index = 5
	if _, err := Split(pages); err == nil {
		t.Fatal("expected error for gap in page indices")
	}

	pages = seq("c")
	pages[0].Index = 0
	if _, err := Split(pages); err == nil {
		t.Fatal("expected error for index 0")
	}
}

// Every content page lands in exactly one document, order preserved.
func TestPageCoverageInvariant(t *testing.T) {
	input := seq("c", "b", "SEP_A", "c", "c", "SEP_B", "SEP_C", "c", "b", "c")
	docs, err := Split(input)
	if err != nil {
		t.Fatal(err)
	}

	var want []int
	for _, p := range input {
		if p.Label() == pagescan.LabelContent {
			want = append(want, p.Index)
		}
	}

	var got []int
	for _, d := range docs {
		got = append(got, d.Pages...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("covered pages = %v, want %v", got, want)
	}
}

// Documents with a bounding barcode correspond one-to-one with separators
// that closed a non-empty accumulator.
func TestSeparatorConsumption(t *testing.T) {
	input := seq("SEP_1", "SEP_2", "c", "SEP_3", "b", "SEP_4", "c", "c")
	docs, err := Split(input)
	if err != nil {
		t.Fatal(err)
	}

	bounded := 0
	for _, d := range docs {
		if d.BarcodeValue != "" {
			bounded++
		}
	}
	// Only SEP_3 closed content; SEP_1, SEP_2, SEP_4 consumed nothing.
	if bounded != 1 {
		t.Fatalf("bounded documents = %d, want 1", bounded)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}
}

// Same input twice, same output: segmentation is deterministic.
func TestSplitDeterministic(t *testing.T) {
	input := seq("SEP_1", "c", "b", "c", "SEP_2", "c")
	a, err := Split(input)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Split(input)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("non-deterministic: %+v vs %+v", a, b)
	}
}
