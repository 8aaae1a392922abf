// Package segment partitions a labeled page sequence into sub-documents.
//
// A separator page closes the document accumulated so far; blank pages are
// recorded inside the open span but never emitted; consecutive or leading
// separators produce no empty documents. Trailing content with no closing
// separator still becomes a final document with no bounding barcode.
//
// Invariant: every content page of the input belongs to exactly one output
// document's Pages list, in original order, with no duplication.
package segment

import (
	"fmt"

	"github.com/hugobastidas/pdf-loan-splitter/pagescan"
)

// Document is one segmented sub-document, identified by the content pages it
// emits and the separator that closed it.
type Document struct {
	// StartPage and EndPage are the inclusive 1-based range in the source
	// PDF. EndPage is the closing separator's index, or the last page of
	// the sequence for a document closed at end of file.
	StartPage int
	EndPage   int

	// Pages are the content page indices actually emitted, in order.
	Pages []int

	// BarcodeValue and BarcodeType come from the closing separator; empty
	// for a document closed at end of file.
	BarcodeValue string
	BarcodeType  string

	// HasBlankPages is true if any blank page fell inside [StartPage, EndPage].
	HasBlankPages bool
}

// Split walks the analyzed pages in order and returns the segmented
// documents. Pages must be in ascending, gap-free index order starting at 1.
func Split(pages []pagescan.Analysis) ([]Document, error) {
	for i, p := range pages {
		if p.Index != i+1 {
			return nil, fmt.Errorf("segment: page %d has index %d, want ascending gap-free from 1", i, p.Index)
		}
	}

	var (
		docs   []Document
		acc    []int // open accumulator of content page indices
		blanks []int // blank page indices since the last close
	)

	closeDoc := func(endPage int, bcValue, bcType string) {
		defer func() {
			acc = nil
			blanks = nil
		}()
		if len(acc) == 0 {
			// Separator with nothing accumulated: consumed silently.
			return
		}
		start := acc[0]
		hasBlank := false
		for _, b := range blanks {
			if b >= start && b <= endPage {
				hasBlank = true
				break
			}
		}
		docs = append(docs, Document{
			StartPage:     start,
			EndPage:       endPage,
			Pages:         acc,
			BarcodeValue:  bcValue,
			BarcodeType:   bcType,
			HasBlankPages: hasBlank,
		})
	}

	for _, p := range pages {
		switch p.Label() {
		case pagescan.LabelContent:
			acc = append(acc, p.Index)
		case pagescan.LabelBlank:
			blanks = append(blanks, p.Index)
		case pagescan.LabelSeparator:
			closeDoc(p.Index, p.BarcodeValue, p.BarcodeType)
		}
	}

	if len(acc) > 0 {
		closeDoc(pages[len(pages)-1].Index, "", "")
	}

	return docs, nil
}
