// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Sentence is the finest layout unit: one sentence of extracted text with
// its [Start, End) character offsets in the document's full text.
type Sentence struct {
	// Index is the sentence ordinal within its paragraph, starting at 0.
	Index int `json:"index" yaml:"index"`

	// Start is the inclusive character offset of the sentence.
	Start int `json:"start" yaml:"start"`

	// End is the exclusive character offset of the sentence.
	End int `json:"end" yaml:"end"`
}

// Paragraph groups consecutive sentences.
type Paragraph struct {
	// Index is the paragraph ordinal within the document, starting at 0.
	// Paragraph indices run across page boundaries.
	Index int `json:"index" yaml:"index"`

	// Sentences are the paragraph's sentences in offset order.
	Sentences []Sentence `json:"sentences" yaml:"sentences"`
}

// Page groups consecutive paragraphs under a page number.
type Page struct {
	// Number is the 1-based page number.
	Number int `json:"number" yaml:"number"`

	// Paragraphs are the page's paragraphs in offset order.
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
}

// DocumentLayoutIndex is the positional index of one document's extracted
// text: pages, paragraphs, and sentences with character offsets. It is built
// once at ingestion time and immutable afterward. Offsets are monotonically
// non-decreasing and non-overlapping across the sentence sequence.
type DocumentLayoutIndex struct {
	// DocumentID identifies the indexed document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Pages are the document's pages in order.
	Pages []Page `json:"pages" yaml:"pages"`
}

// SentenceCount returns the total number of sentences in the layout.
func (l *DocumentLayoutIndex) SentenceCount() int {
	n := 0
	for _, pg := range l.Pages {
		for _, para := range pg.Paragraphs {
			n += len(para.Sentences)
		}
	}
	return n
}
