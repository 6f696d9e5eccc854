// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RawHit is a single retrieval result for one document, as produced by the
// external vector search: a text span with its character range and
// similarity score in [0, 1].
type RawHit struct {
	// Text is the retrieved span's text, copied verbatim.
	Text string `json:"text" yaml:"text"`

	// Start is the inclusive character offset of the span in the
	// document's extracted text.
	Start int `json:"start" yaml:"start"`

	// End is the exclusive character offset of the span.
	End int `json:"end" yaml:"end"`

	// Score is the retrieval similarity score in [0, 1].
	Score float64 `json:"score" yaml:"score"`
}

// Citation is a structured pointer to a location within a document. A
// multi-sentence span is a start/end pair, never a set, so ordering stays
// well-defined. ParagraphStart <= ParagraphEnd always; when they are equal,
// SentenceStart <= SentenceEnd.
type Citation struct {
	// DocumentID identifies the cited document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Page is the 1-based page number of the span's starting paragraph.
	Page int `json:"page" yaml:"page"`

	// ParagraphStart is the first paragraph index of the span.
	ParagraphStart int `json:"paragraph_start" yaml:"paragraph_start"`

	// ParagraphEnd is the last paragraph index of the span.
	ParagraphEnd int `json:"paragraph_end" yaml:"paragraph_end"`

	// SentenceStart is the sentence index within ParagraphStart where the
	// span begins.
	SentenceStart int `json:"sentence_start" yaml:"sentence_start"`

	// SentenceEnd is the sentence index within ParagraphEnd where the span
	// ends.
	SentenceEnd int `json:"sentence_end" yaml:"sentence_end"`

	// Snippet is representative text for presentation. It does not
	// participate in citation identity or ordering.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// SameSpan reports whether two citations point at the same location,
// ignoring the presentation snippet.
func (c Citation) SameSpan(o Citation) bool {
	return c.DocumentID == o.DocumentID &&
		c.Page == o.Page &&
		c.ParagraphStart == o.ParagraphStart &&
		c.ParagraphEnd == o.ParagraphEnd &&
		c.SentenceStart == o.SentenceStart &&
		c.SentenceEnd == o.SentenceEnd
}

// Less orders citations by document id, then page, then paragraph start,
// with sentence start as a final tiebreak for stability.
func (c Citation) Less(o Citation) bool {
	if c.DocumentID != o.DocumentID {
		return c.DocumentID < o.DocumentID
	}
	if c.Page != o.Page {
		return c.Page < o.Page
	}
	if c.ParagraphStart != o.ParagraphStart {
		return c.ParagraphStart < o.ParagraphStart
	}
	return c.SentenceStart < o.SentenceStart
}

// Passage is a contiguous retrieved text span with its resolved citation,
// similarity score, and lazily attached embedding. Passages are created per
// query run and immutable once resolved.
type Passage struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Text is the passage's text, copied verbatim from the raw hit.
	Text string `json:"text" yaml:"text"`

	// Start is the inclusive character offset in the document's text.
	Start int `json:"start" yaml:"start"`

	// End is the exclusive character offset.
	End int `json:"end" yaml:"end"`

	// Score is the retrieval similarity score in [0, 1].
	Score float64 `json:"score" yaml:"score"`

	// Rank is the hit's position in the original per-document retrieval
	// order, starting at 0. Preserved so the merged passage list stays
	// deterministic regardless of collection concurrency.
	Rank int `json:"rank" yaml:"rank"`

	// Citation is the resolved page/paragraph/sentence span.
	Citation Citation `json:"citation" yaml:"citation"`

	// Embedding is the fixed-length vector for Text. Attached after
	// collection; nil until then.
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}
