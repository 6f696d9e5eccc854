// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps character offsets in a document's extracted text to
// structured citations (page, paragraph, sentence).
package resolve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// ErrOutOfRangeOffset is returned when resolution is attempted against a
// layout with no units at all. Offsets outside a non-empty layout clamp to
// the nearest boundary unit instead.
var ErrOutOfRangeOffset = errors.New("offset resolution against empty layout")

// linearScanThreshold is the unit count below which Resolve scans linearly.
// Larger layouts use binary search over sentence start offsets.
const linearScanThreshold = 64

// Unit is one resolved layout unit: the sentence containing an offset,
// with its page and paragraph ordinals and character span.
type Unit struct {
	Page      int
	Paragraph int
	Sentence  int
	Start     int
	End       int
}

// Contains reports whether the unit's [Start, End) span contains offset.
func (u Unit) Contains(offset int) bool {
	return offset >= u.Start && offset < u.End
}

// Resolver answers offset lookups against one document's layout. It is
// built once per document and safe for concurrent use.
type Resolver struct {
	docID string
	units []Unit
}

// NewResolver flattens a layout into an ordered unit sequence. It returns
// ErrOutOfRangeOffset when the layout holds no sentences.
func NewResolver(layout *types.DocumentLayoutIndex) (*Resolver, error) {
	r := &Resolver{docID: layout.DocumentID}
	for _, pg := range layout.Pages {
		for _, para := range pg.Paragraphs {
			for _, s := range para.Sentences {
				r.units = append(r.units, Unit{
					Page:      pg.Number,
					Paragraph: para.Index,
					Sentence:  s.Index,
					Start:     s.Start,
					End:       s.End,
				})
			}
		}
	}
	if len(r.units) == 0 {
		return nil, fmt.Errorf("document %s: %w", layout.DocumentID, ErrOutOfRangeOffset)
	}
	return r, nil
}

// DocumentID returns the id of the resolved document.
func (r *Resolver) DocumentID() string { return r.docID }

// Resolve returns the unit containing offset. Offsets before the first unit
// or after the last clamp to the boundary unit; offsets falling in a gap
// between units resolve to the preceding unit. Resolution never fails on a
// non-empty layout.
func (r *Resolver) Resolve(offset int) Unit {
	if offset < r.units[0].Start {
		return r.units[0]
	}
	last := r.units[len(r.units)-1]
	if offset >= last.End {
		return last
	}

	if len(r.units) < linearScanThreshold {
		for i := len(r.units) - 1; i >= 0; i-- {
			if r.units[i].Start <= offset {
				return r.units[i]
			}
		}
		return r.units[0]
	}

	// Last unit whose start does not exceed the offset.
	i := sort.Search(len(r.units), func(i int) bool {
		return r.units[i].Start > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return r.units[i]
}

// ResolveRange returns a citation spanning the unit containing start
// through the unit containing end-1. A zero-length range resolves as a
// single-point citation on the unit containing start. The citation's page
// is the starting unit's page.
func (r *Resolver) ResolveRange(start, end int) types.Citation {
	first := r.Resolve(start)
	last := first
	if end > start {
		last = r.Resolve(end - 1)
	}

	return types.Citation{
		DocumentID:     r.docID,
		Page:           first.Page,
		ParagraphStart: first.Paragraph,
		ParagraphEnd:   last.Paragraph,
		SentenceStart:  first.Sentence,
		SentenceEnd:    last.Sentence,
	}
}
