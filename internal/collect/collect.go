// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect normalizes raw retrieval hits into citation-resolved
// passages. Documents are processed concurrently; the merged passage list
// is ordered by document id, then original retrieval rank, so concurrency
// never changes the output.
package collect

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdiddy/theme-engine/internal/resolve"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// sentenceOverlapThreshold is the fraction of the smaller sentence range
// that must be covered for two same-paragraph passages to count as
// duplicates.
const sentenceOverlapThreshold = 0.9

// Output holds the collected passages and dedup statistics.
type Output struct {
	Passages    []types.Passage
	DupsRemoved int
	DocsSkipped int
}

// Collect resolves each document's raw hits into passages, fanning out one
// worker per document. A document whose layout is missing or empty is
// skipped with a warning; other documents continue (per-document failure
// isolation). Duplicate passages are merged keeping the higher score.
func Collect(ctx context.Context, hits map[string][]types.RawHit, layouts map[string]*types.DocumentLayoutIndex, w io.Writer) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	docIDs := make([]string, 0, len(hits))
	for id := range hits {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	type docResult struct {
		docID    string
		passages []types.Passage
		err      error
	}

	ch := make(chan docResult, len(docIDs))
	var wg sync.WaitGroup

	for _, docID := range docIDs {
		wg.Add(1)
		go func(docID string, docHits []types.RawHit) {
			defer wg.Done()
			passages, err := collectDocument(docID, docHits, layouts[docID])
			ch <- docResult{docID: docID, passages: passages, err: err}
		}(docID, hits[docID])
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	byDoc := make(map[string][]types.Passage, len(docIDs))
	var out Output
	for dr := range ch {
		if dr.err != nil {
			fmt.Fprintf(w, "warning: document %s skipped: %v\n", dr.docID, dr.err)
			out.DocsSkipped++
			continue
		}
		byDoc[dr.docID] = dr.passages
	}

	// Deterministic merge: document id order, then retrieval rank.
	var all []types.Passage
	for _, docID := range docIDs {
		all = append(all, byDoc[docID]...)
	}

	out.Passages, out.DupsRemoved = deduplicate(all)
	return out, nil
}

// collectDocument resolves one document's hits against its layout. Hit
// text, range, and score are copied verbatim; rank records the original
// retrieval order.
func collectDocument(docID string, hits []types.RawHit, layout *types.DocumentLayoutIndex) ([]types.Passage, error) {
	if layout == nil {
		return nil, fmt.Errorf("no layout index for document %s", docID)
	}
	r, err := resolve.NewResolver(layout)
	if err != nil {
		return nil, err
	}

	passages := make([]types.Passage, 0, len(hits))
	for i, h := range hits {
		passages = append(passages, types.Passage{
			DocumentID: docID,
			Text:       h.Text,
			Start:      h.Start,
			End:        h.End,
			Score:      h.Score,
			Rank:       i,
			Citation:   r.ResolveRange(h.Start, h.End),
		})
	}
	return passages, nil
}

// deduplicate removes passages whose citation spans fully overlap: same
// document, identical paragraph range, and sentence ranges overlapping at
// least 90%. The higher-score passage survives, in the earlier passage's
// position, so multiple chunk sizes or queries contributing the same span
// collapse to one record.
func deduplicate(passages []types.Passage) ([]types.Passage, int) {
	var kept []types.Passage
	removed := 0

	for _, p := range passages {
		dup := -1
		for i := range kept {
			if overlaps(kept[i].Citation, p.Citation) {
				dup = i
				break
			}
		}
		if dup < 0 {
			kept = append(kept, p)
			continue
		}
		removed++
		if p.Score > kept[dup].Score {
			kept[dup] = p
		}
	}
	return kept, removed
}

// overlaps reports whether two citations cover the same span per the dedup
// rule. Multi-paragraph spans with identical paragraph ranges count as
// fully overlapping, since their sentence endpoints live in the same
// boundary paragraphs.
func overlaps(a, b types.Citation) bool {
	if a.DocumentID != b.DocumentID {
		return false
	}
	if a.ParagraphStart != b.ParagraphStart || a.ParagraphEnd != b.ParagraphEnd {
		return false
	}
	if a.ParagraphStart != a.ParagraphEnd {
		return true
	}
	return sentenceOverlap(a, b) >= sentenceOverlapThreshold
}

// sentenceOverlap returns the fraction of the smaller sentence range
// covered by the intersection of two single-paragraph citations.
func sentenceOverlap(a, b types.Citation) float64 {
	interStart := max(a.SentenceStart, b.SentenceStart)
	interEnd := min(a.SentenceEnd, b.SentenceEnd)
	inter := interEnd - interStart + 1
	if inter <= 0 {
		return 0
	}
	smaller := min(a.SentenceEnd-a.SentenceStart, b.SentenceEnd-b.SentenceStart) + 1
	return float64(inter) / float64(smaller)
}
