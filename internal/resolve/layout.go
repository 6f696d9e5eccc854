// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"regexp"
	"strconv"
	"unicode"

	"github.com/pdiddy/theme-engine/pkg/types"
)

// Extraction collaborators mark page boundaries in plain text with
// "--- Page N ---" lines.
var pageMarkerRe = regexp.MustCompile(`^--- Page (\d+) ---$`)

// paragraphSepRe matches blank-line runs separating paragraphs.
var paragraphSepRe = regexp.MustCompile(`\n[ \t]*\n`)

// BuildLayout constructs a DocumentLayoutIndex from raw extracted text.
// Paragraphs are blank-line separated; sentences end at terminal
// punctuation followed by whitespace. Page numbers come from page marker
// lines when present, otherwise the whole document is page 1. All offsets
// reference the original text, so the index can serve offset resolution
// without retaining the text itself.
func BuildLayout(docID, text string) *types.DocumentLayoutIndex {
	layout := &types.DocumentLayoutIndex{DocumentID: docID}

	page := 1
	paraIndex := 0

	for _, span := range paragraphSpans(text) {
		start, end := trimSpan(text, span[0], span[1])
		if start >= end {
			continue
		}

		body := text[start:end]
		if m := pageMarkerRe.FindStringSubmatch(body); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				page = n
			}
			continue
		}

		para := types.Paragraph{Index: paraIndex}
		for i, s := range sentenceSpans(text, start, end) {
			para.Sentences = append(para.Sentences, types.Sentence{
				Index: i,
				Start: s[0],
				End:   s[1],
			})
		}
		if len(para.Sentences) == 0 {
			continue
		}
		paraIndex++

		if n := len(layout.Pages); n == 0 || layout.Pages[n-1].Number != page {
			layout.Pages = append(layout.Pages, types.Page{Number: page})
		}
		last := &layout.Pages[len(layout.Pages)-1]
		last.Paragraphs = append(last.Paragraphs, para)
	}

	return layout
}

// paragraphSpans returns [start, end) spans of blank-line separated blocks.
func paragraphSpans(text string) [][2]int {
	var spans [][2]int
	prev := 0
	for _, sep := range paragraphSepRe.FindAllStringIndex(text, -1) {
		if sep[0] > prev {
			spans = append(spans, [2]int{prev, sep[0]})
		}
		prev = sep[1]
	}
	if prev < len(text) {
		spans = append(spans, [2]int{prev, len(text)})
	}
	return spans
}

// sentenceSpans splits the paragraph at [start, end) into trimmed sentence
// spans. A sentence ends at '.', '!', or '?' followed by whitespace or the
// paragraph end.
func sentenceSpans(text string, start, end int) [][2]int {
	var spans [][2]int
	sentStart := start

	for i := start; i < end; i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		atEnd := i+1 >= end
		if !atEnd && !isSpaceByte(text[i+1]) {
			continue
		}
		if a, b := trimSpan(text, sentStart, i+1); a < b {
			spans = append(spans, [2]int{a, b})
		}
		sentStart = i + 1
	}

	if a, b := trimSpan(text, sentStart, end); a < b {
		spans = append(spans, [2]int{a, b})
	}
	return spans
}

// trimSpan narrows [start, end) past leading and trailing whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	return start, end
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
