// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"

	"github.com/pdiddy/theme-engine/internal/synth"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const topicCount = 5

// RenderMarkdown renders a run result as a human-readable report: one
// section per theme with its description, top keywords, and citations
// grouped by document, followed by a noise summary when noise exists.
func RenderMarkdown(r *Result) string {
	var b strings.Builder
	b.WriteString("# Identified Themes\n")

	themes := 0
	var noise *types.ThemeCluster
	for i := range r.Clusters {
		if r.Clusters[i].IsNoise() {
			noise = &r.Clusters[i]
			continue
		}
		themes++
		writeTheme(&b, r.Clusters[i], r.Passages)
	}

	if themes == 0 {
		b.WriteString("\nNo themes were identified.\n")
	}
	if noise != nil {
		fmt.Fprintf(&b, "\n---\n\n%d passage(s) did not fit any theme.\n", len(noise.Members))
	}
	return b.String()
}

func writeTheme(b *strings.Builder, c types.ThemeCluster, passages []types.Passage) {
	fmt.Fprintf(b, "\n## Theme %d: %s\n\n", c.ID+1, c.Label)
	if c.Degraded {
		b.WriteString("*Label generated from passage text; synthesis was unavailable.*\n\n")
	}
	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n\n")
	}

	texts := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m >= 0 && m < len(passages) {
			texts = append(texts, passages[m].Text)
		}
	}
	if topics := synth.TopKeywords(texts, topicCount); len(topics) > 0 {
		fmt.Fprintf(b, "Topics: %s\n\n", strings.Join(topics, ", "))
	}

	writeCitations(b, c.Citations)
}

// writeCitations groups the (already sorted) citations under per-document
// headings. Sorting upstream keeps document groups contiguous.
func writeCitations(b *strings.Builder, citations []types.Citation) {
	if len(citations) == 0 {
		return
	}
	b.WriteString("### Citations\n")

	currentDoc := ""
	for _, c := range citations {
		if c.DocumentID != currentDoc {
			currentDoc = c.DocumentID
			fmt.Fprintf(b, "\n**%s**\n\n", c.DocumentID)
		}
		loc := fmt.Sprintf("page %d, paragraph %d", c.Page, c.ParagraphStart)
		if c.ParagraphEnd != c.ParagraphStart {
			loc = fmt.Sprintf("page %d, paragraphs %d-%d", c.Page, c.ParagraphStart, c.ParagraphEnd)
		}
		if c.Snippet != "" {
			fmt.Fprintf(b, "- %s: %q\n", loc, c.Snippet)
		} else {
			fmt.Fprintf(b, "- %s\n", loc)
		}
	}
	b.WriteString("\n")
}
