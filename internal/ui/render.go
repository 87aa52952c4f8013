package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"unistream/internal/media"
	"unistream/internal/subtitle"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	qualityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(4)
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// ResultItems formats search results as selector rows.
func ResultItems(results []media.SearchResult) []string {
	return lo.Map(results, func(r media.SearchResult, _ int) string {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(r.Type.String()), r.Title)
	})
}

// RenderStreams writes a human-readable listing of streams. The track
// BestMatch picks for language is marked as the default.
func RenderStreams(w io.Writer, streams []media.Stream, language string) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d stream(s)", len(streams))))
	for i, s := range streams {
		fmt.Fprintf(w, "%s%s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), qualityStyle.Render(s.Quality))
		fmt.Fprintf(w, "    url:     %s\n", s.URL)
		if len(s.Headers) > 0 {
			fmt.Fprintf(w, "    headers: %s\n", formatHeaders(s.Headers))
		}
		best := subtitle.BestMatch(s.Subtitles, language)
		for _, sub := range s.Subtitles {
			marker := ""
			if best != nil && sub == *best {
				marker = "  " + defaultStyle.Render("(default)")
			}
			fmt.Fprintf(w, "    sub:     %s  %s%s\n", sub.Label, sub.File, marker)
		}
	}
}

// RenderResults writes a listing of search results with their details ids.
func RenderResults(w io.Writer, results []media.SearchResult) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d result(s)", len(results))))
	for i, r := range results {
		fmt.Fprintf(w, "%s%-8s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), r.ID, r.Title)
	}
}

func formatHeaders(h map[string]string) string {
	keys := lo.Keys(h)
	sort.Strings(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string { return k + "=" + h[k] }), " ")
}
