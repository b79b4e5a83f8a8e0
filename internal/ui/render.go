package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/search"
)

// Renderer writes search output to w, styled when w is a terminal.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer picks styled or plain output based on whether w is a TTY.
func NewRenderer(w io.Writer) *Renderer {
	styles := PlainStyles()
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		styles = DefaultStyles()
	}
	return &Renderer{w: w, styles: styles}
}

// Result renders the final article list with per-article score reasons.
func (r *Renderer) Result(result *search.Result, verbose bool) {
	s := r.styles

	if len(result.Articles) == 0 {
		fmt.Fprintln(r.w, s.Warning.Render("no articles found"))
		r.statsLine(result.Stats)
		return
	}

	for i, a := range result.Articles {
		badge := r.priorityBadge(a.Priority)
		fmt.Fprintf(r.w, "%2d. %s %s\n", i+1, badge, s.Title.Render(a.Title))

		var meta []string
		if len(a.Authors) > 0 {
			meta = append(meta, firstAuthors(a.Authors, 3))
		}
		if a.Year > 0 {
			meta = append(meta, fmt.Sprintf("%d", a.Year))
		}
		if a.CitationCount > 0 {
			meta = append(meta, fmt.Sprintf("%d citations", a.CitationCount))
		}
		meta = append(meta, fmt.Sprintf("score %.1f", a.Score))
		meta = append(meta, a.Source)
		fmt.Fprintf(r.w, "    %s\n", s.Label.Render(strings.Join(meta, " · ")))

		if a.DOI != "" {
			fmt.Fprintf(r.w, "    %s\n", s.Dim.Render("doi:"+a.DOI))
		} else if a.URL != "" {
			fmt.Fprintf(r.w, "    %s\n", s.Dim.Render(a.URL))
		}

		if verbose {
			for _, reason := range a.Reasons {
				fmt.Fprintf(r.w, "      %s\n", s.Dim.Render(reason))
			}
		}
	}

	fmt.Fprintln(r.w)
	r.statsLine(result.Stats)
}

// Progress renders one escalation progress snapshot.
func (r *Renderer) Progress(p search.Progress) {
	s := r.styles
	fmt.Fprintf(r.w, "%s %s\n", s.Dim.Render(fmt.Sprintf("[%s]", p.State)),
		s.Label.Render(fmt.Sprintf("found %d/%d (%.1fs)", p.Found, p.Target, p.Elapsed.Seconds())))
}

// Sources renders the registry table with breaker states.
func (r *Renderer) Sources(rows [][2]string) {
	s := r.styles
	fmt.Fprintln(r.w, s.Header.Render("configured sources"))
	for _, row := range rows {
		fmt.Fprintf(r.w, "  %-16s %s\n", s.Title.Render(row[0]), s.Label.Render(row[1]))
	}
}

// Errorf renders an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintln(r.w, r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Successf renders a success line.
func (r *Renderer) Successf(format string, args ...any) {
	fmt.Fprintln(r.w, r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

func (r *Renderer) statsLine(st search.Stats) {
	s := r.styles
	parts := []string{
		fmt.Sprintf("used %d", st.Used),
	}
	for _, tier := range search.Tiers {
		if n := st.FoundPerTier[tier]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", tier, n))
		}
	}
	if st.Shortfall > 0 {
		parts = append(parts, fmt.Sprintf("shortfall %d", st.Shortfall))
	}
	if st.CacheHit {
		parts = append(parts, "cache hit")
	}
	if len(st.FailedSources) > 0 {
		parts = append(parts, "failed: "+strings.Join(st.FailedSources, ","))
	}
	parts = append(parts, fmt.Sprintf("%.1fs", st.Elapsed.Seconds()))
	fmt.Fprintln(r.w, s.Dim.Render(strings.Join(parts, " · ")))
}

func (r *Renderer) priorityBadge(p article.Priority) string {
	s := r.styles
	switch p {
	case article.PriorityP1:
		return s.P1.Render("[P1]")
	case article.PriorityP2:
		return s.P2.Render("[P2]")
	case article.PriorityP3:
		return s.P3.Render("[P3]")
	default:
		return s.Dim.Render("[--]")
	}
}

func firstAuthors(authors []string, n int) string {
	if len(authors) <= n {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:n], ", ") + " et al."
}
