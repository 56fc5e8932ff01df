package resizer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/nvr-ai/screenfit/images"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
)

// Reporter writes the human-readable progress lines of a run.
type Reporter struct {
	w io.Writer

	name    lipgloss.Style
	size    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// NewReporter creates a reporter writing to w. Colours are only emitted when
// w is a terminal that supports them.
func NewReporter(w io.Writer) *Reporter {
	renderer := lipgloss.NewRenderer(w)
	return &Reporter{
		w:       w,
		name:    renderer.NewStyle().Bold(true),
		size:    renderer.NewStyle().Foreground(colorCyan),
		success: renderer.NewStyle().Foreground(colorGreen),
		warning: renderer.NewStyle().Foreground(colorYellow),
		failure: renderer.NewStyle().Foreground(colorRed),
		dim:     renderer.NewStyle().Foreground(colorDim),
	}
}

// Copied reports a file that already had an allowed size.
func (r *Reporter) Copied(name string, size images.Pixels) {
	fmt.Fprintf(r.w, "✅ %s already %s, copied as-is\n",
		r.name.Render(name), r.size.Render(size.String()))
}

// Resized reports a file that was fitted onto a target canvas.
func (r *Reporter) Resized(name string, from images.Pixels, to images.Resolution) {
	line := fmt.Sprintf("🔧 %s resized from %s to %s",
		r.name.Render(name), r.size.Render(from.String()), r.size.Render(to.Pixels.String()))
	if to.Device != "" {
		line += " " + r.dim.Render("("+to.Device+")")
	}
	fmt.Fprintln(r.w, line)
}

// Failed reports a file that could not be processed.
func (r *Reporter) Failed(name string, err error) {
	fmt.Fprintf(r.w, "❌ %s: %s\n", r.name.Render(name), r.failure.Render(err.Error()))
}

// Done writes the completion line naming the output directory.
func (r *Reporter) Done(s *Summary) {
	fmt.Fprintf(r.w, "\n%s Output saved to %s\n", r.success.Render("Done!"), s.OutputDir)
	if len(s.Failures) > 0 {
		fmt.Fprintf(r.w, "%s\n", r.warning.Render(
			fmt.Sprintf("⚠️  %d of %d files failed", len(s.Failures), s.Processed())))
	}
}
