package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/meigma/multistream"
)

// Color palette.
const (
	colorAccent = "39"  // bar fill and stage label
	colorGray   = "245" // counters
)

const barWidth = 40

// progressStyles holds the lipgloss styles used around the bar.
type progressStyles struct {
	Label lipgloss.Style
	Count lipgloss.Style
}

func defaultStyles() progressStyles {
	return progressStyles{
		Label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Count: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

func noColorStyles() progressStyles {
	return progressStyles{
		Label: lipgloss.NewStyle(),
		Count: lipgloss.NewStyle(),
	}
}

// progressBar draws scan and extraction progress on a single terminal line.
//
// A nil *progressBar is valid and draws nothing, so callers can pass its
// methods as callbacks unconditionally.
type progressBar struct {
	out    io.Writer
	bar    progress.Model
	styles progressStyles

	matches int
	last    string
}

// newProgressBar returns a bar drawing on w, or nil when w is not a terminal.
func newProgressBar(w io.Writer) *progressBar {
	if !isTTY(w) {
		return nil
	}
	return newProgressBarWith(w, detectNoColor())
}

func newProgressBarWith(w io.Writer, noColor bool) *progressBar {
	styles := defaultStyles()
	fill := colorAccent
	if noColor {
		styles = noColorStyles()
		fill = ""
	}
	return &progressBar{
		out: w,
		bar: progress.New(
			progress.WithSolidFill(fill),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
		styles: styles,
	}
}

// Update renders ev. Lines identical to the previous one are not redrawn.
func (p *progressBar) Update(ev multistream.ProgressEvent) {
	if p == nil {
		return
	}

	var counter string
	switch ev.Stage {
	case multistream.StageRecordFound:
		p.matches++
		return
	case multistream.StageScanning:
		counter = fmt.Sprintf("%d matches", p.matches)
	case multistream.StageDecompressing:
		counter = fmt.Sprintf("%d/%d blocks", ev.BlocksDone, ev.BlocksTotal)
	case multistream.StageDocumentFound:
		counter = fmt.Sprintf("%d/%d documents", ev.DocumentsDone, ev.DocumentsTotal)
	default:
		return
	}

	pct := ev.Percent()
	line := fmt.Sprintf("%s %s %s %s",
		p.styles.Label.Render(fmt.Sprintf("%-13s", ev.Stage.String())),
		p.bar.ViewAs(float64(pct)/100),
		fmt.Sprintf("%3d%%", pct),
		p.styles.Count.Render(counter),
	)
	if line == p.last {
		return
	}
	p.last = line
	_, _ = fmt.Fprintf(p.out, "\r%s\x1b[K", line)
}

// Finish ends the current line so later output starts on a fresh one.
func (p *progressBar) Finish() {
	if p == nil {
		return
	}
	if p.last != "" {
		_, _ = io.WriteString(p.out, "\n")
	}
	p.last = ""
	p.matches = 0
}

// isTTY checks if w is a terminal.
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// detectNoColor checks if the NO_COLOR environment variable is set.
func detectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists || strings.EqualFold(os.Getenv("TERM"), "dumb")
}
