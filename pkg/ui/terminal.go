package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// Printer writes status lines to a terminal. Text is written verbatim when
// color is off, so output stays stable for scripts and tests.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, color bool) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w, color: color}
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.w
}

// ColorEnabled reports whether output is styled
func (p *Printer) ColorEnabled() bool {
	return p.color
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) Cyan(text string) string    { return p.style(cyanStyle, text) }
func (p *Printer) Yellow(text string) string  { return p.style(yellowStyle, text) }
func (p *Printer) Red(text string) string     { return p.style(redStyle, text) }
func (p *Printer) Green(text string) string   { return p.style(greenStyle, text) }
func (p *Printer) Magenta(text string) string { return p.style(magentaStyle, text) }
func (p *Printer) Dim(text string) string     { return p.style(dimStyle, text) }
func (p *Printer) Bold(text string) string    { return p.style(boldStyle, text) }

// Println writes a plain line
func (p *Printer) Println(msg string) {
	fmt.Fprintln(p.w, msg)
}

// Printf writes plain formatted text
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

// Error prints an error line in red
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, p.Red(msg))
}

// Success prints a success line in green
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.Green(msg))
}

// Warning prints a warning line in yellow
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.w, p.Yellow(msg))
}

// Info prints a label and value pair
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.Cyan(label), p.Yellow(value))
}

// Highlight prints a line in magenta
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.w, p.Magenta(msg))
}
