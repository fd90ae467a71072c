package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/docker/go-units"
)

const barWidth = 30

// ProgressDisplay renders a single updating line for an upload
type ProgressDisplay struct {
	mu sync.Mutex

	printer    *Printer
	bar        progress.Model
	label      string
	totalFiles int
	totalBytes int64
	doneFiles  int
	doneBytes  int64
	skipped    int
	current    string
	startTime  time.Time
	enabled    bool
}

// NewProgressDisplay creates a progress display. A disabled display only
// prints the final summary.
func NewProgressDisplay(printer *Printer, label string, enabled bool) *ProgressDisplay {
	return &ProgressDisplay{
		printer:   printer,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		label:     label,
		startTime: time.Now(),
		enabled:   enabled,
	}
}

// Start sets the totals once the folder has been scanned
func (p *ProgressDisplay) Start(files int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalFiles = files
	p.totalBytes = bytes
	p.startTime = time.Now()
	p.render()
}

// FileStarted marks a file transfer as in flight
func (p *ProgressDisplay) FileStarted(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = path
	p.render()
}

// FileDone records a finished transfer. Skipped files were already on the hub.
func (p *ProgressDisplay) FileDone(path string, size int64, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneFiles++
	p.doneBytes += size
	if skipped {
		p.skipped++
	}
	if p.current == path {
		p.current = ""
	}
	p.render()
}

// Committing shows that file transfers are over and the commit is being made
func (p *ProgressDisplay) Committing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = "creating commit"
	p.render()
}

// Complete ends the progress line and prints a summary
func (p *ProgressDisplay) Complete(files int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if p.enabled {
		p.printer.Printf("\r%s\r", strings.Repeat(" ", 120))
	}
	p.printer.Printf("  %s %d files, %s in %s",
		p.printer.Dim("•"),
		files,
		units.HumanSize(float64(bytes)),
		units.HumanDuration(elapsed),
	)
	if p.skipped > 0 {
		p.printer.Printf(" (%d already on the hub)", p.skipped)
	}
	p.printer.Println("")
}

// Line returns the current progress line without writing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) render() {
	if !p.enabled {
		return
	}
	p.printer.Printf("\r%s\r%s", strings.Repeat(" ", 120), p.line())
}

func (p *ProgressDisplay) line() string {
	var percent float64
	if p.totalBytes > 0 {
		percent = float64(p.doneBytes) / float64(p.totalBytes)
	} else if p.totalFiles > 0 {
		percent = float64(p.doneFiles) / float64(p.totalFiles)
	}
	if percent > 1 {
		percent = 1
	}

	line := fmt.Sprintf("%s %s %d/%d • %s/%s • %s • %s",
		p.printer.Cyan(p.label),
		p.renderBar(percent),
		p.doneFiles,
		p.totalFiles,
		units.HumanSize(float64(p.doneBytes)),
		units.HumanSize(float64(p.totalBytes)),
		p.rate(),
		p.eta(),
	)
	if p.current != "" {
		line += " • " + p.current
	}
	return line
}

func (p *ProgressDisplay) renderBar(percent float64) string {
	if p.printer.ColorEnabled() {
		return p.bar.ViewAs(percent)
	}
	filled := int(percent * barWidth)
	return "[" + strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled) + "]"
}

func (p *ProgressDisplay) rate() string {
	elapsed := time.Since(p.startTime).Seconds()
	if elapsed <= 0 || p.doneBytes == 0 {
		return "-- /s"
	}
	return units.HumanSize(float64(p.doneBytes)/elapsed) + "/s"
}

// eta estimates the time left from the average byte rate so far
func (p *ProgressDisplay) eta() string {
	elapsed := time.Since(p.startTime)
	if p.doneBytes == 0 || elapsed <= 0 {
		return "calculating..."
	}
	remaining := p.totalBytes - p.doneBytes
	if remaining <= 0 {
		return "done"
	}
	left := time.Duration(float64(elapsed) * float64(remaining) / float64(p.doneBytes))
	return units.HumanDuration(left) + " left"
}
