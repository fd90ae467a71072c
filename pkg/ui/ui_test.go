package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterWithoutColorIsVerbatim(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Success("✅ done")
	p.Error("❌ failed")
	p.Warning("   - Warning: careful")
	p.Info("Repo", "user/model")

	assert.Equal(t, "✅ done\n❌ failed\n   - Warning: careful\nRepo: user/model\n", buf.String())
}

func TestPrinterWithColorKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Success("uploaded")
	assert.Contains(t, buf.String(), "uploaded")
	assert.True(t, p.ColorEnabled())
}

func TestPrintFileTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.PrintFileTable([]FileRow{
		{Path: "config.json", Size: 20, SHA256: "0123456789abcdef0123"},
		{Path: "model.safetensors", Size: 3 * 1000 * 1000, SHA256: "fedcba9876543210"},
	})

	out := buf.String()
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "config.json")
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abcdef0123")
	assert.Contains(t, out, "3MB")
	assert.Contains(t, out, "2 files, 3MB")
}

func TestProgressDisplayLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(NewPrinter(&buf, false), "user/model", true)

	p.Start(2, 2000)
	p.FileStarted("model.bin")
	assert.Contains(t, p.Line(), "0/2")
	assert.Contains(t, p.Line(), "model.bin")

	p.FileDone("model.bin", 1000, false)
	p.FileDone("config.json", 1000, true)
	line := p.Line()
	assert.Contains(t, line, "2/2")
	assert.Contains(t, line, "["+strings.Repeat("━", barWidth)+"]")
	assert.NotContains(t, line, "model.bin")

	p.Complete(2, 2000)
	assert.Contains(t, buf.String(), "2 files, 2kB")
	assert.Contains(t, buf.String(), "(1 already on the hub)")
}

func TestProgressDisplayDisabledPrintsOnlySummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(NewPrinter(&buf, false), "user/model", false)

	p.Start(1, 10)
	p.FileDone("a", 10, false)
	assert.Empty(t, buf.String())

	p.Complete(1, 10)
	assert.Contains(t, buf.String(), "1 files, 10B")
}

type recordingSender struct {
	titles []string
	err    error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	assert.NoError(t, n.Notify("Upload complete", "user/model"))
	assert.Equal(t, []string{"Upload complete"}, sender.titles)

	sender.err = errors.New("no notification daemon")
	assert.Error(t, n.Notify("Upload failed", "user/model"))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.Notify("x", "y"))
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}
