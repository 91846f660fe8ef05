package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	bulletStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// ConsoleLogger writes styled human-readable log lines. Warnings and
// errors go to the error writer so they survive output redirection.
type ConsoleLogger struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// NewConsoleLogger creates a console logger. Debug lines are dropped
// unless verbose is set.
func NewConsoleLogger(out, errOut io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: out, errOut: errOut, verbose: verbose}
}

func (c *ConsoleLogger) Debug(msg string, keysAndValues ...interface{}) {
	if !c.verbose {
		return
	}
	fmt.Fprintln(c.out, debugStyle.Render(msg)+formatPairs(keysAndValues))
}

func (c *ConsoleLogger) Info(msg string, keysAndValues ...interface{}) {
	fmt.Fprintln(c.out, infoStyle.Render("•")+" "+msg+formatPairs(keysAndValues))
}

func (c *ConsoleLogger) Warn(msg string, keysAndValues ...interface{}) {
	fmt.Fprintln(c.errOut, warnStyle.Render("warning:")+" "+msg+formatPairs(keysAndValues))
}

func (c *ConsoleLogger) Error(msg string, keysAndValues ...interface{}) {
	fmt.Fprintln(c.errOut, errStyle.Render("error:")+" "+msg+formatPairs(keysAndValues))
}

// Success prints a bold confirmation line on the primary writer.
func (c *ConsoleLogger) Success(msg string) {
	fmt.Fprintln(c.out, successStyle.Render("✓")+" "+msg)
}

// Bullet prints an indented list item, used for next-step hints.
func (c *ConsoleLogger) Bullet(msg string) {
	fmt.Fprintln(c.out, "  "+bulletStyle.Render("•")+" "+msg)
}

// formatPairs renders key-value pairs as " key=value" suffixes.
func formatPairs(keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		value := "?"
		if i+1 < len(keysAndValues) {
			value = fmt.Sprintf("%v", keysAndValues[i+1])
		}
		b.WriteString(" " + keyStyle.Render(key+"=") + value)
	}
	return b.String()
}
