// Package console prints the user-facing progress of the setup flow.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/pterm/pterm"
	"go.uber.org/fx"
)

// Reporter is where the setup flow and the env file writer report progress.
type Reporter interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	// Key prints an API key under a highlighted label
	Key(label, value string)
	// Waiting shows an activity indicator until the returned func is called
	Waiting(text string) (stop func())
}

var keyLabelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#0083FC")).
	Bold(true).
	Padding(0, 1)

// Console writes colored output with pterm
type Console struct {
	out     io.Writer
	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	errorP  *pterm.PrefixPrinter
}

// NewConsole creates a Console writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		info:    pterm.Info.WithWriter(out),
		success: pterm.Success.WithWriter(out),
		warning: pterm.Warning.WithWriter(out),
		errorP:  pterm.Error.WithWriter(out),
	}
}

func (c *Console) Info(format string, args ...any) {
	c.info.Printfln(format, args...)
}

func (c *Console) Success(format string, args ...any) {
	c.success.Printfln(format, args...)
}

func (c *Console) Warning(format string, args ...any) {
	c.warning.Printfln(format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.errorP.Printfln(format, args...)
}

func (c *Console) Key(label, value string) {
	fmt.Fprintf(c.out, "%s %s\n", keyLabelStyle.Render(label), pterm.Yellow(value))
}

func (c *Console) Waiting(text string) func() {
	spinner, err := pterm.DefaultSpinner.WithWriter(c.out).WithRemoveWhenDone(true).Start(text)
	if err != nil {
		c.Info("%s", text)
		return func() {}
	}
	return func() {
		_ = spinner.Stop()
	}
}

// Nop discards everything; used for --silent
type Nop struct{}

func (Nop) Info(string, ...any)    {}
func (Nop) Success(string, ...any) {}
func (Nop) Warning(string, ...any) {}
func (Nop) Error(string, ...any)   {}
func (Nop) Key(string, string)     {}

func (Nop) Waiting(string) func() { return func() {} }

// New selects the reporter for the configured verbosity
func New(setup *config.SetupConfig) Reporter {
	if setup.Silent {
		return Nop{}
	}
	return NewConsole(os.Stdout)
}

// Module provides the Reporter
var Module = fx.Module("console",
	fx.Provide(New),
)
