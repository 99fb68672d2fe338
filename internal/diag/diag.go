// Package diag renders compiler diagnostics, fatal errors to stderr and
// warnings, status lines and -v dumps to stdout, following the
// banner-tag-plus-message shape of the teacher's logging package, but
// built on pterm rather than hand-rolled ANSI codes.
package diag

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

var (
	errorStyle   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	warnStyle    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorFG      = pterm.FgRed
	infoFG       = pterm.FgLightGreen
	sectionStyle = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
)

func init() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		pterm.DisableColor()
	}
}

// Fatal prints a compile-phase failure (lex/parse/analyse/lower/emit error)
// to stderr and always writes the plain error text too, so the message
// still reaches the user with color disabled or pterm unavailable.
func Fatal(phase string, err error) {
	fmt.Fprint(os.Stderr, errorStyle.Sprint(" "+phase+" error "))
	fmt.Fprintln(os.Stderr, errorFG.Sprint(" "+err.Error()))
}

// Warn prints a non-fatal diagnostic, such as a frame-size threshold
// warning sourced from the project config.
func Warn(msg string) {
	warnStyle.Print(" warning ")
	fmt.Println(" " + msg)
}

// Info prints a one-line success/status message, such as the CLI's
// emitted-file-size report.
func Info(msg string) {
	infoFG.Println(msg)
}

// Dump prints a titled, multi-line diagnostic section, such as the -v
// flag's token listing and symbol-table pretty-print. Unlike Fatal and Warn
// it carries no banner tag, since the title itself is the label.
func Dump(title, body string) {
	fmt.Println(sectionStyle.Sprint(title))
	fmt.Println(body)
}
