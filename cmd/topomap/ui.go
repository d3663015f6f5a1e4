package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Status colors for command output.
var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", good.Sprint("✓"), fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warn.Sprint("!"), fmt.Sprintf(format, args...))
}

func printErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", bad.Sprint("✗"), fmt.Sprintf(format, args...))
}
