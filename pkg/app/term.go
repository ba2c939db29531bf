package app

import (
	"io"
	"os"

	"golang.org/x/term"
)

// terminalSize returns the width and height of w when it is a terminal.
func terminalSize(w io.Writer) (int, int, error) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, 0, nil
	}
	return term.GetSize(int(f.Fd()))
}
