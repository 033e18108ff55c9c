package termutil

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tcnksm/go-input"
)

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Confirm asks a y/N question. Anything but "y" or "yes" (in any case) is a
// no, including an empty answer.
func Confirm(ui *input.UI, question string) (bool, error) {
	answer, err := ui.Ask(question+" (y/N)", &input.Options{
		Default:     "n",
		HideDefault: true,
		HideOrder:   true,
	})
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
