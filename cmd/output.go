package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/wicsp/hostsnap/ui"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) renderer() ui.Renderer {
	return ui.Renderer{Plain: !isTerminal(a.out), MaskIPs: a.cfg.Output.MaskIPs}
}

// emit writes v in the configured output format. table renders the
// human form; json and yaml serialise v directly.
func (a *app) emit(v any, table func(ui.Renderer) string) error {
	switch a.cfg.Output.Format {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		_, err := fmt.Fprintln(a.out, table(a.renderer()))
		return err
	}
	return usageError(fmt.Errorf("unknown output format %q", a.cfg.Output.Format))
}
