package bundler

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/term"
)

// reporter prints engine diagnostics the way a friendly-errors plugin would:
// formatted code frames for errors and warnings, then a one-line summary.
type reporter struct {
	out      io.Writer
	level    int
	color    bool
	width    int
	detailed bool
}

func newReporter(out io.Writer, o Options) *reporter {
	r := &reporter{out: out, level: o.LogLevel, detailed: o.DetailedReport}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.color = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			r.width = w
		}
	}
	return r
}

func (r *reporter) errors(msgs []api.Message) {
	if r.level >= ReportErrors {
		r.messages(msgs, api.ErrorMessage)
	}
}

func (r *reporter) warnings(msgs []api.Message) {
	if r.level >= ReportWarnings {
		r.messages(msgs, api.WarningMessage)
	}
}

func (r *reporter) messages(msgs []api.Message, kind api.MessageKind) {
	if len(msgs) == 0 {
		return
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{
		TerminalWidth: r.width,
		Kind:          kind,
		Color:         r.color,
	})
	for _, m := range formatted {
		_, _ = fmt.Fprint(r.out, m)
	}
}

func (r *reporter) summary(res *Result, meta *Metafile) {
	if r.level < ReportInfo {
		return
	}
	_, _ = fmt.Fprintf(r.out, "Built in %s.\n", res.Duration.Round(time.Millisecond))
	if !r.detailed || meta == nil {
		return
	}
	for _, p := range meta.OutputFiles() {
		_, _ = fmt.Fprintf(r.out, "  %-48s %8s\n", p, humanBytes(meta.Outputs[p].Bytes))
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
