package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hupe1980/srcpatch/internal/rules"
)

// WriteRules renders the rules of set as a table.
func WriteRules(w io.Writer, set *rules.Set) {
	if len(set.Rules) == 0 {
		_, _ = fmt.Fprintf(w, "rule set %s has no rules\n", set.Name)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(set.Name)
	t.AppendHeader(table.Row{"#", "Name", "Kind", "Trigger", "Unless / End"})

	for i, r := range set.Rules {
		switch rule := r.(type) {
		case rules.LineRule:
			t.AppendRow(table.Row{i + 1, rule.Name, "line", quote(rule.Contains), quote(rule.Unless)})
		case rules.BlockRule:
			t.AppendRow(table.Row{i + 1, rule.Name, "block", quote(rule.Start), quote(rule.EndToken())})
		}
	}

	t.Render()
}

// WriteSetNames renders the available rule set names, marking the default.
func WriteSetNames(w io.Writer, names []string, def string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule set", "Rules", "Default"})

	for _, name := range names {
		set, err := rules.Builtin(name)
		if err != nil {
			continue
		}

		mark := ""
		if name == def {
			mark = "*"
		}

		t.AppendRow(table.Row{name, len(set.Rules), mark})
	}

	t.Render()
}

func quote(s string) string {
	if s == "" {
		return "-"
	}

	return fmt.Sprintf("%q", s)
}
