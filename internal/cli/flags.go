package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/document"
	"github.com/hupe1980/srcpatch/internal/filter"
	"github.com/hupe1980/srcpatch/internal/rules"
)

// registerPatchFlags adds the flags shared by every command that runs the
// filter. Values are read back through config so that the config file and
// SRCPATCH_* environment variables apply when a flag is not set.
func registerPatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("rules-file", "", "YAML rule file (overrides --ruleset and config rules)")
	f.String("ruleset", rules.DefaultSetName, "built-in rule set")
	f.String("encoding", document.DefaultEncoding, "character encoding of input and output")
	f.String("line-ending", string(document.CRLF), "line terminator to write: crlf, lf")
	f.String("unterminated", string(filter.PolicyDrop), "unterminated block policy: drop, fail")
	f.Int("workers", 0, "files processed concurrently (0 = GOMAXPROCS)")

	_ = cmd.RegisterFlagCompletionFunc("ruleset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return rules.BuiltinNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("line-ending", cobra.FixedCompletions(
		[]string{string(document.CRLF), string(document.LF)}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("unterminated", cobra.FixedCompletions(
		[]string{string(filter.PolicyDrop), string(filter.PolicyFail)}, cobra.ShellCompDirectiveNoFileComp))
}

// registerFormatFlag adds the --format flag for report output.
func registerFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", "text", "report format: text, json, yaml")

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
}
