package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/srcpatch/internal/config"
	"github.com/hupe1980/srcpatch/internal/report"
	"github.com/hupe1980/srcpatch/internal/rules"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule sets",
		Long: `Inspect the built-in rule sets and the rule set that apply, check,
diff and watch would resolve from the current flags and configuration.`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(newRulesListCommand(), newRulesShowCommand())

	return cmd
}

func newRulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in rule sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report.WriteSetNames(cmd.OutOrStdout(), rules.BuiltinNames(), rules.DefaultSetName)
			return nil
		},
	}
}

func newRulesShowCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show the rules of a rule set",
		Long: `Show prints the rules of the named built-in set. Without a name it
prints the effective rule set: --rules-file, then the rules section of the
config file, then --ruleset.

Use --yaml to print the set as a rule file that can be edited and passed
back with --rules-file.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			return rules.BuiltinNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := showSet(cmd.Context(), args)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()

			if asYAML {
				data, err := rules.Marshal(set)
				if err != nil {
					return &ExitError{Code: exitError, Err: err}
				}

				_, err = w.Write(data)

				return err
			}

			report.WriteRules(w, set)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the set as a YAML rule file")
	cmd.Flags().String("rules-file", "", "YAML rule file")
	cmd.Flags().String("ruleset", rules.DefaultSetName, "built-in rule set")

	return cmd
}

func showSet(ctx context.Context, args []string) (*rules.Set, error) {
	if len(args) == 1 {
		set, err := rules.Builtin(args[0])
		if err != nil {
			return nil, &ExitError{Code: exitInvalid, Err: err}
		}

		return set, nil
	}

	set, err := rules.Resolve(config.FromContext(ctx).RuleSource())
	if err != nil {
		return nil, &ExitError{Code: exitInvalid, Err: fmt.Errorf("resolving rules: %w", err)}
	}

	return set, nil
}
