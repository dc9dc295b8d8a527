package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/scope"
)

// scopeCmd represents the scope command
var scopeCmd = &cobra.Command{
	Use:   "scope <id>",
	Short: "Resolve what kind of entity set an id refers to",
	Long: `Probe the platform to determine whether an id is a market, an
entity, a group, or a target. Useful when writing the scopes section
of an actions report.

The probes run in a fixed order (market, entity, group, target) and
the first match wins.

Examples:
  capreport scope Market
  capreport scope 284552108476365`,
	Args: cobra.ExactArgs(1),
	RunE: runScope,
}

func init() {
	rootCmd.AddCommand(scopeCmd)
}

func runScope(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := newConnection(cfg)
	if err != nil {
		return err
	}

	s, err := scope.Resolve(cmd.Context(), conn, scope.Descriptor{ID: args[0]}, false)
	if err != nil {
		return err
	}
	if s.Type == scope.TypeUnresolved {
		return fmt.Errorf("%s is not a market, entity, group, or target", args[0])
	}

	fmt.Printf("%s: %s\n", s.UUID, s.Type)
	return nil
}
