package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/expr"
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate a sandboxed computed-field expression",
	Long: `Evaluate an expression with the same sandbox rules applied to
computed report fields. Useful for testing an expression before
putting it in a report definition.

Field references ($id) are not available here; substitute concrete
values when trying out an expression.

Examples:
  capreport eval '2 + 3 * 4'
  capreport eval 'round(37.5 / 8, 2)'
  capreport eval 'math.sqrt(2) > 1.4'`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	v, err := expr.Evaluate(args[0])
	if err != nil {
		return err
	}
	fmt.Println(expr.FormatValue(v))
	return nil
}
