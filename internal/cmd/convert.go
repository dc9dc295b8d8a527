package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/units"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <value>",
	Short: "Convert a value between memory or CPU frequency units",
	Long: `Convert a value between units of one family. The mem family runs
from B to YB in steps of 1024; the cpu family runs from HZ to PHZ in
steps of 1000.

Examples:
  capreport convert 2048 --to MB                 # 2
  capreport convert 0.5 --from GB --to MB        # 512
  capreport convert 2 --kind cpu --from MHZ --to HZ
  capreport convert 200 --to MB --precision 2    # 0.2`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertKind      string
	convertFrom      string
	convertTo        string
	convertPrecision int
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertKind, "kind", "mem", "Unit family (mem|cpu)")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "Source unit (default: KB for mem, MHZ for cpu)")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Destination unit")
	convertCmd.Flags().IntVar(&convertPrecision, "precision", units.NoRounding, "Decimal places to round to (-1 for none)")

	convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[0], err)
	}

	switch convertKind {
	case "mem":
		d, err := units.MemCast(value, convertTo, convertFrom, convertPrecision)
		if err != nil {
			return err
		}
		fmt.Println(d.String())
	case "cpu":
		d, err := units.CPUCast(value, convertTo, convertFrom, convertPrecision)
		if err != nil {
			return err
		}
		fmt.Println(d.String())
	default:
		return fmt.Errorf("unknown unit family %q (expected mem or cpu)", convertKind)
	}
	return nil
}
