package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and manage recorded report runs",
	Long: `List report runs recorded in the local history database, show a
past run's output, or prune old entries.

Examples:
  capreport history                  # Recent runs
  capreport history --limit 50
  capreport history --show <run-id>  # Print a past run's output
  capreport history --prune 20       # Keep only the 20 newest runs
  capreport history --clear`,
	RunE: runHistory,
}

var (
	historyLimit int
	historyShow  string
	historyPrune int
	historyClear bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "Print the stored output of one run by id")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Keep only the N newest runs")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded runs")
}

func openHistory() (*history.Store, error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return nil, fmt.Errorf("no run history: capreport is not initialized here")
	}
	return history.Open(configDir)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if historyClear {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("history cleared")
		return nil
	}

	if historyPrune > 0 {
		pruned, err := store.Prune(historyPrune)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d runs\n", pruned)
		return nil
	}

	if historyShow != "" {
		run, err := store.GetRun(historyShow)
		if err != nil {
			return fmt.Errorf("run %s: %w", historyShow, err)
		}
		if run.Status == history.StatusFailed {
			fmt.Fprintf(os.Stderr, "run failed: %s\n", run.Error)
		}
		fmt.Print(run.Output)
		return nil
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Started", "Run", "Report", "Type", "Status", "Rows", "Format"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, run := range runs {
		table.Append([]string{
			run.StartedAt.Local().Format(time.DateTime),
			run.ID,
			run.ReportName,
			run.ReportType,
			run.Status,
			strconv.Itoa(run.RowCount),
			run.Format,
		})
	}
	table.Render()
	return nil
}
