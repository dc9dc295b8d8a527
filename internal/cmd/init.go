package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/capreport/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .capreport directory and a default config",
	Long: `Create a .capreport directory in the current working directory with
a default config.yaml. Edit the file to point at your platform and
set the password via the environment variable named by password_env.

Examples:
  capreport init
  export CAPREPORT_PASSWORD=...`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.SaveDefault(".")
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	fmt.Println("edit the platform section, then set the password environment variable")
	return nil
}
