package commands

import (
	"context"
	"fmt"
	"os"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/config"
	"bazaar-items/lib/serviceutil"
	"bazaar-items/lib/telemetry"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "itemsync",
	Short: "itemsync scrapes the wiki item table and exports it for the bazaar client and server.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		configPath, _ := cmd.Flags().GetString("config")

		telemetry.InitSlog(debug)

		cfg, err := config.Load(configPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			Config: cfg,
			Debug:  debug,
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.json5", "The path to the config file, a config.local.json5 next to it is merged on top.")
	rootCmd.PersistentFlags().Bool("debug", false, "Enables debug logging and http exchange dumps.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
