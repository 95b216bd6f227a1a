package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cardpool/internal/config"
	"cardpool/internal/utils"
	"cardpool/pkg/fetch"
	"cardpool/pkg/gateway"
	"cardpool/pkg/moxfield"
	"cardpool/pkg/scryfall"
	"cardpool/pkg/snapshot"
	"cardpool/pkg/tracker"
)

// buildCmd runs the whole pipeline once and writes the snapshot.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch all sources, merge, price, and write the snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		skipPrices, _ := cmd.Flags().GetBool("skip-prices")
		gatewayBase, _ := cmd.Flags().GetString("gateway")

		// An unreadable config is the one fatal error: there is nothing to
		// do without it.
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("cannot read config: %w", err)
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("cannot parse config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client := fetch.NewClient(fetch.DefaultRetries)
		gw := gateway.New(gatewayBase, client)

		pipeline := tracker.New(moxfield.NewClient(gw), scryfall.NewClient(client))
		pipeline.SkipPrices = skipPrices

		snap, stats := pipeline.Run(&cfg)

		if err := snapshot.Write(output, snap); err != nil {
			return fmt.Errorf("cannot write snapshot: %w", err)
		}

		utils.Log.Info("Processed ", stats.URLs, " URLs from ", stats.Sources, " sources (", stats.SkippedURLs, " skipped)")
		utils.Log.Info("Snapshot: ", len(snap.Owners), " owners, ", len(snap.Cards), " cards, ", stats.Printings, " printings")
		if !skipPrices {
			utils.Log.Info(fmt.Sprintf("Prices fetched for %d/%d printings (%.1f%%)",
				stats.PricesFetched, stats.Printings, stats.PricePercent()))
		}
		utils.Log.Info("Wrote ", output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("output", "o", snapshot.DefaultPath, "Snapshot output path")
	buildCmd.Flags().Bool("skip-prices", false, "Skip the Scryfall price enrichment pass")
	buildCmd.Flags().String("gateway", gateway.DefaultBase, "CORS relay gateway base URL")
}
