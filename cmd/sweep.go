package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"room-reservation/internal/audit"
	"room-reservation/internal/autocancel"
	"room-reservation/internal/config"
	"room-reservation/internal/notify"
)

var sweepPurge bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single autocancel sweep",
	Long: `Runs one autocancel tick against the database and exits. Useful for
testing the sweep configuration or for running the sweep from an external
scheduler instead of the built-in one.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := config.Cfg

		sink := audit.NewStoreSink(provider)

		var notifier autocancel.Notifier
		if mailer := notify.NewMailer(cfg.Email); mailer != nil {
			notifier = mailer
		}

		sweeper := autocancel.NewSweeper(provider, sink, notifier, cfg.Autocancel)
		if err := sweeper.RunTick(ctx); err != nil {
			slog.Error("Sweep failed", "error", err)
			os.Exit(1)
		}

		if sweepPurge {
			purgeExpired(ctx)
		}
	},
}

// purgeExpired removes reservations that ended before the retention window.
func purgeExpired(ctx context.Context) {
	cfg := config.Cfg
	if cfg.RetentionDays == 0 {
		fmt.Println("Retention is disabled (retention_days is 0), nothing purged")
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -int(cfg.RetentionDays))
	purged, err := provider.PurgeReservationsEndedBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention purge failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Purged %d reservations older than %s\n", purged, cutoff.Format(time.RFC3339))
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().BoolVar(&sweepPurge, "purge", false, "also purge reservations past the retention window")
}
