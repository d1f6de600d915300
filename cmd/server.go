package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"room-reservation/internal/audit"
	"room-reservation/internal/autocancel"
	"room-reservation/internal/booking"
	"room-reservation/internal/config"
	"room-reservation/internal/identity"
	"room-reservation/internal/notify"
	"room-reservation/internal/routes"
	"room-reservation/internal/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the reservation server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		fmt.Println("Starting reservation server...")
		ServerMain(ctx, provider)
	},
}

func ServerMain(ctx context.Context, storageProvider storage.Provider) {
	cfg := config.Cfg
	if cfg == nil {
		panic("Config not initialized.")
	}

	if storageProvider == nil {
		slog.Error("Storage provider is nil")
		os.Exit(1)
	}

	sink := audit.NewStoreSink(storageProvider)
	ids := identity.NewService(storageProvider, cfg.Secret, cfg.TokenTTL())
	bookings := booking.NewService(storageProvider, sink, cfg.EditGrace())

	// A nil mailer means no SMTP is configured; autocancel then skips the
	// notice but still releases the room.
	var notifier autocancel.Notifier
	if mailer := notify.NewMailer(cfg.Email); mailer != nil {
		notifier = mailer
	}

	sweeper := autocancel.NewSweeper(storageProvider, sink, notifier, cfg.Autocancel)
	scheduler, err := autocancel.NewScheduler(sweeper, cfg.Autocancel.Cron)
	if err != nil {
		slog.Error("Failed to initialize autocancel scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := gin.Default()
	routes.RegisterRoutes(server, &routes.API{
		Booking:  bookings,
		Identity: ids,
		Store:    storageProvider,
		Audit:    sink,
		BaseURL:  cfg.BaseURL,
	})

	server.Run()
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
