package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/facelab/annotator/internal/config"
	"github.com/facelab/annotator/internal/images"
	"github.com/facelab/annotator/internal/pairs"
	"github.com/facelab/annotator/internal/sheets"
	"github.com/facelab/annotator/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the annotation web server",
	Long: `Start the Face Annotator web server.
The server renders the annotation form in the browser and appends every
finished annotation to the configured Google Sheet.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (defaults to random)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Sheets.SpreadsheetID == "" {
		return errors.New("SPREADSHEET_ID environment variable is required")
	}

	table, err := pairs.Load(cfg.Pairs.CSVPath)
	if err != nil {
		return fmt.Errorf("loading pairs table: %w", err)
	}
	fmt.Printf("Loaded %d pairs from %s\n", len(table), cfg.Pairs.CSVPath)

	resolver := images.NewResolver(cfg.Images)
	if cfg.Images.UseURLs {
		fmt.Printf("Serving images from %s\n", cfg.Images.URLBase)
	} else {
		fmt.Printf("Serving images from local directory %s\n", cfg.Images.BasePath)
	}

	// Authentication against the Sheets API happens lazily on the
	// first append or progress lookup.
	writer := sheets.NewClient(cfg.Sheets)

	port, host, sessionSecret := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, table, writer, resolver, port, host, sessionSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Annotator on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
