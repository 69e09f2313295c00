package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/StrongerSoftworks/emoji-tiler/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server that turns uploaded images into zipped emoji sets.

Endpoints:
  GET  /api/v1/health
  POST /api/v1/emoji?name=NAME[&sizes=2,3][&mode=rectangle][&tile_size=128]

Examples:
  # Start server on default port 8080
  emoji-tiler serve

  # Upload an image
  curl --data-binary @parrot.gif "localhost:8080/api/v1/emoji?name=parrot" -o parrot.zip`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int64("max-upload", server.DefaultMaxUploadBytes, "largest accepted upload in bytes")

	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.max-upload", serveCmd.Flags().Lookup("max-upload"))
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := fmt.Sprintf("%s:%d", viper.GetString("server.bind"), viper.GetInt("server.port"))
	timeout := viper.GetDuration("server.timeout")

	options, err := engineOptions()
	if err != nil {
		return err
	}
	// Sizes are chosen per request.
	options.Sizes = nil

	apiServer := server.NewServer(version)
	apiServer.Options = options
	apiServer.MaxUploadBytes = viper.GetInt64("server.max-upload")

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Router(timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	slog.Info("Starting emoji-tiler server", "addr", addr, "version", version)
	return serve(cmd.Context(), httpServer)
}

// serve runs httpServer until ctx is done or the server fails to start.
func serve(ctx context.Context, httpServer *http.Server) error {
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		<-ctx.Done()

		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	err := httpServer.ListenAndServe()
	cancel()
	<-stopped

	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
