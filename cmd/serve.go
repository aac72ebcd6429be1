package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/api"
	"github.com/linlinbupt123-crypto/nft_vault/events"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		vaultEvents, cancel := a.svc.Bus.Subscribe(events.TopicVault)
		defer cancel()
		go func() {
			for evt := range vaultEvents {
				log.Info("vault event",
					zap.String("kind", string(evt.Kind)),
					zap.String("owner", evt.Owner),
					zap.String("vault_id", evt.VaultID),
					zap.String("digest", evt.Digest),
				)
			}
		}()

		r := gin.Default()
		api.NewVaultHandler(a.svc).Register(r)

		srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
		errCh := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
