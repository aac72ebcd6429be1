package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/domain"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/events"
	"github.com/linlinbupt123-crypto/nft_vault/service"
)

type app struct {
	client *chain.SuiClient
	svc    *service.VaultService
	log    *zap.Logger
}

// newApp dials the ledger and wires the vault service. Without a sealed
// mnemonic in the config the service is read-only.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	if cfg.Contract.PackageID == "" {
		return nil, wrapErrors.New(wrapErrors.InvalidArgument, "config", "contract.package_id is required")
	}

	var (
		signer  chain.Signer
		account chain.Account
	)
	s, err := domain.NewKeyring().SignerFromConfig(cfg.Signer)
	if err != nil {
		return nil, err
	}
	if s != nil {
		signer, account = s, s
		log.Info("signer loaded", zap.String("address", s.Address()))
	} else {
		log.Warn("no signer configured, mutations are disabled")
	}

	client, err := chain.NewSuiClient(ctx, cfg.Ledger, signer, log)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus(64, log)
	return &app{
		client: client,
		svc:    service.NewVaultService(cfg, client, account, bus, log),
		log:    log,
	}, nil
}

func (a *app) Close() {
	a.svc.Close()
	a.svc.Bus.Close()
	a.client.Close()
}
