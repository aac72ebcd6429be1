package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/events"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
	"github.com/linlinbupt123-crypto/nft_vault/repository"
)

// VaultService is the entry point used by the HTTP API and the CLI.
type VaultService struct {
	Locator      *Locator
	Resolver     *Resolver
	Listings     *repository.Listings
	Orchestrator *Orchestrator
	Reconciler   *Reconciler
	Bus          *events.Bus

	log *zap.Logger
}

// NewVaultService wires every component on top of ledger. account may be
// nil for a read-only service.
func NewVaultService(cfg *config.Config, ledger chain.LedgerClient, account chain.Account, bus *events.Bus, log *zap.Logger) *VaultService {
	log = logger.OrNop(log)
	if bus == nil {
		bus = events.NewBus(16, log)
	}

	locator := NewLocator(ledger, cfg.Contract, log)
	resolver := NewResolver(ledger, cfg.Resolver.Concurrency, log)
	listings := repository.NewListings(ledger, resolver, cfg.Contract.VaultType(), cfg.Cache.TTL, log)
	reconciler := NewReconciler(locator, listings, bus, cfg.Reconcile.Delay, log)
	orchestrator := NewOrchestrator(ledger, account, locator, cfg, listings, reconciler, NewBusNotifier(bus, log), log)

	return &VaultService{
		Locator:      locator,
		Resolver:     resolver,
		Listings:     listings,
		Orchestrator: orchestrator,
		Reconciler:   reconciler,
		Bus:          bus,
		log:          log.Named("vault"),
	}
}

// Snapshot returns owner's vault id, wallet assets and hidden assets.
func (s *VaultService) Snapshot(ctx context.Context, owner string) (*entity.Snapshot, error) {
	return loadSnapshot(ctx, s.Locator, s.Listings, owner)
}

func (s *VaultService) WalletAssets(ctx context.Context, owner string) ([]entity.AssetRecord, error) {
	return s.Listings.WalletAssets(ctx, owner)
}

// HiddenAssets is empty for an owner without a vault.
func (s *VaultService) HiddenAssets(ctx context.Context, owner string) ([]entity.HiddenAssetRecord, error) {
	vaultID, err := s.Locator.Locate(ctx, owner)
	if err != nil {
		return nil, err
	}
	if vaultID == "" {
		return []entity.HiddenAssetRecord{}, nil
	}
	return s.Listings.HiddenAssets(ctx, vaultID)
}

// Conceal hides assetID, creating the vault first when the owner has none.
// The deposit is only issued once the vault is confirmed and the
// reconcile delay since its confirmation has passed.
func (s *VaultService) Conceal(ctx context.Context, assetID string) (*entity.Mutation, error) {
	owner, err := s.Orchestrator.Owner()
	if err != nil {
		return s.Orchestrator.Deposit(ctx, assetID)
	}
	failed := func(err error) (*entity.Mutation, error) {
		return s.Orchestrator.fail(&entity.Mutation{Intent: entity.Deposit(assetID), Owner: owner, State: entity.StateBuilt}, err)
	}

	vault, created, err := s.Orchestrator.ensureVault(ctx)
	if err != nil {
		if created != nil {
			return created, err
		}
		return failed(err)
	}
	if vault.id == "" {
		return s.Orchestrator.Deposit(ctx, assetID)
	}
	if vault.confirmed.IsZero() {
		return s.Orchestrator.DepositInto(ctx, vault.id, assetID)
	}

	if err := sleep(ctx, time.Until(vault.confirmed.Add(s.Reconciler.Delay()))); err != nil {
		return failed(wrapErrors.WrapWithCode(wrapErrors.Unknown, "await vault", err))
	}
	located, err := s.Locator.Locate(ctx, owner)
	if err != nil || located != vault.id {
		s.log.Warn("new vault not visible yet, using the confirmed id",
			zap.String("owner", owner),
			zap.String("vault_id", vault.id),
			zap.Error(err),
		)
	}
	return s.Orchestrator.DepositInto(ctx, vault.id, assetID)
}

func (s *VaultService) Reveal(ctx context.Context, index uint64) (*entity.Mutation, error) {
	return s.Orchestrator.Withdraw(ctx, index)
}

func (s *VaultService) Burn(ctx context.Context, assetID string) (*entity.Mutation, error) {
	return s.Orchestrator.Destroy(ctx, assetID)
}

func (s *VaultService) CreateVault(ctx context.Context) (*entity.Mutation, error) {
	return s.Orchestrator.CreateVault(ctx)
}

// Refresh reloads owner's listings without waiting for the reconcile delay.
func (s *VaultService) Refresh(ctx context.Context, owner string) (*entity.Snapshot, error) {
	return s.Reconciler.Refresh(ctx, owner)
}

// Close stops pending reconciliations.
func (s *VaultService) Close() {
	s.Reconciler.Stop()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
