package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linlinbupt123-crypto/nft_vault/entity"
	"github.com/linlinbupt123-crypto/nft_vault/events"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

// Listings is the cached query layer over the wallet scan and the vault
// resolution.
type Listings interface {
	WalletAssets(ctx context.Context, owner string) ([]entity.AssetRecord, error)
	HiddenAssets(ctx context.Context, vaultID string) ([]entity.HiddenAssetRecord, error)
	Invalidate()
}

// Reconciler re-reads an owner's listings once, a fixed delay after a
// confirmed mutation, so readers have caught up with the write. Only then
// is the mutation's event published.
type Reconciler struct {
	locator  *Locator
	listings Listings
	bus      *events.Bus
	delay    time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewReconciler(locator *Locator, listings Listings, bus *events.Bus, delay time.Duration, log *zap.Logger) *Reconciler {
	return &Reconciler{
		locator:  locator,
		listings: listings,
		bus:      bus,
		delay:    delay,
		log:      logger.OrNop(log).Named("reconciler"),
		pending:  map[*time.Timer]struct{}{},
	}
}

func (r *Reconciler) Delay() time.Duration {
	return r.delay
}

// Schedule runs one reconciliation for evt.Owner after the delay and then
// publishes evt.
func (r *Reconciler) Schedule(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(r.delay, func() {
		defer r.wg.Done()
		r.mu.Lock()
		delete(r.pending, t)
		r.mu.Unlock()
		r.reconcile(evt)
	})
	r.pending[t] = struct{}{}
}

func (r *Reconciler) reconcile(evt events.Event) {
	ctx := context.Background()
	r.listings.Invalidate()
	snap, err := loadSnapshot(ctx, r.locator, r.listings, evt.Owner)
	if err != nil {
		r.log.Warn("reconciliation read failed", zap.String("owner", evt.Owner), zap.Error(err))
	} else {
		if evt.VaultID == "" {
			evt.VaultID = snap.VaultID
		}
		r.log.Debug("reconciled",
			zap.String("owner", evt.Owner),
			zap.String("vault_id", snap.VaultID),
			zap.Int("wallet", len(snap.Wallet)),
			zap.Int("hidden", len(snap.Hidden)),
		)
	}
	r.publish(evt)
	if snap != nil {
		r.publish(events.Event{Kind: events.TopicRefreshed, Owner: evt.Owner, VaultID: snap.VaultID})
	}
}

// Refresh reloads owner's listings right away.
func (r *Reconciler) Refresh(ctx context.Context, owner string) (*entity.Snapshot, error) {
	r.listings.Invalidate()
	snap, err := loadSnapshot(ctx, r.locator, r.listings, owner)
	if err != nil {
		return nil, err
	}
	r.publish(events.Event{Kind: events.TopicRefreshed, Owner: owner, VaultID: snap.VaultID})
	return snap, nil
}

func (r *Reconciler) publish(evt events.Event) {
	if r.bus != nil {
		r.bus.Publish(evt)
	}
}

// Stop cancels reconciliations that have not started and waits for
// running ones.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.closed = true
	for t := range r.pending {
		if t.Stop() {
			r.wg.Done()
		}
		delete(r.pending, t)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// loadSnapshot reads the wallet listing and the vault listing of owner
// concurrently.
func loadSnapshot(ctx context.Context, locator *Locator, listings Listings, owner string) (*entity.Snapshot, error) {
	snap := &entity.Snapshot{Owner: owner}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wallet, err := listings.WalletAssets(gctx, owner)
		if err != nil {
			return err
		}
		snap.Wallet = wallet
		return nil
	})
	g.Go(func() error {
		vaultID, err := locator.Locate(gctx, owner)
		if err != nil {
			return err
		}
		snap.VaultID = vaultID
		snap.Hidden = []entity.HiddenAssetRecord{}
		if vaultID == "" {
			return nil
		}
		hidden, err := listings.HiddenAssets(gctx, vaultID)
		if err != nil {
			return err
		}
		snap.Hidden = hidden
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
