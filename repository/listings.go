package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/domain"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

// IndexResolver expands a vault into its hidden assets.
type IndexResolver interface {
	Resolve(ctx context.Context, vaultID string) ([]entity.HiddenAssetRecord, error)
}

// Listings is the query cache in front of the wallet scan and the vault
// resolution. Entries are only ever dropped wholesale.
type Listings struct {
	ledger    chain.LedgerClient
	resolver  IndexResolver
	vaultType string
	store     *cache.Cache
	log       *zap.Logger

	// gen advances on every Invalidate so a load that started before it
	// is not cached.
	mu  sync.Mutex
	gen uint64
}

func NewListings(ledger chain.LedgerClient, resolver IndexResolver, vaultType string, ttl time.Duration, log *zap.Logger) *Listings {
	store := cache.New(cache.NoExpiration, 0)
	if ttl > 0 {
		store = cache.New(ttl, 2*ttl)
	}
	return &Listings{
		ledger:    ledger,
		resolver:  resolver,
		vaultType: vaultType,
		store:     store,
		log:       logger.OrNop(log).Named("listings"),
	}
}

func walletKey(owner string) string {
	return "getOwnedObjects:" + canonical(owner)
}

func vaultKey(vaultID string) string {
	return "vault:" + canonical(vaultID)
}

func canonical(id string) string {
	if n, err := chain.NormalizeAddress(id); err == nil {
		return n
	}
	return id
}

// WalletAssets lists the assets directly owned by owner.
func (l *Listings) WalletAssets(ctx context.Context, owner string) ([]entity.AssetRecord, error) {
	key := walletKey(owner)
	if v, ok := l.store.Get(key); ok {
		return slices.Clone(v.([]entity.AssetRecord)), nil
	}

	gen := l.generation()
	objects, err := l.ledger.GetOwnedObjects(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	assets := make([]entity.AssetRecord, 0, len(objects))
	for i := range objects {
		obj := &objects[i]
		class := domain.Classify(obj, l.vaultType)
		if !class.IsAsset() {
			continue
		}
		if class == domain.AssetByTypeHint {
			l.log.Debug("asset accepted by type hint", zap.String("object_id", obj.ObjectID), zap.String("type", obj.Type))
		}
		assets = append(assets, domain.Normalize(obj))
	}

	l.put(gen, key, assets)
	return slices.Clone(assets), nil
}

// HiddenAssets lists the assets concealed in vaultID, in vault order.
func (l *Listings) HiddenAssets(ctx context.Context, vaultID string) ([]entity.HiddenAssetRecord, error) {
	key := vaultKey(vaultID)
	if v, ok := l.store.Get(key); ok {
		return slices.Clone(v.([]entity.HiddenAssetRecord)), nil
	}

	gen := l.generation()
	hidden, err := l.resolver.Resolve(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	l.put(gen, key, hidden)
	return slices.Clone(hidden), nil
}

func (l *Listings) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *Listings) put(gen uint64, key string, value any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.store.SetDefault(key, value)
}

// Invalidate drops every cached listing.
func (l *Listings) Invalidate() {
	l.mu.Lock()
	l.gen++
	n := l.store.ItemCount()
	l.store.Flush()
	l.mu.Unlock()
	l.log.Debug("listings invalidated", zap.Int("entries", n))
}
