package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/domain"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

const defaultConcurrency = 8

// Resolver expands a vault's index list into hidden asset records. Every
// index is looked up on its own: a failing index is logged and left out,
// it never fails the whole pass.
type Resolver struct {
	ledger      chain.LedgerClient
	concurrency int
	now         func() time.Time
	log         *zap.Logger
}

func NewResolver(ledger chain.LedgerClient, concurrency int, log *zap.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Resolver{
		ledger:      ledger,
		concurrency: concurrency,
		now:         time.Now,
		log:         logger.OrNop(log).Named("resolver"),
	}
}

// Vault reads the vault object. A vault that cannot be read, or has no
// indices field yet, comes back with no indices.
func (r *Resolver) Vault(ctx context.Context, vaultID string) *entity.Vault {
	v := &entity.Vault{ID: vaultID}
	obj, err := r.ledger.GetObject(ctx, vaultID)
	if err != nil {
		r.log.Warn("vault not readable", zap.String("vault_id", vaultID), zap.Error(err))
		return v
	}
	if obj == nil {
		return v
	}
	if obj.Owner != nil {
		v.Owner = obj.Owner.AddressOwner
	}
	raw, ok := obj.Fields()["indices"]
	if !ok {
		return v
	}
	v.Indices = r.parseIndices(vaultID, raw)
	return v
}

// Resolve returns the hidden assets of vaultID in the order of its index
// list. It only fails when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, vaultID string) ([]entity.HiddenAssetRecord, error) {
	vault := r.Vault(ctx, vaultID)
	if len(vault.Indices) == 0 {
		return []entity.HiddenAssetRecord{}, nil
	}

	slots := make([]*entity.HiddenAssetRecord, len(vault.Indices))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, idx := range vault.Indices {
		g.Go(func() error {
			rec, err := r.resolveIndex(ctx, vaultID, idx)
			if err != nil {
				r.log.Warn("index skipped",
					zap.String("vault_id", vaultID),
					zap.Uint64("index", idx),
					zap.String("stage", stageOf(err)),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "resolve vault", err)
	}

	out := make([]entity.HiddenAssetRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

const (
	stageChildReference = "child_reference"
	stageObject         = "object"
)

func (r *Resolver) resolveIndex(ctx context.Context, vaultID string, idx uint64) (*entity.HiddenAssetRecord, error) {
	ref, err := r.ledger.GetDynamicChildReference(ctx, vaultID, idx)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.PerIndexResolutionFault, stageChildReference, err)
	}
	if ref == nil || ref.ObjectID == "" {
		return nil, wrapErrors.New(wrapErrors.PerIndexResolutionFault, stageChildReference, "child not visible yet")
	}

	obj, err := r.ledger.GetObject(ctx, ref.ObjectID)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.PerIndexResolutionFault, stageObject, err)
	}
	if obj == nil || obj.Content == nil {
		return nil, wrapErrors.New(wrapErrors.PerIndexResolutionFault, stageObject, "object "+ref.ObjectID+" has no content")
	}

	return &entity.HiddenAssetRecord{
		AssetRecord:    domain.Normalize(obj),
		ContainerIndex: idx,
		ConcealedAt:    r.now(),
	}, nil
}

func stageOf(err error) string {
	var appErr *wrapErrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Op
	}
	return ""
}

// parseIndices accepts the JSON renderings of vector<u64>: decimal strings
// or numbers. Malformed entries are dropped.
func (r *Resolver) parseIndices(vaultID string, raw any) []uint64 {
	list, ok := raw.([]any)
	if !ok {
		r.log.Warn("indices field is not a list", zap.String("vault_id", vaultID), zap.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}
	out := make([]uint64, 0, len(list))
	for _, v := range list {
		idx, err := parseIndex(v)
		if err != nil {
			r.log.Warn("index skipped",
				zap.String("vault_id", vaultID),
				zap.String("stage", "indices"),
				zap.Error(err),
			)
			continue
		}
		out = append(out, idx)
	}
	return out
}

func parseIndex(v any) (uint64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseUint(t, 10, 64)
	case json.Number:
		return strconv.ParseUint(t.String(), 10, 64)
	case float64:
		if t < 0 || t != float64(uint64(t)) {
			return 0, fmt.Errorf("invalid index %v", t)
		}
		return uint64(t), nil
	case uint64:
		return t, nil
	case int:
		if t < 0 {
			return 0, fmt.Errorf("invalid index %d", t)
		}
		return uint64(t), nil
	default:
		return 0, fmt.Errorf("invalid index type %T", v)
	}
}
