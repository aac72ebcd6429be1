package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

// Locator finds the vault object an owner holds.
type Locator struct {
	ledger    chain.LedgerClient
	vaultType string
	log       *zap.Logger
}

func NewLocator(ledger chain.LedgerClient, contract config.ContractConfig, log *zap.Logger) *Locator {
	return &Locator{
		ledger:    ledger,
		vaultType: contract.VaultType(),
		log:       logger.OrNop(log).Named("locator"),
	}
}

// Locate returns the id of owner's vault, or "" when owner has none.
// Having no vault is not an error.
func (l *Locator) Locate(ctx context.Context, owner string) (string, error) {
	if owner == "" {
		return "", wrapErrors.New(wrapErrors.InvalidArgument, "locate vault", "owner address is required")
	}
	objects, err := l.ledger.GetOwnedObjects(ctx, owner, l.vaultType)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "locate vault", err)
	}
	if len(objects) == 0 {
		l.log.Debug("no vault", zap.String("owner", owner))
		return "", nil
	}
	if len(objects) > 1 {
		l.log.Warn("owner holds more than one vault, using the first",
			zap.String("owner", owner), zap.Int("count", len(objects)))
	}
	return objects[0].ObjectID, nil
}
