package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/events"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

type Invalidator interface {
	Invalidate()
}

type Scheduler interface {
	Schedule(evt events.Event)
}

// Orchestrator builds, submits and confirms vault mutations for the
// connected account. Mutations of one owner run one at a time and a failed
// mutation is never retried.
type Orchestrator struct {
	ledger     chain.LedgerClient
	account    chain.Account
	locator    *Locator
	contract   config.ContractConfig
	gasBudget  uint64
	burn       string
	listings   Invalidator
	reconciler Scheduler
	notifier   Notifier
	log        *zap.Logger

	mu     sync.Mutex
	gates  map[string]*semaphore.Weighted
	vaults map[string]knownVault
}

// knownVault is a vault this process has seen, possibly before reads
// catch up with it. confirmed is zero for a vault found by Locate.
type knownVault struct {
	id        string
	confirmed time.Time
}

// NewOrchestrator wires the mutation path. account may be nil, every
// mutation then fails with NOT_CONNECTED.
func NewOrchestrator(
	ledger chain.LedgerClient,
	account chain.Account,
	locator *Locator,
	cfg *config.Config,
	listings Invalidator,
	reconciler Scheduler,
	notifier Notifier,
	log *zap.Logger,
) *Orchestrator {
	burn := cfg.BurnAddress
	if burn == "" {
		burn = utils.BURN_ADDRESS
	}
	if notifier == nil {
		notifier = NewBusNotifier(nil, log)
	}
	return &Orchestrator{
		ledger:     ledger,
		account:    account,
		locator:    locator,
		contract:   cfg.Contract,
		gasBudget:  cfg.GasBudget,
		burn:       burn,
		listings:   listings,
		reconciler: reconciler,
		notifier:   notifier,
		log:        logger.OrNop(log).Named("orchestrator"),
		gates:      map[string]*semaphore.Weighted{},
		vaults:     map[string]knownVault{},
	}
}

// Owner is the connected account's address.
func (o *Orchestrator) Owner() (string, error) {
	if o.account == nil {
		return "", wrapErrors.New(wrapErrors.NotConnected, "owner", "no account connected")
	}
	addr := o.account.Address()
	if addr == "" {
		return "", wrapErrors.New(wrapErrors.NotConnected, "owner", "no account connected")
	}
	if n, err := chain.NormalizeAddress(addr); err == nil {
		return n, nil
	}
	return addr, nil
}

// CreateVault creates the connected owner's vault. An owner holds at most
// one vault.
func (o *Orchestrator) CreateVault(ctx context.Context) (*entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.CreateVault())
	if err != nil {
		return m, err
	}
	defer release()

	existing, err := o.vaultOf(ctx, m.Owner)
	if err != nil {
		return o.fail(m, err)
	}
	if existing.id != "" {
		m.VaultID = existing.id
		return o.fail(m, wrapErrors.New(wrapErrors.InvalidArgument, "create vault", "owner already holds vault "+existing.id))
	}
	return o.create(ctx, m)
}

// ensureVault returns the owner's vault, creating it when there is none.
// created is the create mutation, nil when the vault already existed.
// Locate and create run under one hold of the owner's gate.
func (o *Orchestrator) ensureVault(ctx context.Context) (knownVault, *entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.CreateVault())
	if err != nil {
		return knownVault{}, m, err
	}
	defer release()

	existing, err := o.vaultOf(ctx, m.Owner)
	if err != nil || existing.id != "" {
		return existing, nil, err
	}
	m, err = o.create(ctx, m)
	if err != nil {
		return knownVault{}, m, err
	}
	v, _ := o.known(m.Owner)
	return v, m, nil
}

// create must be called with the owner's gate held.
func (o *Orchestrator) create(ctx context.Context, m *entity.Mutation) (*entity.Mutation, error) {
	target := o.contract.Target(o.contract.CreateFunction)
	m, err := o.execute(ctx, m, func(tx *chain.Transaction) {
		tx.MoveCall(target, nil)
	})
	if err != nil {
		return m, err
	}
	if len(m.Created) > 0 {
		m.VaultID = m.Created[0]
		o.remember(m.Owner, knownVault{id: m.VaultID, confirmed: time.Now()})
	}
	return m, nil
}

// Deposit moves assetID from the owner into the owner's vault.
func (o *Orchestrator) Deposit(ctx context.Context, assetID string) (*entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.Deposit(assetID))
	if err != nil {
		return m, err
	}
	defer release()

	vaultID, err := o.requireVault(ctx, m.Owner)
	if err != nil {
		return o.fail(m, err)
	}
	return o.deposit(ctx, m, vaultID)
}

// DepositInto is Deposit for a vault id already known to the caller, for
// a vault that is confirmed but not yet visible to reads.
func (o *Orchestrator) DepositInto(ctx context.Context, vaultID, assetID string) (*entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.Deposit(assetID))
	if err != nil {
		return m, err
	}
	defer release()
	return o.deposit(ctx, m, vaultID)
}

func (o *Orchestrator) deposit(ctx context.Context, m *entity.Mutation, vaultID string) (*entity.Mutation, error) {
	m.VaultID = vaultID
	assetID := m.Intent.AssetID
	if assetID == "" {
		return o.fail(m, wrapErrors.New(wrapErrors.InvalidArgument, "deposit", "asset id is required"))
	}

	asset, err := o.ledger.GetObject(ctx, assetID)
	if err != nil {
		return o.fail(m, wrapErrors.WrapWithCode(wrapErrors.TypeResolution, "deposit", err))
	}
	if asset == nil || asset.Type == "" {
		return o.fail(m, wrapErrors.New(wrapErrors.TypeResolution, "deposit", "cannot determine type of "+assetID))
	}

	target := o.contract.Target(o.contract.DepositFunction)
	return o.execute(ctx, m, func(tx *chain.Transaction) {
		tx.MoveCall(target, []string{asset.Type}, tx.Object(vaultID), tx.Object(assetID))
	})
}

// Withdraw takes the child under index out of the owner's vault and
// transfers it back to the owner.
func (o *Orchestrator) Withdraw(ctx context.Context, index uint64) (*entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.Withdraw(index))
	if err != nil {
		return m, err
	}
	defer release()

	vaultID, err := o.requireVault(ctx, m.Owner)
	if err != nil {
		return o.fail(m, err)
	}
	m.VaultID = vaultID

	childType, err := o.childType(ctx, vaultID, index)
	if err != nil {
		return o.fail(m, err)
	}

	target := o.contract.Target(o.contract.WithdrawFunction)
	return o.execute(ctx, m, func(tx *chain.Transaction) {
		asset := tx.MoveCall(target, []string{childType}, tx.Object(vaultID), tx.PureU64(index))
		tx.TransferObjects([]chain.Argument{asset}, tx.PureAddress(m.Owner))
	})
}

func (o *Orchestrator) childType(ctx context.Context, vaultID string, index uint64) (string, error) {
	ref, err := o.ledger.GetDynamicChildReference(ctx, vaultID, index)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.TypeResolution, "withdraw", err)
	}
	if ref == nil {
		return "", wrapErrors.New(wrapErrors.TypeResolution, "withdraw", "no object under the given index")
	}
	if ref.Type != "" {
		return ref.Type, nil
	}
	obj, err := o.ledger.GetObject(ctx, ref.ObjectID)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.TypeResolution, "withdraw", err)
	}
	if obj == nil || obj.Type == "" {
		return "", wrapErrors.New(wrapErrors.TypeResolution, "withdraw", "cannot determine type of "+ref.ObjectID)
	}
	return obj.Type, nil
}

// Destroy transfers assetID to the burn address. It cannot be undone.
func (o *Orchestrator) Destroy(ctx context.Context, assetID string) (*entity.Mutation, error) {
	m, release, err := o.begin(ctx, entity.Destroy(assetID))
	if err != nil {
		return m, err
	}
	defer release()

	if assetID == "" {
		return o.fail(m, wrapErrors.New(wrapErrors.InvalidArgument, "destroy", "asset id is required"))
	}
	return o.execute(ctx, m, func(tx *chain.Transaction) {
		tx.TransferObjects([]chain.Argument{tx.Object(assetID)}, tx.PureAddress(o.burn))
	})
}

// begin checks for a connected account before anything is built, then
// waits for the owner's previous mutation to settle.
func (o *Orchestrator) begin(ctx context.Context, intent entity.MutationIntent) (*entity.Mutation, func(), error) {
	m := &entity.Mutation{Intent: intent, State: entity.StateBuilt}
	owner, err := o.Owner()
	if err != nil {
		_, err = o.fail(m, err)
		return m, nil, err
	}
	m.Owner = owner

	gate := o.gate(owner)
	if err := gate.Acquire(ctx, 1); err != nil {
		_, err = o.fail(m, wrapErrors.WrapWithCode(wrapErrors.Unknown, "await previous mutation", err))
		return m, nil, err
	}
	return m, func() { gate.Release(1) }, nil
}

func (o *Orchestrator) gate(owner string) *semaphore.Weighted {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, ok := o.gates[owner]
	if !ok {
		g = semaphore.NewWeighted(1)
		o.gates[owner] = g
	}
	return g
}

func (o *Orchestrator) requireVault(ctx context.Context, owner string) (string, error) {
	v, err := o.vaultOf(ctx, owner)
	if err != nil {
		return "", err
	}
	if v.id == "" {
		return "", wrapErrors.New(wrapErrors.VaultNotFound, "locate vault", "owner has no vault")
	}
	return v.id, nil
}

// vaultOf prefers a vault this process confirmed over Locate, whose reads
// may not show it yet. A zero knownVault means the owner has none.
func (o *Orchestrator) vaultOf(ctx context.Context, owner string) (knownVault, error) {
	if v, ok := o.known(owner); ok {
		return v, nil
	}
	id, err := o.locator.Locate(ctx, owner)
	if err != nil || id == "" {
		return knownVault{}, err
	}
	return o.remember(owner, knownVault{id: id}), nil
}

func (o *Orchestrator) known(owner string) (knownVault, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.vaults[owner]
	return v, ok
}

// remember keeps the first vault recorded for owner.
func (o *Orchestrator) remember(owner string, v knownVault) knownVault {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, ok := o.vaults[owner]; ok {
		return prev
	}
	o.vaults[owner] = v
	return v
}

func (o *Orchestrator) execute(ctx context.Context, m *entity.Mutation, build func(tx *chain.Transaction)) (*entity.Mutation, error) {
	tx := chain.NewTransaction(m.Owner)
	if o.gasBudget > 0 {
		tx.SetGasBudget(o.gasBudget)
	}
	build(tx)
	if err := tx.Err(); err != nil {
		return o.fail(m, wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "build transaction", err))
	}

	digest, err := o.ledger.SubmitTransaction(ctx, tx)
	if err != nil {
		return o.fail(m, ledgerError("submit", err))
	}
	m.Digest = digest
	m.Advance(entity.StateSubmitted)
	o.log.Debug("submitted", zap.String("intent", m.Intent.String()), zap.String("digest", digest))

	receipt, err := o.ledger.AwaitConfirmation(ctx, digest)
	if err != nil {
		return o.fail(m, ledgerError("confirm", err))
	}
	m.Created = receipt.Created
	m.Advance(entity.StateConfirmed)

	o.listings.Invalidate()
	o.log.Info("mutation confirmed",
		zap.String("intent", m.Intent.String()),
		zap.String("owner", m.Owner),
		zap.String("vault_id", m.VaultID),
		zap.String("digest", digest),
	)
	o.notifier.Success(m.Intent.Kind, SuccessMessage(m.Intent.Kind))
	o.reconciler.Schedule(eventOf(m))
	return m, nil
}

func (o *Orchestrator) fail(m *entity.Mutation, err error) (*entity.Mutation, error) {
	m.Fail(err)
	o.log.Error("mutation failed",
		zap.String("intent", m.Intent.String()),
		zap.String("owner", m.Owner),
		zap.String("state", string(m.State)),
		zap.String("digest", m.Digest),
		zap.Error(err),
	)
	o.notifier.Failure(m.Intent.Kind, err)
	return m, err
}

// ledgerError keeps coded errors and classifies the rest as ledger
// failures.
func ledgerError(op string, err error) error {
	if wrapErrors.CodeOf(err) != wrapErrors.Unknown {
		return err
	}
	return wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, op, err)
}

func eventOf(m *entity.Mutation) events.Event {
	evt := events.Event{
		Owner:   m.Owner,
		VaultID: m.VaultID,
		AssetID: m.Intent.AssetID,
		Index:   m.Intent.Index,
		Digest:  m.Digest,
	}
	switch m.Intent.Kind {
	case entity.IntentCreateVault:
		evt.Kind = events.TopicCreated
		if evt.VaultID == "" && len(m.Created) > 0 {
			evt.VaultID = m.Created[0]
		}
	case entity.IntentDeposit:
		evt.Kind = events.TopicConcealed
	case entity.IntentWithdraw:
		evt.Kind = events.TopicUnconcealed
	case entity.IntentDestroy:
		evt.Kind = events.TopicDestroyed
	}
	return evt
}
