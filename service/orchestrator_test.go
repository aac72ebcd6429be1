package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/nft_vault/chain/chaintest"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/events"
)

func TestMutationsRequireConnectedAccount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for name, run := range map[string]func() (*entity.Mutation, error){
		"create":   func() (*entity.Mutation, error) { return f.svc.CreateVault(ctx) },
		"deposit":  func() (*entity.Mutation, error) { return f.svc.Orchestrator.Deposit(ctx, "0xa") },
		"conceal":  func() (*entity.Mutation, error) { return f.svc.Conceal(ctx, "0xa") },
		"withdraw": func() (*entity.Mutation, error) { return f.svc.Reveal(ctx, 0) },
		"destroy":  func() (*entity.Mutation, error) { return f.svc.Burn(ctx, "0xa") },
	} {
		t.Run(name, func(t *testing.T) {
			m, err := run()
			assert.True(t, wrapErrors.Is(err, wrapErrors.NotConnected))
			assert.Equal(t, entity.StateFailed, m.State)
		})
	}

	assert.Zero(t, f.ledger.Calls("GetOwnedObjects"))
	assert.Zero(t, f.ledger.Calls("GetObject"))
	assert.Zero(t, f.ledger.Calls("SubmitTransaction"))
}

func TestDepositMovesAssetIntoVault(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	vaultID := f.ledger.AddVault(ownerAddr, 0)
	assetID := f.ledger.Mint(nft("0xaa", "a"))

	concealed, cancel := f.bus.Subscribe(events.TopicConcealed)
	defer cancel()

	m, err := f.svc.Orchestrator.Deposit(context.Background(), assetID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, m.State)
	assert.Equal(t, vaultID, m.VaultID)
	assert.NotEmpty(t, m.Digest)

	assert.Equal(t, []uint64{0}, f.ledger.Indices(vaultID))
	assert.Equal(t, "object:"+vaultID, f.ledger.Owner(assetID))

	txs := f.ledger.Submitted()
	require.Len(t, txs, 1)
	call := txs[0].Commands[0].MoveCall
	require.NotNil(t, call)
	assert.Equal(t, "hide_nft", call.Function)
	assert.Equal(t, []string{nftType}, call.TypeArguments)

	evt := await(t, concealed)
	assert.Equal(t, assetID, evt.AssetID)
	assert.Equal(t, vaultID, evt.VaultID)
	assert.Equal(t, ownerAddr, evt.Owner)
}

func TestDepositNeedsResolvableType(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	f.ledger.AddVault(ownerAddr, 0)

	m, err := f.svc.Orchestrator.Deposit(context.Background(), "0xdead")
	assert.True(t, wrapErrors.Is(err, wrapErrors.TypeResolution))
	assert.Equal(t, entity.StateFailed, m.State)
	assert.Empty(t, f.ledger.Submitted())

	f.ledger.FailObject("0xbeef", errors.New("node down"))
	_, err = f.svc.Orchestrator.Deposit(context.Background(), "0xbeef")
	assert.Equal(t, wrapErrors.TypeResolution, wrapErrors.CodeOf(err))
}

func TestDepositWithoutVault(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	assetID := f.ledger.Mint(nft("0xab", "a"))

	_, err := f.svc.Orchestrator.Deposit(context.Background(), assetID)
	assert.True(t, wrapErrors.Is(err, wrapErrors.VaultNotFound))
	assert.Equal(t, ownerAddr, f.ledger.Owner(assetID))
}

func TestWithdrawReturnsAssetToOwner(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	vaultID := f.ledger.AddVault(ownerAddr, 0, nft("0xc1", "a"), nft("0xc2", "b"))

	unconcealed, cancel := f.bus.Subscribe(events.TopicUnconcealed)
	defer cancel()

	m, err := f.svc.Reveal(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, m.State)
	assert.Equal(t, ownerAddr, f.ledger.Owner("0xc2"))
	assert.Equal(t, []uint64{0}, f.ledger.Indices(vaultID))

	tx := f.ledger.Submitted()[0]
	require.Len(t, tx.Commands, 2)
	assert.Equal(t, "unhide_nft", tx.Commands[0].MoveCall.Function)
	require.NotNil(t, tx.Commands[1].TransferObjects)

	evt := await(t, unconcealed)
	assert.Equal(t, uint64(1), evt.Index)

	hidden, err := f.svc.HiddenAssets(context.Background(), ownerAddr)
	require.NoError(t, err)
	assert.NotContains(t, hiddenIndices(hidden), uint64(1))
	assert.Equal(t, []string{"0xc1"}, hiddenIDs(hidden))
}

func TestWithdrawUnknownIndex(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	f.ledger.AddVault(ownerAddr, 0, nft("0xd1", "a"))

	_, err := f.svc.Reveal(context.Background(), 42)
	assert.True(t, wrapErrors.Is(err, wrapErrors.TypeResolution))
	assert.Empty(t, f.ledger.Submitted())
}

func TestDestroySendsToBurnAddress(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	assetID := f.ledger.Mint(nft("0xe1", "a"))

	destroyed, cancel := f.bus.Subscribe(events.TopicDestroyed)
	defer cancel()

	m, err := f.svc.Burn(context.Background(), assetID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateConfirmed, m.State)
	assert.Equal(t, burnAddr, f.ledger.Owner(assetID))
	assert.Equal(t, assetID, await(t, destroyed).AssetID)
}

func TestFailedSubmissionIsNotRetried(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	vaultID := f.ledger.AddVault(ownerAddr, 0)
	assetID := f.ledger.Mint(nft("0xf1", "a"))
	f.ledger.FailSubmit(errors.New("connection reset"))

	m, err := f.svc.Orchestrator.Deposit(context.Background(), assetID)
	assert.True(t, wrapErrors.Is(err, wrapErrors.LedgerUnavailable))
	assert.Equal(t, entity.StateFailed, m.State)
	assert.Equal(t, 1, f.ledger.Calls("SubmitTransaction"))
	assert.Empty(t, f.ledger.Indices(vaultID))
	assert.Equal(t, ownerAddr, f.ledger.Owner(assetID))
}

func TestLedgerRejectionSurfacesAsLedgerUnavailable(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	f.ledger.AddVault(ownerAddr, 0)
	foreign := f.ledger.Mint(chaintest.Object{ID: "0xf2", Type: nftType, Owner: otherAddr})

	m, err := f.svc.Orchestrator.Deposit(context.Background(), foreign)
	assert.True(t, wrapErrors.Is(err, wrapErrors.LedgerUnavailable))
	assert.Equal(t, entity.StateFailed, m.State)
	assert.NotEmpty(t, m.Digest)
	assert.Equal(t, otherAddr, f.ledger.Owner(foreign))
}

func TestCreateVaultOncePerOwner(t *testing.T) {
	f := newFixture(t, account(ownerAddr))

	m, err := f.svc.CreateVault(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, m.VaultID)
	assert.Equal(t, []string{m.VaultID}, m.Created)

	_, err = f.svc.CreateVault(context.Background())
	assert.True(t, wrapErrors.Is(err, wrapErrors.InvalidArgument))
}

func TestMutationsOfOneOwnerAreSerialised(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	f.ledger.AddVault(ownerAddr, 0)
	assetID := f.ledger.Mint(nft("0x1a", "a"))

	gate := f.svc.Orchestrator.gate(ownerAddr)
	require.NoError(t, gate.Acquire(context.Background(), 1))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Orchestrator.Deposit(context.Background(), assetID)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.ledger.Calls("SubmitTransaction"))

	gate.Release(1)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("deposit did not resume")
	}
	assert.Equal(t, 1, f.ledger.Calls("SubmitTransaction"))
}

func TestConfirmedMutationInvalidatesListings(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	f.ledger.AddVault(ownerAddr, 0)
	assetID := f.ledger.Mint(nft("0x2b", "a"))
	ctx := context.Background()

	wallet, err := f.svc.WalletAssets(ctx, ownerAddr)
	require.NoError(t, err)
	require.Len(t, wallet, 1)
	_, err = f.svc.WalletAssets(ctx, ownerAddr)
	require.NoError(t, err)
	scans := f.ledger.Calls("GetOwnedObjects")

	_, err = f.svc.Orchestrator.Deposit(ctx, assetID)
	require.NoError(t, err)

	wallet, err = f.svc.WalletAssets(ctx, ownerAddr)
	require.NoError(t, err)
	assert.Empty(t, wallet)
	assert.Greater(t, f.ledger.Calls("GetOwnedObjects"), scans+1)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t, account(ownerAddr))
	notes, cancel := f.bus.Subscribe(events.TopicNotification)
	defer cancel()

	_, err := f.svc.Burn(context.Background(), f.ledger.Mint(nft("0x3c", "a")))
	require.NoError(t, err)
	evt := await(t, notes)
	assert.Equal(t, "NFT burned successfully!", evt.Message)
	assert.False(t, evt.Failed)

	_, err = f.svc.Orchestrator.Deposit(context.Background(), "0x3d")
	require.Error(t, err)
	evt = await(t, notes)
	assert.Equal(t, "Failed to hide NFT. Please try again.", evt.Message)
	assert.True(t, evt.Failed)

	assert.Equal(t, "Please connect your wallet first.",
		FailureMessage(entity.IntentWithdraw, wrapErrors.New(wrapErrors.NotConnected, "owner", "x")))
}
