package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/chain/chaintest"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	"github.com/linlinbupt123-crypto/nft_vault/events"
)

const (
	ownerAddr = "0x0000000000000000000000000000000000000000000000000000000000000001"
	otherAddr = "0x0000000000000000000000000000000000000000000000000000000000000002"
	burnAddr  = "0x0000000000000000000000000000000000000000000000000000000000000000"
	nftType   = "0x9::art::NFT"
)

type account string

func (a account) Address() string { return string(a) }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Contract = chaintest.Contract()
	cfg.Reconcile.Delay = 30 * time.Millisecond
	cfg.Cache.TTL = time.Minute
	cfg.Resolver.Concurrency = 4
	return cfg
}

type fixture struct {
	ledger *chaintest.Ledger
	svc    *VaultService
	bus    *events.Bus
}

func newFixture(t *testing.T, acct chain.Account, opts ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	ledger := chaintest.New(cfg.Contract)
	bus := events.NewBus(16, nil)
	svc := NewVaultService(cfg, ledger, acct, bus, nil)
	t.Cleanup(svc.Close)
	return &fixture{ledger: ledger, svc: svc, bus: bus}
}

func nft(id, name string) chaintest.Object {
	return chaintest.Object{
		ID:      id,
		Type:    nftType,
		Owner:   ownerAddr,
		Display: map[string]any{"name": name, "image_url": "ipfs://" + name},
	}
}

func await(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return evt
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func hiddenIDs(records []entity.HiddenAssetRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func hiddenIndices(records []entity.HiddenAssetRecord) []uint64 {
	out := make([]uint64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ContainerIndex)
	}
	return out
}
