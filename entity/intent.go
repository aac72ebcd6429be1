package entity

import "fmt"

type IntentKind string

const (
	IntentCreateVault IntentKind = "create_vault"
	IntentDeposit     IntentKind = "deposit"
	IntentWithdraw    IntentKind = "withdraw"
	IntentDestroy     IntentKind = "destroy"
)

// MutationIntent is an operation that has not been confirmed yet. Only the
// field matching Kind is meaningful.
type MutationIntent struct {
	Kind    IntentKind `json:"kind"`
	AssetID string     `json:"asset_id,omitempty"`
	Index   uint64     `json:"index,omitempty"`
}

func CreateVault() MutationIntent {
	return MutationIntent{Kind: IntentCreateVault}
}

func Deposit(assetID string) MutationIntent {
	return MutationIntent{Kind: IntentDeposit, AssetID: assetID}
}

func Withdraw(index uint64) MutationIntent {
	return MutationIntent{Kind: IntentWithdraw, Index: index}
}

func Destroy(assetID string) MutationIntent {
	return MutationIntent{Kind: IntentDestroy, AssetID: assetID}
}

func (m MutationIntent) String() string {
	switch m.Kind {
	case IntentDeposit, IntentDestroy:
		return fmt.Sprintf("%s(%s)", m.Kind, m.AssetID)
	case IntentWithdraw:
		return fmt.Sprintf("%s(%d)", m.Kind, m.Index)
	default:
		return string(m.Kind)
	}
}

type MutationState string

const (
	StateBuilt     MutationState = "built"
	StateSubmitted MutationState = "submitted"
	StateConfirmed MutationState = "confirmed"
	StateFailed    MutationState = "failed"
)

// Mutation tracks one intent through Built -> Submitted -> Confirmed, or Failed
// from any of those.
type Mutation struct {
	Intent  MutationIntent `json:"intent"`
	Owner   string         `json:"owner"`
	VaultID string         `json:"vault_id,omitempty"`
	State   MutationState  `json:"state"`
	Digest  string         `json:"digest,omitempty"`
	// Created lists object ids the confirmed transaction created.
	Created []string `json:"created,omitempty"`
	Err     error    `json:"-"`
}

func (m *Mutation) Advance(next MutationState) {
	if m.State == StateFailed || m.State == StateConfirmed {
		return
	}
	m.State = next
}

func (m *Mutation) Fail(err error) {
	if m.State == StateConfirmed {
		return
	}
	m.State = StateFailed
	m.Err = err
}
