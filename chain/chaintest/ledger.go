// Package chaintest provides an in-memory ledger for tests. It executes the
// vault entry points and transfers carried by built transactions, and can
// serve reads from a lagging snapshot to mimic read replicas.
package chaintest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
)

// Object is a ledger object as set up by a test.
type Object struct {
	ID      string
	Type    string
	Owner   string
	Fields  map[string]any
	Display map[string]any
}

type state struct {
	objects  map[string]Object
	order    []string
	indices  map[string][]uint64
	children map[string]map[uint64]string
	next     map[string]uint64
}

func newState() *state {
	return &state{
		objects:  map[string]Object{},
		indices:  map[string][]uint64{},
		children: map[string]map[uint64]string{},
		next:     map[string]uint64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.objects {
		c.objects[k] = v
	}
	c.order = append([]string(nil), s.order...)
	for k, v := range s.indices {
		c.indices[k] = append([]uint64(nil), v...)
	}
	for k, v := range s.children {
		m := make(map[uint64]string, len(v))
		for i, id := range v {
			m[i] = id
		}
		c.children[k] = m
	}
	for k, v := range s.next {
		c.next[k] = v
	}
	return c
}

func (s *state) put(o Object) {
	if _, ok := s.objects[o.ID]; !ok {
		s.order = append(s.order, o.ID)
	}
	s.objects[o.ID] = o
}

type snapshot struct {
	at time.Time
	st *state
}

type txRecord struct {
	tx      *chain.Transaction
	err     error
	created []string
}

// Ledger implements chain.LedgerClient in memory. It is safe for
// concurrent use.
type Ledger struct {
	mu        sync.Mutex
	contract  config.ContractConfig
	latest    *state
	snapshots []snapshot
	lag       time.Duration
	seq       int
	txs       map[string]txRecord
	submitted []*chain.Transaction
	calls     map[string]int

	failObjects  map[string]error
	failChildren map[uint64]error
	failOwned    error
	failSubmit   error
	latency      map[string]time.Duration
	childLatency map[uint64]time.Duration
}

var _ chain.LedgerClient = (*Ledger)(nil)

func New(contract config.ContractConfig) *Ledger {
	l := &Ledger{
		contract:     contract,
		latest:       newState(),
		txs:          map[string]txRecord{},
		calls:        map[string]int{},
		failObjects:  map[string]error{},
		failChildren: map[uint64]error{},
		latency:      map[string]time.Duration{},
		childLatency: map[uint64]time.Duration{},
	}
	l.snapshots = []snapshot{{st: l.latest.clone()}}
	return l
}

// Contract returns a contract configuration usable with New.
func Contract() config.ContractConfig {
	return config.ContractConfig{
		PackageID:        "0x0000000000000000000000000000000000000000000000000000000000000abc",
		Module:           "vault",
		Struct:           "Vault",
		CreateFunction:   "create_vault_entry",
		DepositFunction:  "hide_nft",
		WithdrawFunction: "unhide_nft",
	}
}

// SetLag delays visibility of confirmed transactions to readers by d.
func (l *Ledger) SetLag(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lag = d
}

// Mint adds an object owned by o.Owner, visible immediately.
func (l *Ledger) Mint(o Object) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o.ID == "" {
		o.ID = l.newID()
	}
	o.Owner = norm(o.Owner)
	l.latest.put(o)
	l.publish(time.Time{})
	return o.ID
}

// AddVault creates a vault for owner with the given assets already
// deposited under consecutive indices starting at first.
func (l *Ledger) AddVault(owner string, first uint64, assets ...Object) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.newID()
	l.latest.put(Object{ID: id, Type: l.contract.VaultType(), Owner: norm(owner)})
	l.latest.children[id] = map[uint64]string{}
	l.latest.next[id] = first
	for _, a := range assets {
		if a.ID == "" {
			a.ID = l.newID()
		}
		a.Owner = "object:" + id
		l.latest.put(a)
		idx := l.latest.next[id]
		l.latest.next[id]++
		l.latest.children[id][idx] = a.ID
		l.latest.indices[id] = append(l.latest.indices[id], idx)
	}
	l.publish(time.Time{})
	return id
}

// SetIndices overwrites the index list of a vault without touching its
// children, to model dangling or reordered indices.
func (l *Ledger) SetIndices(vaultID string, indices ...uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest.indices[vaultID] = append([]uint64(nil), indices...)
	l.publish(time.Time{})
}

// PutChild stores childID under index of vaultID without touching indices.
func (l *Ledger) PutChild(vaultID string, index uint64, child Object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	child.Owner = "object:" + vaultID
	l.latest.put(child)
	if l.latest.children[vaultID] == nil {
		l.latest.children[vaultID] = map[uint64]string{}
	}
	l.latest.children[vaultID][index] = child.ID
	l.publish(time.Time{})
}

func (l *Ledger) FailObject(id string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failObjects[id] = err
}

func (l *Ledger) FailChild(index uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failChildren[index] = err
}

func (l *Ledger) FailOwned(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failOwned = err
}

func (l *Ledger) FailSubmit(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failSubmit = err
}

func (l *Ledger) SetLatency(id string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latency[id] = d
}

func (l *Ledger) SetChildLatency(index uint64, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.childLatency[index] = d
}

// Owner returns the current (not lagged) owner of id.
func (l *Ledger) Owner(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest.objects[id].Owner
}

// Indices returns the current (not lagged) index list of a vault.
func (l *Ledger) Indices(vaultID string) []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint64(nil), l.latest.indices[vaultID]...)
}

func (l *Ledger) Submitted() []*chain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*chain.Transaction(nil), l.submitted...)
}

// Calls counts invocations of a LedgerClient method by name.
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

func (l *Ledger) GetOwnedObjects(ctx context.Context, owner, structType string) ([]chain.ObjectData, error) {
	l.mu.Lock()
	l.calls["GetOwnedObjects"]++
	if l.failOwned != nil {
		err := l.failOwned
		l.mu.Unlock()
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getOwnedObjects", err)
	}
	st := l.visible()
	l.mu.Unlock()

	owner = norm(owner)
	var out []chain.ObjectData
	for _, id := range st.order {
		o := st.objects[id]
		if o.Owner != owner {
			continue
		}
		if structType != "" && o.Type != structType {
			continue
		}
		out = append(out, *l.render(st, o))
	}
	return out, nil
}

func (l *Ledger) GetObject(ctx context.Context, id string) (*chain.ObjectData, error) {
	l.mu.Lock()
	l.calls["GetObject"]++
	failErr, delay := l.failObjects[id], l.latency[id]
	l.mu.Unlock()

	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getObject", failErr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.visible()
	o, ok := st.objects[id]
	if !ok {
		return nil, nil
	}
	return l.render(st, o), nil
}

func (l *Ledger) GetDynamicChildReference(ctx context.Context, parentID string, key uint64) (*chain.ObjectData, error) {
	l.mu.Lock()
	l.calls["GetDynamicChildReference"]++
	failErr, delay := l.failChildren[key], l.childLatency[key]
	l.mu.Unlock()

	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getDynamicFieldObject", failErr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.visible()
	childID, ok := st.children[parentID][key]
	if !ok {
		return nil, nil
	}
	o := st.objects[childID]
	return &chain.ObjectData{ObjectID: o.ID, Version: "1", Type: o.Type}, nil
}

func (l *Ledger) SubmitTransaction(ctx context.Context, tx *chain.Transaction) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["SubmitTransaction"]++
	if l.failSubmit != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "executeTransactionBlock", l.failSubmit)
	}
	if err := tx.Err(); err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "encode transaction", err)
	}

	l.seq++
	digest := "tx" + strconv.Itoa(l.seq)
	l.submitted = append(l.submitted, tx)

	work := l.latest.clone()
	created, err := l.execute(work, tx)
	if err == nil {
		l.latest = work
		l.publish(time.Now())
	}
	l.txs[digest] = txRecord{tx: tx, err: err, created: created}
	return digest, nil
}

func (l *Ledger) AwaitConfirmation(ctx context.Context, digest string) (*chain.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls["AwaitConfirmation"]++
	rec, ok := l.txs[digest]
	if !ok {
		return nil, wrapErrors.New(wrapErrors.LedgerUnavailable, "await confirmation", "unknown digest "+digest)
	}
	if rec.err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "transaction "+digest, rec.err)
	}
	return &chain.Receipt{Digest: digest, Created: rec.created}, nil
}

func (l *Ledger) execute(st *state, tx *chain.Transaction) ([]string, error) {
	sender := norm(tx.Sender)
	results := make([][]string, len(tx.Commands))
	inTransit := map[string]bool{}
	var created []string

	objectArg := func(arg chain.Argument) (string, error) {
		switch arg.Kind {
		case chain.ArgInput:
			in, ok := tx.Input(arg)
			if !ok || !in.IsObject() {
				return "", fmt.Errorf("argument %d is not an object input", arg.Index)
			}
			o, ok := st.objects[in.ObjectID]
			if !ok {
				return "", fmt.Errorf("object %s not found", in.ObjectID)
			}
			if o.Owner != sender {
				return "", fmt.Errorf("object %s is not owned by %s", in.ObjectID, tx.Sender)
			}
			return in.ObjectID, nil
		case chain.ArgResult:
			if int(arg.Index) >= len(results) || len(results[arg.Index]) != 1 {
				return "", fmt.Errorf("result %d has no single object", arg.Index)
			}
			return results[arg.Index][0], nil
		default:
			return "", fmt.Errorf("unsupported argument kind %d", arg.Kind)
		}
	}
	pureArg := func(arg chain.Argument) ([]byte, error) {
		in, ok := tx.Input(arg)
		if !ok || in.IsObject() {
			return nil, fmt.Errorf("argument %d is not a pure input", arg.Index)
		}
		return in.Pure, nil
	}

	for i, cmd := range tx.Commands {
		switch {
		case cmd.MoveCall != nil:
			mc := cmd.MoveCall
			switch mc.Target() {
			case l.contract.Target(l.contract.CreateFunction):
				id := l.newID()
				st.put(Object{ID: id, Type: l.contract.VaultType(), Owner: sender})
				st.children[id] = map[uint64]string{}
				created = append(created, id)

			case l.contract.Target(l.contract.DepositFunction):
				if len(mc.Arguments) != 2 || len(mc.TypeArguments) != 1 {
					return nil, fmt.Errorf("%s: bad arity", mc.Function)
				}
				vaultID, err := objectArg(mc.Arguments[0])
				if err != nil {
					return nil, err
				}
				assetID, err := objectArg(mc.Arguments[1])
				if err != nil {
					return nil, err
				}
				asset := st.objects[assetID]
				if asset.Type != mc.TypeArguments[0] {
					return nil, fmt.Errorf("type argument %s does not match %s", mc.TypeArguments[0], asset.Type)
				}
				idx := st.next[vaultID]
				st.next[vaultID]++
				if st.children[vaultID] == nil {
					st.children[vaultID] = map[uint64]string{}
				}
				st.children[vaultID][idx] = assetID
				st.indices[vaultID] = append(st.indices[vaultID], idx)
				asset.Owner = "object:" + vaultID
				st.objects[assetID] = asset

			case l.contract.Target(l.contract.WithdrawFunction):
				if len(mc.Arguments) != 2 || len(mc.TypeArguments) != 1 {
					return nil, fmt.Errorf("%s: bad arity", mc.Function)
				}
				vaultID, err := objectArg(mc.Arguments[0])
				if err != nil {
					return nil, err
				}
				raw, err := pureArg(mc.Arguments[1])
				if err != nil {
					return nil, err
				}
				idx, err := chain.DecodeU64(raw)
				if err != nil {
					return nil, err
				}
				childID, ok := st.children[vaultID][idx]
				if !ok {
					return nil, fmt.Errorf("vault %s has no index %d", vaultID, idx)
				}
				child := st.objects[childID]
				if child.Type != mc.TypeArguments[0] {
					return nil, fmt.Errorf("type argument %s does not match %s", mc.TypeArguments[0], child.Type)
				}
				delete(st.children[vaultID], idx)
				st.indices[vaultID] = without(st.indices[vaultID], idx)
				child.Owner = ""
				st.objects[childID] = child
				inTransit[childID] = true
				results[i] = []string{childID}

			default:
				return nil, fmt.Errorf("unknown move call %s", mc.Target())
			}

		case cmd.TransferObjects != nil:
			raw, err := pureArg(cmd.TransferObjects.Recipient)
			if err != nil {
				return nil, err
			}
			if len(raw) != chain.AddressLength {
				return nil, fmt.Errorf("recipient must be %d bytes", chain.AddressLength)
			}
			recipient := fmt.Sprintf("0x%x", raw)
			for _, arg := range cmd.TransferObjects.Objects {
				id, err := objectArg(arg)
				if err != nil {
					return nil, err
				}
				o := st.objects[id]
				o.Owner = recipient
				st.objects[id] = o
				delete(inTransit, id)
			}

		default:
			return nil, fmt.Errorf("empty command %d", i)
		}
	}

	if len(inTransit) > 0 {
		return nil, fmt.Errorf("unused value without drop")
	}
	return created, nil
}

// render reads only immutable snapshot state.
func (l *Ledger) render(st *state, o Object) *chain.ObjectData {
	data := &chain.ObjectData{
		ObjectID: o.ID,
		Version:  "1",
		Type:     o.Type,
		Owner:    &chain.ObjectOwner{AddressOwner: o.Owner},
		Content:  &chain.MoveContent{DataType: "moveObject", Type: o.Type, Fields: o.Fields},
	}
	if o.Type == l.contract.VaultType() {
		indices := make([]any, 0, len(st.indices[o.ID]))
		for _, idx := range st.indices[o.ID] {
			indices = append(indices, strconv.FormatUint(idx, 10))
		}
		data.Content.Fields = map[string]any{
			"id":      map[string]any{"id": o.ID},
			"indices": indices,
		}
	}
	if o.Display != nil {
		data.Display = &chain.Display{Data: o.Display}
	}
	return data
}

// visible must be called with l.mu held.
func (l *Ledger) visible() *state {
	cutoff := time.Now().Add(-l.lag)
	for i := len(l.snapshots) - 1; i >= 0; i-- {
		if !l.snapshots[i].at.After(cutoff) {
			return l.snapshots[i].st
		}
	}
	return l.snapshots[0].st
}

func (l *Ledger) publish(at time.Time) {
	l.snapshots = append(l.snapshots, snapshot{at: at, st: l.latest.clone()})
}

func (l *Ledger) newID() string {
	l.seq++
	return fmt.Sprintf("0x%064x", l.seq)
}

func norm(addr string) string {
	if n, err := chain.NormalizeAddress(addr); err == nil {
		return n
	}
	return addr
}

func without(s []uint64, v uint64) []uint64 {
	out := s[:0:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
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
