package chain

import (
	"fmt"
	"strconv"
)

type ObjectRef struct {
	ObjectID string
	Version  uint64
	Digest   string
}

// ObjectInput is an object input resolved against current ledger state.
type ObjectInput struct {
	Ref                  ObjectRef
	Shared               bool
	InitialSharedVersion uint64
	Mutable              bool
}

type GasData struct {
	Payment []ObjectRef
	Owner   string
	Price   uint64
	Budget  uint64
}

// RefOf builds an ObjectRef from a fetched object.
func RefOf(o *ObjectData) (ObjectRef, error) {
	v, err := strconv.ParseUint(o.Version, 10, 64)
	if err != nil {
		return ObjectRef{}, fmt.Errorf("object %s version %q: %w", o.ObjectID, o.Version, err)
	}
	return ObjectRef{ObjectID: o.ObjectID, Version: v, Digest: o.Digest}, nil
}

// InputOf classifies a fetched object as owned or shared input.
func InputOf(o *ObjectData) (ObjectInput, error) {
	ref, err := RefOf(o)
	if err != nil {
		return ObjectInput{}, err
	}
	in := ObjectInput{Ref: ref}
	if o.Owner != nil && o.Owner.Shared != nil {
		in.Shared = true
		in.InitialSharedVersion = o.Owner.Shared.InitialSharedVersion
		in.Mutable = true
	}
	return in, nil
}

const (
	txDataV1            = 0
	txKindProgrammable  = 0
	callArgPure         = 0
	callArgObject       = 1
	objectArgImmOrOwned = 0
	objectArgShared     = 1
	commandMoveCall     = 0
	commandTransfer     = 1
	transactionNoExpiry = 0
)

// EncodeTransactionData serializes tx as TransactionData::V1. objects must
// hold a resolved entry for every object input of tx.
func EncodeTransactionData(tx *Transaction, objects map[string]ObjectInput, gas GasData) ([]byte, error) {
	if err := tx.Err(); err != nil {
		return nil, err
	}
	w := &bcsWriter{}
	w.uleb128(txDataV1)
	w.uleb128(txKindProgrammable)

	w.uleb128(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		if !in.IsObject() {
			w.uleb128(callArgPure)
			w.bytes(in.Pure)
			continue
		}
		obj, ok := objects[in.ObjectID]
		if !ok {
			return nil, fmt.Errorf("object input %s not resolved", in.ObjectID)
		}
		w.uleb128(callArgObject)
		if obj.Shared {
			w.uleb128(objectArgShared)
			w.address(obj.Ref.ObjectID)
			w.u64(obj.InitialSharedVersion)
			w.boolean(obj.Mutable)
			continue
		}
		w.uleb128(objectArgImmOrOwned)
		w.objectRef(obj.Ref)
	}

	w.uleb128(uint64(len(tx.Commands)))
	for _, cmd := range tx.Commands {
		switch {
		case cmd.MoveCall != nil:
			mc := cmd.MoveCall
			w.uleb128(commandMoveCall)
			w.address(mc.Package)
			w.str(mc.Module)
			w.str(mc.Function)
			w.uleb128(uint64(len(mc.TypeArguments)))
			for _, ta := range mc.TypeArguments {
				tag, err := ParseTypeTag(ta)
				if err != nil {
					return nil, err
				}
				w.typeTag(tag)
			}
			w.uleb128(uint64(len(mc.Arguments)))
			for _, a := range mc.Arguments {
				w.argument(a)
			}
		case cmd.TransferObjects != nil:
			w.uleb128(commandTransfer)
			w.uleb128(uint64(len(cmd.TransferObjects.Objects)))
			for _, a := range cmd.TransferObjects.Objects {
				w.argument(a)
			}
			w.argument(cmd.TransferObjects.Recipient)
		default:
			return nil, fmt.Errorf("empty command")
		}
	}

	w.address(tx.Sender)
	w.uleb128(uint64(len(gas.Payment)))
	for _, ref := range gas.Payment {
		w.objectRef(ref)
	}
	w.address(gas.Owner)
	w.u64(gas.Price)
	w.u64(gas.Budget)
	w.uleb128(transactionNoExpiry)

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
