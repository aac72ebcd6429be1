package chain

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument refers to a transaction input or to the result of an earlier command.
type Argument struct {
	Kind   ArgumentKind
	Index  uint16
	Nested uint16
}

// CallArg is a transaction input: an object by id, or pure BCS bytes.
type CallArg struct {
	ObjectID string
	Pure     []byte
}

func (c CallArg) IsObject() bool {
	return c.ObjectID != ""
}

type MoveCall struct {
	Package       string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []Argument
}

func (m *MoveCall) Target() string {
	return m.Package + "::" + m.Module + "::" + m.Function
}

type TransferObjects struct {
	Objects   []Argument
	Recipient Argument
}

// Command holds exactly one of its fields.
type Command struct {
	MoveCall        *MoveCall
	TransferObjects *TransferObjects
}

// Transaction is a programmable transaction before gas selection, encoding
// and signing. Builder methods record the first error, read it with Err.
type Transaction struct {
	Sender    string
	GasBudget uint64
	Inputs    []CallArg
	Commands  []Command

	err error
}

func NewTransaction(sender string) *Transaction {
	return &Transaction{Sender: sender, GasBudget: utils.DEFAULT_GAS_BUDGET}
}

func (tx *Transaction) Err() error {
	return tx.err
}

func (tx *Transaction) SetGasBudget(budget uint64) {
	tx.GasBudget = budget
}

// Object adds an object input, reusing the slot if id is already an input.
func (tx *Transaction) Object(id string) Argument {
	for i, in := range tx.Inputs {
		if in.IsObject() && in.ObjectID == id {
			return Argument{Kind: ArgInput, Index: uint16(i)}
		}
	}
	tx.Inputs = append(tx.Inputs, CallArg{ObjectID: id})
	return Argument{Kind: ArgInput, Index: uint16(len(tx.Inputs) - 1)}
}

func (tx *Transaction) PureU64(v uint64) Argument {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return tx.pure(b)
}

func (tx *Transaction) PureAddress(addr string) Argument {
	b, err := AddressBytes(addr)
	if err != nil {
		tx.setErr(err)
		b = make([]byte, AddressLength)
	}
	return tx.pure(b)
}

func (tx *Transaction) pure(b []byte) Argument {
	tx.Inputs = append(tx.Inputs, CallArg{Pure: b})
	return Argument{Kind: ArgInput, Index: uint16(len(tx.Inputs) - 1)}
}

// MoveCall appends a call to target ("package::module::function") and
// returns its result.
func (tx *Transaction) MoveCall(target string, typeArgs []string, args ...Argument) Argument {
	parts := strings.Split(target, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		tx.setErr(fmt.Errorf("invalid move call target %q", target))
		parts = []string{"0x0", "invalid", "invalid"}
	}
	tx.Commands = append(tx.Commands, Command{MoveCall: &MoveCall{
		Package:       parts[0],
		Module:        parts[1],
		Function:      parts[2],
		TypeArguments: typeArgs,
		Arguments:     args,
	}})
	return Argument{Kind: ArgResult, Index: uint16(len(tx.Commands) - 1)}
}

func (tx *Transaction) TransferObjects(objects []Argument, recipient Argument) {
	tx.Commands = append(tx.Commands, Command{TransferObjects: &TransferObjects{
		Objects:   objects,
		Recipient: recipient,
	}})
}

func (tx *Transaction) setErr(err error) {
	if tx.err == nil {
		tx.err = err
	}
}

// Input returns the input referenced by arg, or false if arg is not an input.
func (tx *Transaction) Input(arg Argument) (CallArg, bool) {
	if arg.Kind != ArgInput || int(arg.Index) >= len(tx.Inputs) {
		return CallArg{}, false
	}
	return tx.Inputs[arg.Index], true
}

// DecodeU64 reads a pure u64 input.
func DecodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("pure u64 must be 8 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}
