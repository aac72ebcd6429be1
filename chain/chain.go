package chain

import (
	"context"
	"encoding/json"
	"strconv"
)

// LedgerClient is the read/write surface of a ledger node the vault logic
// consumes. Absent objects are reported as (nil, nil), never as errors.
type LedgerClient interface {
	// GetOwnedObjects lists objects owned by owner. structType filters by
	// exact struct type when non-empty.
	GetOwnedObjects(ctx context.Context, owner, structType string) ([]ObjectData, error)
	GetObject(ctx context.Context, id string) (*ObjectData, error)
	// GetDynamicChildReference resolves the child stored under a u64 key.
	GetDynamicChildReference(ctx context.Context, parentID string, key uint64) (*ObjectData, error)
	SubmitTransaction(ctx context.Context, tx *Transaction) (string, error)
	AwaitConfirmation(ctx context.Context, digest string) (*Receipt, error)
}

// Account is the caller identity used as transaction sender.
type Account interface {
	Address() string
}

// Signer signs serialized transaction data on behalf of its account and
// returns the serialized signature the ledger expects.
type Signer interface {
	Account
	SignTransaction(txBytes []byte) (string, error)
}

// Receipt is what a confirmed transaction left behind.
type Receipt struct {
	Digest  string
	Created []string
}

type ObjectData struct {
	ObjectID string       `json:"objectId"`
	Version  string       `json:"version"`
	Digest   string       `json:"digest"`
	Type     string       `json:"type,omitempty"`
	Owner    *ObjectOwner `json:"owner,omitempty"`
	Content  *MoveContent `json:"content,omitempty"`
	Display  *Display     `json:"display,omitempty"`
}

// Fields returns the move struct fields, or nil when content was not loaded.
func (o *ObjectData) Fields() map[string]any {
	if o == nil || o.Content == nil {
		return nil
	}
	return o.Content.Fields
}

// DisplayData returns the rendered display metadata, or nil.
func (o *ObjectData) DisplayData() map[string]any {
	if o == nil || o.Display == nil {
		return nil
	}
	return o.Display.Data
}

type MoveContent struct {
	DataType string         `json:"dataType"`
	Type     string         `json:"type,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

type Display struct {
	Data  map[string]any `json:"data"`
	Error any            `json:"error,omitempty"`
}

// ObjectOwner mirrors the ledger's owner enum. Exactly one field is set.
type ObjectOwner struct {
	AddressOwner string
	ObjectOwner  string
	Shared       *SharedOwner
	Immutable    bool
}

type SharedOwner struct {
	InitialSharedVersion uint64
}

func (o *ObjectOwner) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Immutable = s == "Immutable"
		return nil
	}
	var raw struct {
		AddressOwner string `json:"AddressOwner"`
		ObjectOwner  string `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion json.Number `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o.AddressOwner = raw.AddressOwner
	o.ObjectOwner = raw.ObjectOwner
	if raw.Shared != nil {
		v, err := strconv.ParseUint(raw.Shared.InitialSharedVersion.String(), 10, 64)
		if err != nil {
			return err
		}
		o.Shared = &SharedOwner{InitialSharedVersion: v}
	}
	return nil
}

func (o ObjectOwner) MarshalJSON() ([]byte, error) {
	switch {
	case o.Immutable:
		return json.Marshal("Immutable")
	case o.Shared != nil:
		return json.Marshal(map[string]any{
			"Shared": map[string]uint64{"initial_shared_version": o.Shared.InitialSharedVersion},
		})
	case o.ObjectOwner != "":
		return json.Marshal(map[string]string{"ObjectOwner": o.ObjectOwner})
	default:
		return json.Marshal(map[string]string{"AddressOwner": o.AddressOwner})
	}
}
