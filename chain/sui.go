package chain

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/config"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

// SuiClient talks JSON-RPC 2.0 to a full node. Writes need a Signer; a
// client without one is read-only.
type SuiClient struct {
	rpc          *rpc.Client
	signer       Signer
	pollInterval time.Duration
	pageSize     int
	log          *zap.Logger
}

var _ LedgerClient = (*SuiClient)(nil)

func NewSuiClient(ctx context.Context, cfg config.LedgerConfig, signer Signer, log *zap.Logger) (*SuiClient, error) {
	c, err := rpc.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "dial ledger", err)
	}
	return newSuiClient(c, cfg, signer, log), nil
}

func newSuiClient(c *rpc.Client, cfg config.LedgerConfig, signer Signer, log *zap.Logger) *SuiClient {
	poll := cfg.ConfirmPollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &SuiClient{
		rpc:          c,
		signer:       signer,
		pollInterval: poll,
		pageSize:     pageSize,
		log:          logger.OrNop(log).Named("sui"),
	}
}

func (c *SuiClient) Close() {
	c.rpc.Close()
}

type objectOptions struct {
	ShowType    bool `json:"showType"`
	ShowOwner   bool `json:"showOwner"`
	ShowContent bool `json:"showContent"`
	ShowDisplay bool `json:"showDisplay"`
}

var fullObject = objectOptions{ShowType: true, ShowOwner: true, ShowContent: true, ShowDisplay: true}

type objectResponse struct {
	Data  *ObjectData `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type ownedObjectsPage struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

func (c *SuiClient) GetOwnedObjects(ctx context.Context, owner, structType string) ([]ObjectData, error) {
	query := map[string]any{"options": fullObject}
	if structType != "" {
		query["filter"] = map[string]string{"StructType": structType}
	}

	var (
		out    []ObjectData
		cursor *string
	)
	for {
		var page ownedObjectsPage
		if err := c.rpc.CallContext(ctx, &page, "suix_getOwnedObjects", owner, query, cursor, c.pageSize); err != nil {
			return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getOwnedObjects", err)
		}
		for _, item := range page.Data {
			if item.Data != nil {
				out = append(out, *item.Data)
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

func (c *SuiClient) GetObject(ctx context.Context, id string) (*ObjectData, error) {
	var resp objectResponse
	if err := c.rpc.CallContext(ctx, &resp, "sui_getObject", id, fullObject); err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getObject", err)
	}
	if resp.Error != nil {
		c.log.Debug("object not available", zap.String("object_id", id), zap.String("code", resp.Error.Code))
		return nil, nil
	}
	return resp.Data, nil
}

func (c *SuiClient) GetDynamicChildReference(ctx context.Context, parentID string, key uint64) (*ObjectData, error) {
	name := map[string]string{"type": "u64", "value": strconv.FormatUint(key, 10)}
	var resp objectResponse
	if err := c.rpc.CallContext(ctx, &resp, "suix_getDynamicFieldObject", parentID, name); err != nil {
		return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getDynamicFieldObject", err)
	}
	if resp.Error != nil {
		return nil, nil
	}
	return resp.Data, nil
}

type coinPage struct {
	Data []struct {
		CoinObjectID string `json:"coinObjectId"`
		Version      string `json:"version"`
		Digest       string `json:"digest"`
		Balance      string `json:"balance"`
	} `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type executeOptions struct {
	ShowEffects bool `json:"showEffects"`
}

type transactionResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
		Created []struct {
			Reference struct {
				ObjectID string `json:"objectId"`
			} `json:"reference"`
		} `json:"created"`
	} `json:"effects"`
}

// SubmitTransaction resolves object inputs and gas, encodes, signs and
// executes tx. It returns once the node accepted the transaction.
func (c *SuiClient) SubmitTransaction(ctx context.Context, tx *Transaction) (string, error) {
	if c.signer == nil {
		return "", wrapErrors.New(wrapErrors.NotConnected, "submit", "no signer configured")
	}
	if tx.Sender == "" {
		tx.Sender = c.signer.Address()
	}

	objects := make(map[string]ObjectInput)
	for _, in := range tx.Inputs {
		if !in.IsObject() {
			continue
		}
		if _, ok := objects[in.ObjectID]; ok {
			continue
		}
		obj, err := c.GetObject(ctx, in.ObjectID)
		if err != nil {
			return "", err
		}
		if obj == nil {
			return "", wrapErrors.New(wrapErrors.LedgerUnavailable, "resolve input", "object "+in.ObjectID+" not found")
		}
		input, err := InputOf(obj)
		if err != nil {
			return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "resolve input", err)
		}
		objects[in.ObjectID] = input
	}

	gas, err := c.selectGas(ctx, tx, objects)
	if err != nil {
		return "", err
	}

	txBytes, err := EncodeTransactionData(tx, objects, gas)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "encode transaction", err)
	}
	sig, err := c.signer.SignTransaction(txBytes)
	if err != nil {
		return "", err
	}

	var resp transactionResponse
	err = c.rpc.CallContext(ctx, &resp, "sui_executeTransactionBlock",
		base64.StdEncoding.EncodeToString(txBytes),
		[]string{sig},
		executeOptions{ShowEffects: true},
		"WaitForEffectsCert",
	)
	if err != nil {
		return "", wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "executeTransactionBlock", err)
	}
	c.log.Info("transaction submitted", zap.String("digest", resp.Digest), zap.String("sender", tx.Sender))
	return resp.Digest, nil
}

func (c *SuiClient) selectGas(ctx context.Context, tx *Transaction, inputs map[string]ObjectInput) (GasData, error) {
	var priceStr string
	if err := c.rpc.CallContext(ctx, &priceStr, "suix_getReferenceGasPrice"); err != nil {
		return GasData{}, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getReferenceGasPrice", err)
	}
	price, err := strconv.ParseUint(priceStr, 10, 64)
	if err != nil {
		return GasData{}, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getReferenceGasPrice", err)
	}

	budget := new(big.Int).SetUint64(tx.GasBudget)
	var cursor *string
	for {
		var page coinPage
		if err := c.rpc.CallContext(ctx, &page, "suix_getCoins", tx.Sender, utils.SUI_COIN_TYPE, cursor, c.pageSize); err != nil {
			return GasData{}, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getCoins", err)
		}
		for _, coin := range page.Data {
			if _, used := inputs[coin.CoinObjectID]; used {
				continue
			}
			balance, ok := new(big.Int).SetString(coin.Balance, 10)
			if !ok || balance.Cmp(budget) < 0 {
				continue
			}
			ref, err := RefOf(&ObjectData{ObjectID: coin.CoinObjectID, Version: coin.Version, Digest: coin.Digest})
			if err != nil {
				return GasData{}, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getCoins", err)
			}
			c.log.Debug("gas coin selected",
				zap.String("coin", coin.CoinObjectID),
				zap.String("balance_sui", utils.MistToSUI(balance)),
				zap.Uint64("price", price),
			)
			return GasData{
				Payment: []ObjectRef{ref},
				Owner:   tx.Sender,
				Price:   price,
				Budget:  tx.GasBudget,
			}, nil
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return GasData{}, wrapErrors.New(wrapErrors.LedgerUnavailable, "select gas",
				fmt.Sprintf("no gas coin with balance >= %s SUI", utils.MistToSUI(budget)))
		}
		cursor = page.NextCursor
	}
}

// AwaitConfirmation polls until the transaction is indexed. There is no
// timeout besides ctx.
func (c *SuiClient) AwaitConfirmation(ctx context.Context, digest string) (*Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var resp transactionResponse
		err := c.rpc.CallContext(ctx, &resp, "sui_getTransactionBlock", digest, executeOptions{ShowEffects: true})
		if err == nil && resp.Effects != nil {
			if resp.Effects.Status.Status != "success" {
				return nil, wrapErrors.New(wrapErrors.LedgerUnavailable, "transaction "+digest, resp.Effects.Status.Error)
			}
			receipt := &Receipt{Digest: digest}
			for _, created := range resp.Effects.Created {
				receipt.Created = append(receipt.Created, created.Reference.ObjectID)
			}
			return receipt, nil
		}
		var rpcErr rpc.Error
		if err != nil && !stderrors.As(err, &rpcErr) {
			// transport failure, not "not indexed yet"
			return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "getTransactionBlock", err)
		}

		select {
		case <-ctx.Done():
			return nil, wrapErrors.WrapWithCode(wrapErrors.LedgerUnavailable, "await confirmation", ctx.Err())
		case <-ticker.C:
		}
	}
}
