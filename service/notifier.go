package service

import (
	"go.uber.org/zap"

	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/events"
	"github.com/linlinbupt123-crypto/nft_vault/logger"
)

// Notifier reports the outcome of a mutation to the user.
type Notifier interface {
	Success(op entity.IntentKind, message string)
	Failure(op entity.IntentKind, err error)
}

var successMessages = map[entity.IntentKind]string{
	entity.IntentCreateVault: "Vault created successfully!",
	entity.IntentDeposit:     "NFT hidden successfully!",
	entity.IntentWithdraw:    "NFT unhidden successfully!",
	entity.IntentDestroy:     "NFT burned successfully!",
}

var failureMessages = map[entity.IntentKind]string{
	entity.IntentCreateVault: "Failed to create vault. Please try again.",
	entity.IntentDeposit:     "Failed to hide NFT. Please try again.",
	entity.IntentWithdraw:    "Failed to unhide NFT. Please try again.",
	entity.IntentDestroy:     "Failed to burn NFT. Please try again.",
}

const notConnectedMessage = "Please connect your wallet first."

func SuccessMessage(op entity.IntentKind) string {
	return successMessages[op]
}

// FailureMessage is the user facing text for err.
func FailureMessage(op entity.IntentKind, err error) string {
	if wrapErrors.Is(err, wrapErrors.NotConnected) {
		return notConnectedMessage
	}
	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return "Transaction failed or was rejected."
}

// BusNotifier logs outcomes and publishes them on the notification topic.
type BusNotifier struct {
	bus *events.Bus
	log *zap.Logger
}

func NewBusNotifier(bus *events.Bus, log *zap.Logger) *BusNotifier {
	return &BusNotifier{bus: bus, log: logger.OrNop(log).Named("notify")}
}

func (n *BusNotifier) Success(op entity.IntentKind, message string) {
	n.log.Info(message, zap.String("op", string(op)))
	if n.bus != nil {
		n.bus.Publish(events.Event{Kind: events.TopicNotification, Message: message})
	}
}

func (n *BusNotifier) Failure(op entity.IntentKind, err error) {
	msg := FailureMessage(op, err)
	n.log.Error(msg,
		zap.String("op", string(op)),
		zap.String("code", string(wrapErrors.CodeOf(err))),
		zap.Error(err),
	)
	if n.bus != nil {
		n.bus.Publish(events.Event{Kind: events.TopicNotification, Message: msg, Failed: true})
	}
}
