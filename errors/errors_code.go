package errors

type Code string

const (
	LedgerUnavailable       Code = "LEDGER_UNAVAILABLE"
	TypeResolution          Code = "TYPE_RESOLUTION_ERROR"
	NotConnected            Code = "NOT_CONNECTED"
	PerIndexResolutionFault Code = "PER_INDEX_RESOLUTION_FAULT"
	VaultNotFound           Code = "VAULT_NOT_FOUND"
	InvalidArgument         Code = "INVALID_ARGUMENT"
	SignerErr               Code = "SIGNER_ERROR"
	Unknown                 Code = "UNKNOWN"
)
