package utils

/*
Sui 的 secp256k1 派生路径: m / 54' / 784' / account' / change / address_index
	54'  secp256k1 方案的 purpose
	784' Sui 的 coin type
*/
const (
	SUI_SECP256K1_DERIVATION_PATH = "m/54'/784'/0'/0/0"

	SUI_COIN_TYPE = "0x2::sui::SUI"

	// 不可恢复地址, destroy 直接转给它
	BURN_ADDRESS = "0x0"

	DEFAULT_GAS_BUDGET uint64 = 10_000_000

	PLACEHOLDER_IMAGE = "/images/img.png"
)
