package main

import "github.com/linlinbupt123-crypto/nft_vault/cmd"

func main() {
	cmd.Execute()
}
