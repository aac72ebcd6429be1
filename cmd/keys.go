package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linlinbupt123-crypto/nft_vault/domain"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new mnemonic and print its Sui address",
	RunE: func(cmd *cobra.Command, args []string) error {
		kr := domain.NewKeyring()
		mnemonic, err := kr.NewMnemonic()
		if err != nil {
			return err
		}
		signer, err := kr.DeriveSigner(mnemonic, cfg.Signer.DerivationPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "mnemonic:", mnemonic)
		fmt.Fprintln(out, "address: ", signer.Address())
		return nil
	},
}

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt a mnemonic read from stdin with SIGNER_PASSPHRASE",
	RunE: func(cmd *cobra.Command, args []string) error {
		passphrase := os.Getenv("SIGNER_PASSPHRASE")
		if passphrase == "" {
			return wrapErrors.New(wrapErrors.InvalidArgument, "seal", "SIGNER_PASSPHRASE is not set")
		}
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "seal", err)
		}
		mnemonic := strings.Join(strings.Fields(line), " ")

		kr := domain.NewKeyring()
		sealed, err := kr.Seal(mnemonic, passphrase)
		if err != nil {
			return err
		}
		signer, err := kr.DeriveSigner(mnemonic, cfg.Signer.DerivationPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# address %s\n", signer.Address())
		fmt.Fprintln(out, "signer:")
		fmt.Fprintf(out, "  mnemonic_encrypted: %q\n", sealed.MnemonicEncrypted)
		fmt.Fprintf(out, "  salt_hex: %q\n", sealed.SaltHex)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd, sealCmd)
}
