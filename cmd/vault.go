package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/linlinbupt123-crypto/nft_vault/chain"
	"github.com/linlinbupt123-crypto/nft_vault/config"
	"github.com/linlinbupt123-crypto/nft_vault/entity"
	wrapErrors "github.com/linlinbupt123-crypto/nft_vault/errors"
	"github.com/linlinbupt123-crypto/nft_vault/utils"
)

// gasBudgetSUI overrides gas_budget for one mutation, in SUI.
var gasBudgetSUI string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <owner>",
	Short: "Print the vault, wallet assets and hidden assets of an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := chain.NormalizeAddress(args[0])
		if err != nil {
			return wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "owner", err)
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.svc.Snapshot(cmd.Context(), owner)
		if err != nil {
			return err
		}
		if !snap.HasVault() {
			cmd.PrintErrln("owner", owner, "has no vault yet")
		}
		return printJSON(cmd, snap)
	},
}

var concealCmd = &cobra.Command{
	Use:   "conceal <asset-id>",
	Short: "Move an asset into the signer's vault, creating the vault if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app) (*entity.Mutation, error) {
			return a.svc.Conceal(cmd.Context(), args[0])
		})
	},
}

var revealCmd = &cobra.Command{
	Use:   "reveal <index>",
	Short: "Return the asset stored under index to the signer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "index", err)
		}
		return mutate(cmd, func(a *app) (*entity.Mutation, error) {
			return a.svc.Reveal(cmd.Context(), index)
		})
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn <asset-id>",
	Short: "Transfer an asset to the burn address, irreversibly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(a *app) (*entity.Mutation, error) {
			return a.svc.Burn(cmd.Context(), args[0])
		})
	},
}

func mutate(cmd *cobra.Command, run func(a *app) (*entity.Mutation, error)) error {
	if err := applyGasBudget(cfg, gasBudgetSUI); err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := run(a)
	if err != nil {
		return err
	}
	return printJSON(cmd, m)
}

func applyGasBudget(c *config.Config, sui string) error {
	if sui == "" {
		return nil
	}
	mist, err := utils.SUIToMist(sui)
	if err != nil {
		return wrapErrors.WrapWithCode(wrapErrors.InvalidArgument, "gas budget", err)
	}
	if mist.Sign() == 0 || !mist.IsUint64() {
		return wrapErrors.New(wrapErrors.InvalidArgument, "gas budget", "out of range: "+sui)
	}
	c.GasBudget = mist.Uint64()
	return nil
}

func init() {
	for _, c := range []*cobra.Command{concealCmd, revealCmd, burnCmd} {
		c.Flags().StringVar(&gasBudgetSUI, "gas-budget", "", "gas budget in SUI, e.g. 0.01 (default from config)")
	}
	rootCmd.AddCommand(snapshotCmd, concealCmd, revealCmd, burnCmd)
}
