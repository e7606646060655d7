package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xxfu/bittensor/keypair"
)

func newKeygenCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 hotkey and print its SS58 address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := keypair.Generate()
			if err != nil {
				return err
			}
			if out != "" {
				if err := kp.Save(out); err != nil {
					return fmt.Errorf("save hotkey: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), kp.SS58Address())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write the hex seed to")
	return cmd
}
