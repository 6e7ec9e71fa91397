package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the stored session; the next request handshakes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Reset(); err != nil {
				return err
			}
			fmt.Println("Session discarded.")
			return nil
		},
	}
}
