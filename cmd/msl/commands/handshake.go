package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func handshakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handshake",
		Short: "Run a key exchange and persist the new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ForceHandshake(cmd.Context()); err != nil {
				return err
			}
			st, err := wire.SessionStatus()
			if err != nil {
				return err
			}
			fmt.Printf("Session established.\nSequence: %d\n", st.Sequence)
			return nil
		},
	}
}
