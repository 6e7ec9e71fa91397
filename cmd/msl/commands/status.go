package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := wire.SessionStatus()
			if err != nil {
				return err
			}
			if !st.Present {
				fmt.Println("No session stored.")
				return nil
			}
			fmt.Printf("Sequence: %d\nRenewal due: %t\nUser token: %t\nCookies: %d\n",
				st.Sequence, st.RenewalDue, st.HasUserToken, st.Cookies)
			return nil
		},
	}
}
