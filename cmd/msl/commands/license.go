package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// license: the license link lives in the manifest, so the manifest is
// fetched first in the same process.
func licenseCmd() *cobra.Command {
	var (
		challengePath string
		sessionID     string
		out           string
	)
	cmd := &cobra.Command{
		Use:   "license <viewable-id>",
		Short: "Exchange a CDM challenge for a license",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseViewable(args[0])
			if err != nil {
				return err
			}
			challenge, err := readInput(challengePath)
			if err != nil {
				return fmt.Errorf("read challenge: %w", err)
			}
			if len(challenge) == 0 {
				return fmt.Errorf("empty challenge")
			}
			if _, _, err := wire.Playback.Manifest(cmd.Context(), id); err != nil {
				return err
			}
			license, err := wire.Playback.License(cmd.Context(), challenge, sessionID)
			if err != nil {
				return err
			}
			return writeOut(out, license)
		},
	}
	cmd.Flags().StringVar(&challengePath, "challenge", "-", "file holding the raw CDM challenge (- for stdin)")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "CDM session id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the license to this file instead of stdout")
	_ = cmd.MarkFlagRequired("session-id")
	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
