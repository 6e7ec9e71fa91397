package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// manifest: fetch, transcode and print the MPD for a viewable id.
func manifestCmd() *cobra.Command {
	var (
		out     string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "manifest <viewable-id>",
		Short: "Fetch a manifest and print it as a DASH MPD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseViewable(args[0])
			if err != nil {
				return err
			}
			doc, mpd, err := wire.Playback.Manifest(cmd.Context(), id)
			if err != nil {
				return err
			}
			if summary {
				fmt.Printf("Duration: %s\nVideo: %d  Audio: %d  Text: %d\nLicense: %s\n",
					doc.Duration, len(doc.Video), len(doc.Audio), len(doc.Text), doc.LicenseURL)
				return nil
			}
			return writeOut(out, mpd)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the MPD to this file instead of stdout")
	cmd.Flags().BoolVar(&summary, "summary", false, "print track counts instead of the MPD")
	return cmd
}

func parseViewable(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid viewable id %q", s)
	}
	return id, nil
}

func writeOut(path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
