package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-survey-backend/internal/qr"
	"github.com/tbourn/go-survey-backend/internal/sysutil"
)

func (a *app) qrCmd() *cobra.Command {
	var (
		url      string
		out      string
		size     int
		terminal bool
	)
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Generate the QR code that links to the survey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := sysutil.FirstNonEmpty(url, a.cfg.Survey.PublicURL)
			if terminal {
				s, err := qr.Terminal(target)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), s)
				return err
			}
			if !cmd.Flags().Changed("size") {
				size = a.cfg.Survey.QRSize
			}
			if err := qr.WriteFile(target, size, out); err != nil {
				return err
			}
			log.Info().Str("url", target).Str("file", out).Int("size", qr.ClampSize(size)).Msg("qr code written")
			fmt.Fprintf(cmd.OutOrStdout(), "QR code for %s written to %s\n", target, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "survey URL (default SURVEY_URL)")
	cmd.Flags().StringVarP(&out, "out", "o", qr.Filename, "output PNG path")
	cmd.Flags().IntVar(&size, "size", qr.DefaultSize, "PNG edge length in pixels (default QR_SIZE)")
	cmd.Flags().BoolVar(&terminal, "terminal", false, "print the code to the terminal instead of a file")
	return cmd
}
