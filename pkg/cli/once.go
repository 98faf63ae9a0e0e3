package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOnceCmd() *cobra.Command {
	var siteID int

	cmd := &cobra.Command{
		Use:   "once <keyword>",
		Short: "Process a single keyword against one site, bypassing the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ctx := cmd.Context()

			a, err := buildApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.close()
			defer a.logStats()

			for _, site := range a.sites {
				if site.ID == siteID {
					created, err := a.pipe.ProcessKeyword(ctx, site, args[0])
					if err != nil {
						return err
					}
					log.Infof("posted %q: id=%d url=%s", args[0], created.ID, created.URL)
					return nil
				}
			}
			return fmt.Errorf("unknown site id %d", siteID)
		},
	}
	cmd.Flags().IntVar(&siteID, "site", 1, "target site id")
	return cmd
}
