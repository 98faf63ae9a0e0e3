package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdhe/comparison-poster/pkg/resilience"
)

func newEnqueueCmd() *cobra.Command {
	var siteID int

	cmd := &cobra.Command{
		Use:   "enqueue [keyword-file]",
		Short: "Load keywords into a site's queue (defaults to the site's configured keyword file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			_, sites, store, err := buildStore(log)
			if err != nil {
				return err
			}

			var file string
			for _, site := range sites {
				if site.ID == siteID {
					file = site.KeywordFile
				}
			}
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return fmt.Errorf("site %d has no keyword file and none was given", siteID)
			}

			// Keyword files share the credential-file format: one entry per
			// line, '#' comments.
			keywords, err := resilience.LoadKeys(file)
			if err != nil {
				return err
			}
			added, err := store.Enqueue(siteID, keywords)
			if err != nil {
				return err
			}
			log.Infof("enqueued %d of %d keywords for site %d", added, len(keywords), siteID)
			return nil
		},
	}
	cmd.Flags().IntVar(&siteID, "site", 1, "target site id")
	return cmd
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the posting loop (takes effect before the next article)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			_, _, store, err := buildStore(log)
			if err != nil {
				return err
			}
			if err := store.SetPaused(true); err != nil {
				return err
			}
			log.Info("paused")
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused posting loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			_, _, store, err := buildStore(log)
			if err != nil {
				return err
			}
			if err := store.SetPaused(false); err != nil {
				return err
			}
			log.Info("resumed")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the paused flag, site pointer, and per-site queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			_, sites, store, err := buildStore(log)
			if err != nil {
				return err
			}

			paused, err := store.Paused()
			if err != nil {
				return err
			}
			cur, err := store.CurrentSite()
			if err != nil {
				return err
			}

			fmt.Printf("paused: %t\ncurrent site index: %d\n", paused, cur)
			for _, site := range sites {
				pending, posted, failed, err := store.Counts(site.ID)
				if err != nil {
					return err
				}
				fmt.Printf("[%d] %-24s pending=%d posted=%d failed=%d\n",
					site.ID, site.Name, pending, posted, failed)
			}
			return nil
		},
	}
}
