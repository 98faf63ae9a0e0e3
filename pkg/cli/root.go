// Package cli wires the poster's cobra command tree.
package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

// ExecuteContext runs the CLI with the given signal-aware context.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poster",
		Short:         "Generates product-comparison articles and publishes them to configured sites",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCmd(),
		newOnceCmd(),
		newEnqueueCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newStatusCmd(),
	)
	return root
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
