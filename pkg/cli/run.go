package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drain the article queue, rotating across configured sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ctx := cmd.Context()

			a, err := buildApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusOK)
					fmt.Fprint(w, "ok")
				})
				srv := &http.Server{
					Addr:         a.cfg.MetricsAddr,
					Handler:      mux,
					ReadTimeout:  5 * time.Second,
					WriteTimeout: 10 * time.Second,
				}
				go func() {
					log.Infof("metrics listening on %s/metrics", a.cfg.MetricsAddr)
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Errorf("metrics server: %v", err)
					}
				}()
				defer srv.Close()
			}

			defer a.logStats()
			return a.pipe.Run(ctx)
		},
	}
}
