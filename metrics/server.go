package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vectaro/go-common/log"
	pos "github.com/vectaro/go-common/os"
)

// StartServer starts the metrics server
func StartServer(ctx context.Context, logger log.Logger) {
	http.Handle("/metrics", promhttp.Handler())

	// expose a /ready endpoint so we can standardize readiness checks & liveness checks
	http.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// clients are expected to implement custom /health checks based on a service's requirements

	server := &http.Server{
		Addr: ":" + pos.Getenv("VC_METRICS_PORT", "81"),
	}
	go func() {
		log.Debug(logger, "starting /metrics endpoint", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case <-ctx.Done():
			default:
				log.Fatal(logger, "error starting metrics server", "err", err)
			}
		}
	}()

	pprofPort := pos.Getenv("VC_PROFILE_PORT", "")
	if len(pprofPort) > 0 {
		log.Debug(logger, "pprof listening", "pprofPort", pprofPort)
		go func() {
			fmt.Println(http.ListenAndServe(":"+pprofPort, nil))
		}()
	}
}
