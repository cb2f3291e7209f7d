package launcher

import (
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// startMetricsServer serves the default Prometheus registry on /metrics.
func startMetricsServer(cfg MetricsConfig, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port)),
		Handler: mux,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}
