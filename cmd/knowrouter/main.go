package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/companionkit/knowrouter"
	"github.com/companionkit/knowrouter/common/logger"
	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to the engine configuration file (YAML)")
	metricsAddr := flag.String("metrics-addr", "", "listen address for prometheus metrics, e.g. :9090 (disabled when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Errorf("load config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	engine, err := knowrouter.NewEngine(cfg)
	if err != nil {
		logger.Errorf("start engine: %v", err)
		os.Exit(1)
	}
	defer engine.Close()

	if *configPath != "" {
		if err := engine.WatchConfig(*configPath); err != nil {
			logger.Warnf("config watch disabled: %v", err)
		}
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	if err := server.ServeStdio(knowrouter.NewServer(engine)); err != nil {
		logger.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.Collectors()...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Infof("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warnf("metrics server stopped: %v", err)
	}
}
