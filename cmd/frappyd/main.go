// frappyd runs a SEC node from a YAML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SampleEnvironment/frappy/config"
	"github.com/SampleEnvironment/frappy/demo"
	"github.com/SampleEnvironment/frappy/logger"
	"github.com/SampleEnvironment/frappy/server"
)

func logLevel(name string) logger.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

func main() {
	configPath := flag.String("c", "node.yaml", "path to the node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "frappyd: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewSlog(logLevel(cfg.Logging.Level), false)

	srv := server.New(server.Options{
		EquipmentID: cfg.Node.EquipmentID,
		Description: cfg.Node.Description,
		Bind:        cfg.Interface.Bind,
		Port:        cfg.Interface.Port,
		WSPort:      cfg.Interface.WSPort,
		Discovery:   cfg.Interface.Discovery,
		Logger:      log,
	})

	for _, mc := range cfg.Modules {
		m, err := demo.Build(mc, log)
		if err != nil {
			log.Fatal("cannot build module", "module", mc.Name, "error", err)
		}
		if err := srv.AddModule(m); err != nil {
			log.Fatal("cannot register module", "module", mc.Name, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	log.Info("starting SEC node", "equipment_id", cfg.Node.EquipmentID, "config", *configPath)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server failed", "error", err)
	}
}
