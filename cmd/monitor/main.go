package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"casino-monitor/src/config"
	"casino-monitor/src/helpers"
	"casino-monitor/src/logger"
)

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf, conf.Name)
	appLogger.Info("Memory limit set to %d MB", helpers.ApplyMemoryLimit())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup Components
	proxies := setupProxies(conf.MConfig, appLogger)
	backend := setupBackend(conf.MConfig, proxies, appLogger)

	tokens, err := setupAuth(ctx, conf.MConfig, backend, appLogger)
	if err != nil {
		appLogger.Critical("Authentication failed: %v", err)
		os.Exit(1)
	}
	startBackendServices(ctx, conf.MConfig, backend, appLogger)

	archive, err := setupArchive(conf.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}
	publisher := setupPublisher(ctx, conf.MConfig, appLogger)

	manager := setupManager(conf.MConfig, tokens, proxies, appLogger)
	if archive != nil {
		manager.SetArchive(archive)
	}
	if publisher != nil {
		manager.SetPublisher(publisher)
	}

	// 5. Start Servers
	servers := startServers(conf, *configPath, manager, backend, appLogger)

	// 6. Open configured subscriptions
	handles := openSubscriptions(ctx, conf.MConfig, manager, appLogger)
	appLogger.Info("Monitoring %d subscriptions", len(handles))

	// 7. Run until signalled
	runLoop(ctx, conf.MConfig, archive, appLogger)

	// 8. Shutdown
	appLogger.Info("Shutting down...")
	servers.stop()
	for _, h := range handles {
		manager.Close(h)
	}
	manager.Shutdown()
	if publisher != nil {
		publisher.Close()
	}
	if archive != nil {
		archive.Close()
	}
	appLogger.Info("Shutdown complete.")
}
