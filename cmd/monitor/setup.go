package main

import (
	"context"
	"time"

	"casino-monitor/src/auth"
	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
	"casino-monitor/src/network"
	"casino-monitor/src/normalizer"
	"casino-monitor/src/publisher"
	"casino-monitor/src/storage"
	"casino-monitor/src/stream"
	"casino-monitor/src/transport"
)

// -----------------------------------------------------------------------------

// setupProxies builds the proxy pool shared by the REST and feed clients
func setupProxies(config *models.MConfig, appLogger *logger.Logger) interfaces.IProxyManager {
	var list []string
	if config.Network.Enabled {
		list = config.Network.Proxies
	}
	return helpers.NewProxyManager(list, config.Network.UserAgent, appLogger.Named("ProxyManager"))
}

// -----------------------------------------------------------------------------

// setupBackend returns nil when no backend REST endpoint is configured
func setupBackend(config *models.MConfig, proxies interfaces.IProxyManager, appLogger *logger.Logger) *network.BackendClient {
	if config.API.BaseURL == "" {
		return nil
	}
	networkLogger := logger.NewLogger(config, "NetworkManager")
	nm := network.NewAsyncNetworkManager(config, proxies, networkLogger)
	return network.NewBackendClient(nm, networkLogger)
}

// -----------------------------------------------------------------------------

// setupAuth resolves the feed token from config or a backend login
func setupAuth(ctx context.Context, config *models.MConfig, backend *network.BackendClient, appLogger *logger.Logger) (*auth.TokenSource, error) {
	tokens := auth.NewTokenSource(config.Auth.Token)

	if backend != nil && config.Auth.Token == "" && config.Auth.Email != "" {
		session, err := backend.Login(ctx, config.Auth.Email, config.Auth.Password)
		if err != nil {
			return nil, err
		}
		tokens.Set(session.Token)
	} else if backend != nil && config.Auth.Token != "" {
		backend.SetToken(config.Auth.Token)
		if user, err := backend.Validate(ctx); err != nil {
			appLogger.Warning("Token validation failed: %v", err)
		} else {
			appLogger.Info("Token valid for %s", user.Email)
		}
	}

	if _, err := tokens.Token(); err != nil {
		return nil, err
	}
	if exp := tokens.ExpiresAt(); !exp.IsZero() {
		appLogger.Info("Token expires at %s", exp.Format(time.RFC3339))
	}
	return tokens, nil
}

// -----------------------------------------------------------------------------

// startBackendServices asks the backend to bring up the crash feeds
func startBackendServices(ctx context.Context, config *models.MConfig, backend *network.BackendClient, appLogger *logger.Logger) {
	if backend == nil || !config.API.StartServices {
		return
	}
	started := make(map[models.GameKind]bool)
	for _, s := range config.Subscriptions {
		game := models.GameKind(s.Game)
		if !game.IsCrash() || started[game] {
			continue
		}
		started[game] = true
		if err := backend.StartServices(ctx, string(game)); err != nil {
			appLogger.Warning("Failed to start %s services: %v", game, err)
			continue
		}
		if legs, err := backend.ConnectionsStatus(ctx, string(game)); err == nil {
			appLogger.Info("Backend reports %d %s connections", len(legs), game)
		}
	}
}

// -----------------------------------------------------------------------------

// setupArchive initializes the round archive; nil when storage is disabled
func setupArchive(config *models.MConfig, appLogger *logger.Logger) (interfaces.IHistoryArchive, error) {
	archive, err := storage.NewArchive(config, logger.NewLogger(config, "Archive"))
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	if archive == nil {
		return nil, nil
	}
	if err := archive.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return nil, err
	}
	return archive, nil
}

// -----------------------------------------------------------------------------

// setupPublisher connects the Redis stream publisher when enabled
func setupPublisher(ctx context.Context, config *models.MConfig, appLogger *logger.Logger) interfaces.IRoundPublisher {
	if !config.Redis.Enabled {
		return nil
	}
	pub, err := publisher.NewStreamPublisher(config.Redis)
	if err != nil {
		appLogger.Error("Redis publisher disabled: %v", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pub.Ping(pingCtx); err != nil {
		appLogger.Warning("Redis not reachable yet: %v", err)
	}
	return pub
}

// -----------------------------------------------------------------------------

// setupManager wires the normalizer registry and feed transports
func setupManager(config *models.MConfig, tokens interfaces.ICredentials, proxies interfaces.IProxyManager, appLogger *logger.Logger) *stream.Manager {
	registry := normalizer.NewRegistryFromGames(config.Games)
	appLogger.Info("Registered %d game adapters", registry.Count())

	factory := func(sub models.MSubscription, game models.MGameConfig) interfaces.ITransport {
		return transport.NewClient(config.Websocket, game.Namespace, tokens, proxies,
			logger.NewLogger(config, "Transport-"+sub.Key()))
	}
	return stream.NewManager(config, tokens, registry, factory, logger.NewLogger(config, "Manager"))
}

// -----------------------------------------------------------------------------

// openSubscriptions opens one handle per configured subscription
func openSubscriptions(ctx context.Context, config *models.MConfig, manager *stream.Manager, appLogger *logger.Logger) []*stream.Handle {
	var handles []*stream.Handle
	for _, s := range config.Subscriptions {
		sub := models.MSubscription{Game: models.GameKind(s.Game), BookmakerID: s.BookmakerID, SubKey: s.SubKey}
		h, err := manager.Open(ctx, sub)
		if err != nil {
			appLogger.Error("Failed to open %s: %v", sub.Key(), err)
			continue
		}
		handles = append(handles, h)
	}
	return handles
}
