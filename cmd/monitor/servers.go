package main

import (
	"fmt"
	"net"

	"casino-monitor/src/config"
	pb "casino-monitor/src/grpc_control"
	"casino-monitor/src/logger"
	"casino-monitor/src/network"
	"casino-monitor/src/server"
	"casino-monitor/src/stream"

	"google.golang.org/grpc"
)

type runningServers struct {
	dashboard *server.DashboardServer
	grpc      *grpc.Server
	control   *pb.ControlService
}

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components
func startServers(
	config *config.Config,
	configPath string,
	manager *stream.Manager,
	backend *network.BackendClient,
	appLogger *logger.Logger,
) *runningServers {
	rs := &runningServers{}

	// 1. Dashboard (REST + WebSocket hub)
	rs.dashboard = server.NewDashboardServer(config.MConfig, manager, backend, logger.NewLogger(config, "Dashboard"))
	manager.SetExchanger(rs.dashboard)
	go func() {
		if err := rs.dashboard.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	if config.GrpcPort == 0 {
		return rs
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", config.GrpcHost, config.GrpcPort))
	if err != nil {
		appLogger.Critical("failed to listen for gRPC: %v", err)
		return rs
	}
	rs.grpc = grpc.NewServer()
	rs.control = pb.NewControlService(config, manager, configPath, logger.NewLogger(config, "ControlService"))
	pb.RegisterMonitorControlServer(rs.grpc, rs.control)

	go func() {
		appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
		if err := rs.grpc.Serve(lis); err != nil {
			appLogger.Critical("failed to serve gRPC: %v", err)
		}
	}()
	return rs
}

// -----------------------------------------------------------------------------

func (rs *runningServers) stop() {
	if rs.grpc != nil {
		rs.grpc.GracefulStop()
		rs.control.Shutdown()
	}
	rs.dashboard.Stop()
}
