package main

import (
	"context"
	"log"
	"time"

	"officesim/officerpc"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// minWatchInterval bounds how often a watcher may ask for updates
const minWatchInterval = 10 * time.Millisecond

// GRPCOfficeServer implements officerpc.OfficeServiceServer on top of a SimulationCore
type GRPCOfficeServer struct {
	core *SimulationCore
}

// NewGRPCOfficeServer creates the gRPC service for core
func NewGRPCOfficeServer(core *SimulationCore) *GRPCOfficeServer {
	return &GRPCOfficeServer{core: core}
}

// GetOfficeState implements the GetOfficeState RPC
func (s *GRPCOfficeServer) GetOfficeState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := officerpc.EncodeState(s.core.GetOfficeState())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode office state: %v", err)
	}
	return st, nil
}

// HealthCheck implements the HealthCheck RPC
func (s *GRPCOfficeServer) HealthCheck(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("healthy"), nil
}

// WatchOfficeState implements the WatchOfficeState RPC
func (s *GRPCOfficeServer) WatchOfficeState(req *durationpb.Duration, stream officerpc.OfficeService_WatchOfficeStateServer) error {
	if err := req.CheckValid(); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid interval: %v", err)
	}
	interval := req.AsDuration()
	if interval <= 0 {
		return status.Error(codes.InvalidArgument, "interval must be positive")
	}
	if interval < minWatchInterval {
		interval = minWatchInterval
	}

	log.Printf("Watcher connected, interval %v", interval)
	defer log.Println("Watcher disconnected")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := officerpc.EncodeState(s.core.GetOfficeState())
		if err != nil {
			return status.Errorf(codes.Internal, "encode office state: %v", err)
		}
		if err := stream.Send(st); err != nil {
			return err
		}

		select {
		case <-stream.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}
