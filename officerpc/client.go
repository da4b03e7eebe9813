package officerpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"officesim/shared"
)

// Client calls OfficeService over a gRPC connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetOfficeState fetches the current office state
func (c *Client) GetOfficeState(ctx context.Context, opts ...grpc.CallOption) (shared.OfficeState, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetOfficeStateMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return shared.OfficeState{}, err
	}
	return DecodeState(out)
}

// HealthCheck returns the server health status string
func (c *Client) HealthCheck(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, HealthCheckMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Watcher receives office states pushed by WatchOfficeState
type Watcher struct {
	stream grpc.ClientStream
}

// WatchOfficeState opens a stream delivering the office state every interval
func (c *Client) WatchOfficeState(ctx context.Context, interval time.Duration, opts ...grpc.CallOption) (*Watcher, error) {
	stream, err := c.cc.NewStream(ctx, &officeServiceDesc.Streams[0], WatchOfficeStateMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(durationpb.New(interval)); err != nil {
		return nil, fmt.Errorf("send watch request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close watch request: %w", err)
	}
	return &Watcher{stream: stream}, nil
}

// Recv blocks until the next state arrives
func (w *Watcher) Recv() (shared.OfficeState, error) {
	m := new(structpb.Struct)
	if err := w.stream.RecvMsg(m); err != nil {
		return shared.OfficeState{}, err
	}
	return DecodeState(m)
}
