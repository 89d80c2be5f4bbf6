package receiver

import (
	"context"
	"fmt"
	"net"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/fidde/logring/internal/buffer"
)

// GRPCReceiver handles OTLP/gRPC log export requests.
type GRPCReceiver struct {
	collogspb.UnimplementedLogsServiceServer
	buf    *buffer.Buffer
	server *grpc.Server
	addr   string
}

// NewGRPCReceiver creates a gRPC receiver writing into buf.
func NewGRPCReceiver(addr string, buf *buffer.Buffer) *GRPCReceiver {
	return &GRPCReceiver{
		buf:  buf,
		addr: addr,
	}
}

// Start starts the gRPC server and blocks until it stops.
func (r *GRPCReceiver) Start() error {
	lis, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	r.server = grpc.NewServer()
	collogspb.RegisterLogsServiceServer(r.server, r)

	// Register reflection service for debugging with grpcurl
	reflection.Register(r.server)

	return r.server.Serve(lis)
}

// Shutdown gracefully shuts down the gRPC server.
func (r *GRPCReceiver) Shutdown(ctx context.Context) error {
	if r.server != nil {
		r.server.GracefulStop()
	}
	return nil
}

// Export implements the LogsService Export RPC.
func (r *GRPCReceiver) Export(ctx context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	ingestLogs(r.buf, req)

	return &collogspb.ExportLogsServiceResponse{
		PartialSuccess: &collogspb.ExportLogsPartialSuccess{
			RejectedLogRecords: 0,
		},
	}, nil
}
