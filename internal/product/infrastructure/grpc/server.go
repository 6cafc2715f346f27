package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
	"github.com/dmehra2102/shopnow/internal/product/infrastructure/grpc/catalogpb"
)

type Server struct {
	log     *slog.Logger
	service *application.Service
}

func NewServer(log *slog.Logger, service *application.Service) *Server {
	return &Server{log: log, service: service}
}

// Resolve answers NotFound for ids with no product, InvalidArgument for an
// empty id and Unavailable when the store cannot be read.
func (s *Server) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	raw := strings.TrimSpace(req.GetValue())
	if raw == "" {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	id, ok := domain.ParseID(raw)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "product %q not found", raw)
	}

	snap, err := s.service.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, application.ErrProductNotFound) {
			return nil, status.Errorf(codes.NotFound, "product %d not found", id)
		}
		s.log.ErrorContext(ctx, "catalog lookup failed", "product_id", id, "err", err)
		return nil, status.Error(codes.Unavailable, "catalog store unavailable")
	}

	out, err := catalogpb.Snapshot{
		ID:      strconv.FormatInt(snap.ID, 10),
		SKUCode: snap.SKUCode,
		Price:   snap.Price.String(),
		Name:    snap.Name,
	}.ToStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// NewGRPCServer builds a server with the lookup service registered and
// OpenTelemetry stats on every call.
func NewGRPCServer(srv *Server) *grpc.Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	catalogpb.RegisterCatalogLookupServer(gs, srv)
	return gs
}

// Run listens on addr and serves in the background. Stop it with GracefulStop.
func Run(log *slog.Logger, addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := NewGRPCServer(srv)
	go func() {
		log.Info("grpc listening", "addr", addr)
		if err := gs.Serve(lis); err != nil {
			log.Error("grpc server error", "err", err)
		}
	}()
	return gs, nil
}
