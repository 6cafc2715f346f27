// Package catalog adapts the catalog service's lookup endpoints to the order
// service's CatalogClient port.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmehra2102/shopnow/internal/order/application"
	"github.com/dmehra2102/shopnow/internal/order/domain"
	"github.com/dmehra2102/shopnow/internal/product/infrastructure/grpc/catalogpb"
)

type GRPCClient struct {
	log  *slog.Logger
	conn *grpc.ClientConn
	cc   catalogpb.CatalogLookupClient
}

// NewGRPCClient connects lazily to addr. Extra dial options are appended
// after the defaults.
func NewGRPCClient(log *slog.Logger, addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{
		log:  log,
		conn: conn,
		cc:   catalogpb.NewCatalogLookupClient(conn),
	}, nil
}

func (c *GRPCClient) Close() error { return c.conn.Close() }

func (c *GRPCClient) Resolve(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	resp, err := c.cc.Resolve(ctx, wrapperspb.String(productID))
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound, codes.InvalidArgument:
			return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", application.ErrProductNotFound, productID)
		default:
			return domain.ProductSnapshot{}, fmt.Errorf("%w: %w", application.ErrCatalogUnavailable, err)
		}
	}
	snap, err := catalogpb.SnapshotFromStruct(resp)
	if err != nil {
		c.log.WarnContext(ctx, "malformed catalog snapshot", "product_id", productID, "err", err)
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %w", application.ErrCatalogUnavailable, err)
	}
	return toSnapshot(productID, snap.SKUCode, snap.Price)
}

func toSnapshot(productID, sku, price string) (domain.ProductSnapshot, error) {
	if sku == "" {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: product %s has no sku code", application.ErrCatalogUnavailable, productID)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("%w: product %s price %q: %w", application.ErrCatalogUnavailable, productID, price, err)
	}
	return domain.ProductSnapshot{ProductID: productID, SKUCode: sku, Price: p}, nil
}
