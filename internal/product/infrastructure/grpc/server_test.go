package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmehra2102/shopnow/internal/product/application"
	"github.com/dmehra2102/shopnow/internal/product/domain"
	"github.com/dmehra2102/shopnow/internal/product/infrastructure/grpc/catalogpb"
)

type stubRepo struct {
	products map[int64]domain.Product
	err      error
}

func (r stubRepo) List(context.Context) ([]domain.Product, error) { return nil, nil }

func (r stubRepo) Get(_ context.Context, id int64) (domain.Product, error) {
	if r.err != nil {
		return domain.Product{}, r.err
	}
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, application.ErrProductNotFound
	}
	return p, nil
}

func (r stubRepo) Create(context.Context, domain.ProductInput) (domain.Product, error) {
	return domain.Product{}, errors.New("not supported")
}

func (r stubRepo) Update(context.Context, int64, domain.ProductInput) (domain.Product, error) {
	return domain.Product{}, errors.New("not supported")
}

func (r stubRepo) Delete(context.Context, int64) error { return errors.New("not supported") }

func dial(t *testing.T, repo application.ProductRepository) catalogpb.CatalogLookupClient {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(NewServer(log, application.NewService(repo)))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return catalogpb.NewCatalogLookupClient(conn)
}

func TestServer_Resolve(t *testing.T) {
	client := dial(t, stubRepo{products: map[int64]domain.Product{
		7: {ID: 7, Name: "Kettle", SKUCode: "KET-1", Price: decimal.RequireFromString("29.90"), StockQuantity: 3},
	}})

	resp, err := client.Resolve(context.Background(), wrapperspb.String("7"))
	require.NoError(t, err)
	snap, err := catalogpb.SnapshotFromStruct(resp)
	require.NoError(t, err)
	assert.Equal(t, catalogpb.Snapshot{ID: "7", SKUCode: "KET-1", Price: "29.9", Name: "Kettle"}, snap)
}

func TestServer_ResolveStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		repo stubRepo
		id   string
		code codes.Code
	}{
		{"unknown id", stubRepo{}, "99", codes.NotFound},
		{"non numeric id", stubRepo{}, "P-missing", codes.NotFound},
		{"empty id", stubRepo{}, "  ", codes.InvalidArgument},
		{"store down", stubRepo{err: errors.New("connection refused")}, "1", codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := dial(t, tt.repo)
			_, err := client.Resolve(context.Background(), wrapperspb.String(tt.id))
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}
