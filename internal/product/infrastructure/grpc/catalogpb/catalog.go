// Package catalogpb defines the catalog lookup gRPC contract shared by the
// product service (server) and the order service (client).
//
// The service is described by hand on top of protobuf well-known types, so
// it needs no generated code:
//
//	service CatalogLookup {
//	  rpc Resolve(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	}
//
// The response struct carries id, sku_code, price (decimal string) and name.
package catalogpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName   = "shopnow.catalog.v1.CatalogLookup"
	ResolveMethod = "/" + ServiceName + "/Resolve"
)

const (
	fieldID      = "id"
	fieldSKUCode = "sku_code"
	fieldPrice   = "price"
	fieldName    = "name"
)

type Snapshot struct {
	ID      string
	SKUCode string
	Price   string
	Name    string
}

func (s Snapshot) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldID:      s.ID,
		fieldSKUCode: s.SKUCode,
		fieldPrice:   s.Price,
		fieldName:    s.Name,
	})
}

// SnapshotFromStruct reads a Resolve response. SKU and price are required.
func SnapshotFromStruct(st *structpb.Struct) (Snapshot, error) {
	f := st.GetFields()
	s := Snapshot{
		ID:      f[fieldID].GetStringValue(),
		SKUCode: f[fieldSKUCode].GetStringValue(),
		Price:   f[fieldPrice].GetStringValue(),
		Name:    f[fieldName].GetStringValue(),
	}
	if s.SKUCode == "" || s.Price == "" {
		return Snapshot{}, fmt.Errorf("catalogpb: incomplete snapshot %+v", s)
	}
	return s, nil
}

type CatalogLookupServer interface {
	Resolve(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterCatalogLookupServer(s grpc.ServiceRegistrar, srv CatalogLookupServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopnow/catalog/v1/catalog.proto",
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogLookupServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ResolveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogLookupServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type CatalogLookupClient interface {
	Resolve(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type catalogLookupClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogLookupClient(cc grpc.ClientConnInterface) CatalogLookupClient {
	return &catalogLookupClient{cc: cc}
}

func (c *catalogLookupClient) Resolve(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ResolveMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
