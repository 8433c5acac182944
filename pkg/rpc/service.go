package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the RPC surface's fully-qualified service name, used in
// the hand-built ServiceDesc below and in each method's FullMethod.
const ServiceName = "dubhe.indexer.v1.Indexer"

// IndexerServer is the interface a concrete RPC Service implements; kept
// separate from Service so the generated-style plumbing below (ServiceDesc,
// handler funcs) only ever depends on this narrow contract, the same
// generated-stub/hand-written-impl split codegen would produce.
type IndexerServer interface {
	QueryTable(context.Context, *QueryRequest) (*QueryResponse, error)
	SubscribeTable(*SubscribeRequest, Indexer_SubscribeTableServer) error
}

// Indexer_SubscribeTableServer is the server-streaming handle SubscribeTable
// sends ChangeRecordMsgs over, mirroring the shape protoc-gen-go-grpc would
// emit for a `stream ChangeRecord` RPC.
type Indexer_SubscribeTableServer interface {
	Send(*ChangeRecordMsg) error
	grpc.ServerStream
}

type indexerSubscribeTableServer struct {
	grpc.ServerStream
}

func (x *indexerSubscribeTableServer) Send(m *ChangeRecordMsg) error {
	return x.ServerStream.SendMsg(m)
}

func _Indexer_QueryTable_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(QueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IndexerServer).QueryTable(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/QueryTable"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IndexerServer).QueryTable(ctx, req.(*QueryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Indexer_SubscribeTable_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(IndexerServer).SubscribeTable(m, &indexerSubscribeTableServer{ServerStream: stream})
}

// ServiceDesc is the hand-built stand-in for what protoc-gen-go-grpc would
// generate from an indexer.proto declaring QueryTable (unary) and
// SubscribeTable (server-streaming).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndexerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "QueryTable", Handler: _Indexer_QueryTable_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SubscribeTable", Handler: _Indexer_SubscribeTable_Handler, ServerStreams: true},
	},
	Metadata: "dubhe/indexer/v1/indexer.proto",
}

// RegisterIndexerServer registers srv on s, the same one-liner
// cuemby-warren/pkg/api/server.go's proto.RegisterWarrenAPIServer performs
// for the generated service.
func RegisterIndexerServer(s *grpc.Server, srv IndexerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
