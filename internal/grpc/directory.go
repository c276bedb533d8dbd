// internal/grpc/directory.go
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Описание сервиса AccountDirectory. Сообщения - well-known типы protobuf:
// запрос StringValue с id аккаунта, ответ Struct с полями id, username,
// memberSince (RFC 3339).
const (
	AccountDirectoryServiceName = "curation.AccountDirectory"
	getAccountFullMethod        = "/curation.AccountDirectory/GetAccount"
)

// AccountDirectoryServer - серверная часть AccountDirectory.
type AccountDirectoryServer interface {
	GetAccount(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

func getAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccountDirectoryServer).GetAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getAccountFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccountDirectoryServer).GetAccount(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// AccountDirectoryServiceDesc - grpc.ServiceDesc для AccountDirectory.
var AccountDirectoryServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountDirectoryServiceName,
	HandlerType: (*AccountDirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAccount",
			Handler:    getAccountHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "curation/account_directory.proto",
}

// RegisterAccountDirectoryServer регистрирует реализацию на gRPC сервере.
func RegisterAccountDirectoryServer(s grpc.ServiceRegistrar, srv AccountDirectoryServer) {
	s.RegisterService(&AccountDirectoryServiceDesc, srv)
}
