// internal/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"curation-service/internal/domain"
	"curation-service/internal/service"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server реализует AccountDirectoryServer поверх локального справочника.
type Server struct {
	directory service.AccountDirectory
	logger    *slog.Logger
}

// NewServer создает новый экземпляр gRPC сервера для AccountDirectory.
func NewServer(directory service.AccountDirectory, logger *slog.Logger) *Server {
	return &Server{directory: directory, logger: logger}
}

// profileToProto преобразует публичный профиль в protobuf Struct.
func profileToProto(p *domain.PublicProfile) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":          p.ID,
		"username":    p.Username,
		"memberSince": p.MemberSince.UTC().Format(time.RFC3339Nano),
	})
}

// GetAccount реализует gRPC метод GetAccount.
func (s *Server) GetAccount(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	accountID := strings.TrimSpace(req.GetValue())
	s.logger.DebugContext(ctx, "gRPC GetAccount called", slog.String("accountID", accountID))

	if accountID == "" {
		return nil, status.Error(codes.InvalidArgument, "account id cannot be empty")
	}

	profile, err := s.directory.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "Account not found by ID", slog.String("accountID", accountID))
			return nil, status.Errorf(codes.NotFound, "account not found with ID %s", accountID)
		}
		s.logger.ErrorContext(ctx, "Failed to get account from directory", slog.String("accountID", accountID), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to retrieve account details")
	}

	out, err := profileToProto(profile)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode account: %v", err)
	}
	return out, nil
}
