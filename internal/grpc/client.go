// internal/grpc/client.go
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"curation-service/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DirectoryClient - AccountDirectory через gRPC. Реализует
// service.AccountDirectory.
type DirectoryClient struct {
	conn        *grpc.ClientConn
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewDirectoryClient создает клиента для addr. Соединение устанавливается
// лениво при первом вызове.
func NewDirectoryClient(addr string, callTimeout time.Duration, logger *slog.Logger, opts ...grpc.DialOption) (*DirectoryClient, error) {
	if callTimeout <= 0 {
		callTimeout = 2 * time.Second
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create account directory client for %s: %w", addr, err)
	}
	logger.Info("Account directory gRPC client created", slog.String("address", addr))
	return &DirectoryClient{conn: conn, callTimeout: callTimeout, logger: logger}, nil
}

// Close закрывает соединение.
func (c *DirectoryClient) Close() error {
	return c.conn.Close()
}

// GetAccount вызывает AccountDirectory/GetAccount.
func (c *DirectoryClient) GetAccount(ctx context.Context, accountID string) (*domain.PublicProfile, error) {
	if accountID == "" {
		return nil, domain.NewValidationError("id", "account id cannot be empty")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	out := new(structpb.Struct)
	err := c.conn.Invoke(callCtx, getAccountFullMethod, wrapperspb.String(accountID), out)
	if err != nil {
		st, _ := status.FromError(err)
		switch st.Code() {
		case codes.NotFound:
			return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
		case codes.InvalidArgument:
			return nil, domain.NewValidationError("id", st.Message())
		}
		c.logger.ErrorContext(ctx, "AccountDirectory.GetAccount gRPC call failed",
			slog.String("accountID", accountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("account directory call failed: %w", err)
	}

	fields := out.GetFields()
	profile := &domain.PublicProfile{
		ID:       fields["id"].GetStringValue(),
		Username: fields["username"].GetStringValue(),
	}
	if since := fields["memberSince"].GetStringValue(); since != "" {
		if t, err := time.Parse(time.RFC3339Nano, since); err == nil {
			profile.MemberSince = t
		}
	}
	return profile, nil
}
