package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.SessionServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token to every call. When the
// server reports the token as expired it rotates the pair once and retries.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if method == pb.SessionService_RefreshToken_FullMethodName {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	tokens := s.Tokens()
	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	if rerr := s.rotate(ctx, tokens.RefreshToken); rerr != nil {
		return rerr
	}

	return invoker(withAccessToken(ctx, s.Tokens().AccessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) rotate(ctx context.Context, refreshToken string) error {
	resp, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	s.SetTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return nil
}

// NewGRPCClient dials endpointURL lazily. Extra dial options are appended
// after the defaults, which is how tests plug in an in-memory listener.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewSessionServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

func (s *GRPCClient) SetTokens(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = t.AccessToken
	s.refreshToken = t.RefreshToken
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &pb.RegisterRequest{
		Username:        in.Username,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})

	account := &Account{ID: resp.GetId(), Username: resp.GetUsername(), Email: resp.GetEmail()}
	if resp.GetCreatedAt() != nil {
		account.CreatedAt = resp.GetCreatedAt().AsTime()
	}
	return account, nil
}

func (s *GRPCClient) Login(ctx context.Context, login, password string) (*Account, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &pb.LoginRequest{Username: login, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})

	return &Account{ID: resp.GetId(), Username: resp.GetUsername(), Email: resp.GetEmail(), Role: resp.GetRole()}, nil
}

// Refresh rotates the held token pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	rt := s.Tokens().RefreshToken
	if rt == "" {
		return ErrNotSignedIn
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.rotate(ctx, rt); err != nil {
		return s.mapError(err)
	}
	return nil
}

// Logout ends the server-side session and forgets the local tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	rt := s.Tokens().RefreshToken
	if rt == "" {
		return ErrNotSignedIn
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.client.Logout(ctx, &pb.LogoutRequest{RefreshToken: rt}); err != nil {
		return s.mapError(err)
	}

	s.SetTokens(Tokens{})
	return nil
}

func (s *GRPCClient) DeleteUser(ctx context.Context, id string) error {
	if s.Tokens().AccessToken == "" {
		return ErrNotSignedIn
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.DeleteUser(ctx, &pb.DeleteUserRequest{Id: id})
	if err != nil {
		return s.mapError(err)
	}
	if !resp.Success {
		return fmt.Errorf("delete user %s: not confirmed", id)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.InvalidArgument:
		if v := violations(st); v != nil {
			return v
		}
		return fmt.Errorf("invalid request: %s", st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func violations(st *status.Status) *ValidationError {
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		ve := &ValidationError{}
		for _, fv := range br.GetFieldViolations() {
			ve.Violations = append(ve.Violations, FieldViolation{Field: fv.GetField(), Description: fv.GetDescription()})
		}
		return ve
	}
	return nil
}
