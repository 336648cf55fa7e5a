package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func mustClaims(t *testing.T) *auth.AccessClaims {
	t.Helper()
	c, err := fakeVerifier{}.ParseAccess("good")
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	return c
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func TestInterceptor_OpenMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer(&fakeSessions{})
	info := &grpc.UnaryServerInfo{FullMethod: pb.SessionService_Login_FullMethodName}

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil || !called || resp != "ok" {
		t.Fatalf("unexpected: resp=%v err=%v called=%v", resp, err, called)
	}
}

func TestInterceptor_Protected(t *testing.T) {
	s := newTestServer(&fakeSessions{})
	info := &grpc.UnaryServerInfo{FullMethod: pb.SessionService_DeleteUser_FullMethodName}

	tests := []struct {
		name    string
		ctx     context.Context
		code    codes.Code
		message string
	}{
		{"missing", context.Background(), codes.Unauthenticated, "missing token"},
		{"invalid", withToken("forged"), codes.Unauthenticated, "invalid token"},
		{"expired", withToken("old"), codes.Unauthenticated, "token expired"},
		{"valid", withToken("good"), codes.OK, ""},
	}

	for _, tt := range tests {
		var got *auth.AccessClaims
		h := func(ctx context.Context, req any) (any, error) {
			got, _ = claimsFromContext(ctx)
			return "ok", nil
		}

		_, err := s.accessTokenInterceptor(tt.ctx, nil, info, h)
		st := status.Convert(err)
		if st.Code() != tt.code || st.Message() != tt.message {
			t.Fatalf("%s: got %v %q", tt.name, st.Code(), st.Message())
		}
		if tt.code == codes.OK && (got == nil || got.Subject != "acc-1") {
			t.Fatalf("%s: claims not propagated: %+v", tt.name, got)
		}
	}
}

func TestLoggingInterceptor_RecoversPanic(t *testing.T) {
	s := newTestServer(&fakeSessions{})
	info := &grpc.UnaryServerInfo{FullMethod: pb.SessionService_Ping_FullMethodName}

	h := func(ctx context.Context, req any) (any, error) {
		panic("kaput")
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if resp != nil {
		t.Fatalf("expected nil resp, got %v", resp)
	}
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer(&fakeSessions{})
	info := &grpc.UnaryServerInfo{FullMethod: pb.SessionService_Ping_FullMethodName}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected: %v, %v", resp, err)
	}
}
