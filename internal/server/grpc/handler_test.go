package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if st, _ := status.FromError(err); st.Code() != code {
		t.Fatalf("want %v, got %v (%v)", code, st.Code(), err)
	}
}

func TestRegister_OK(t *testing.T) {
	f := &fakeSessions{session: testSession()}
	s := newTestServer(f)

	resp, err := s.Register(context.Background(), &pb.RegisterRequest{
		Username: "alice1", Email: "a@x.com", Password: "longpassword1", ConfirmPassword: "longpassword1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &pb.RegisterResponse{
		Id: "acc-1", Email: "a@x.com", Username: "alice1",
		AccessToken: "at", RefreshToken: "rt", CreatedAt: timestamppb.New(testSession().CreatedAt),
	}
	if diff := cmp.Diff(want, resp, protocmp.Transform()); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	wantIn := services.RegisterInput{Username: "alice1", Email: "a@x.com", Password: "longpassword1", ConfirmPassword: "longpassword1"}
	if f.gotRegister != wantIn {
		t.Fatalf("service got %+v", f.gotRegister)
	}
}

func TestRegister_Error(t *testing.T) {
	s := newTestServer(&fakeSessions{err: common.ErrSigningUnavailable})
	_, err := s.Register(context.Background(), &pb.RegisterRequest{})
	wantCode(t, err, codes.Internal)
}

func TestLogin_OK(t *testing.T) {
	f := &fakeSessions{session: testSession()}
	s := newTestServer(f)

	resp, err := s.Login(context.Background(), &pb.LoginRequest{Username: "alice1", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &pb.LoginResponse{Id: "acc-1", Username: "alice1", Email: "a@x.com", Role: "USER", AccessToken: "at", RefreshToken: "rt"}
	if diff := cmp.Diff(want, resp, protocmp.Transform()); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if f.gotLogin.Login != "alice1" || f.gotLogin.Password != "pw" {
		t.Fatalf("service got %+v", f.gotLogin)
	}
}

func TestLogin_Unauthenticated(t *testing.T) {
	s := newTestServer(&fakeSessions{err: &services.StageError{Operation: "login", Err: common.ErrAuthenticationFailed}})
	_, err := s.Login(context.Background(), &pb.LoginRequest{})
	wantCode(t, err, codes.Unauthenticated)
	if status.Convert(err).Message() != "invalid username or password" {
		t.Fatalf("unexpected message: %q", status.Convert(err).Message())
	}
}

func TestRefreshToken(t *testing.T) {
	f := &fakeSessions{session: testSession()}
	s := newTestServer(f)

	resp, err := s.RefreshToken(context.Background(), &pb.RefreshTokenRequest{RefreshToken: "rt0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "at" || resp.RefreshToken != "rt" || f.gotToken != "rt0" {
		t.Fatalf("unexpected: %+v, token %q", resp, f.gotToken)
	}

	f.err = common.ErrTokenExpired
	_, err = s.RefreshToken(context.Background(), &pb.RefreshTokenRequest{})
	wantCode(t, err, codes.Unauthenticated)
}

func TestLogout(t *testing.T) {
	f := &fakeSessions{}
	s := newTestServer(f)

	if _, err := s.Logout(context.Background(), &pb.LogoutRequest{RefreshToken: "rt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.err = common.ErrSessionStoreUnavailable
	_, err := s.Logout(context.Background(), &pb.LogoutRequest{RefreshToken: "rt"})
	wantCode(t, err, codes.Unavailable)
}

func TestDeleteUser(t *testing.T) {
	f := &fakeSessions{}
	s := newTestServer(f)

	_, err := s.DeleteUser(context.Background(), &pb.DeleteUserRequest{Id: "acc-2"})
	wantCode(t, err, codes.Unauthenticated)

	ctx := context.WithValue(context.Background(), claimsKey, mustClaims(t))

	_, err = s.DeleteUser(ctx, &pb.DeleteUserRequest{})
	wantCode(t, err, codes.InvalidArgument)

	resp, err := s.DeleteUser(ctx, &pb.DeleteUserRequest{Id: "acc-2"})
	if err != nil || !resp.Success || f.gotDeleteID != "acc-2" {
		t.Fatalf("unexpected: %+v, %v, id %q", resp, err, f.gotDeleteID)
	}

	f.err = common.ErrNotFound
	_, err = s.DeleteUser(ctx, &pb.DeleteUserRequest{Id: "acc-3"})
	wantCode(t, err, codes.NotFound)
}

func TestPing(t *testing.T) {
	s := newTestServer(&fakeSessions{})
	resp, err := s.Ping(context.Background(), &pb.PingRequest{})
	if err != nil || resp.Status != "OK" {
		t.Fatalf("unexpected: %+v, %v", resp, err)
	}
}
