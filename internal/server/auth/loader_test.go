package auth

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type fakeGetter struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func testAccount() *models.Account {
	return &models.Account{ID: "acc-1", Email: "a@x.com", Username: "alice1", Role: common.RoleUser}
}

func TestKeyLoader_File(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(p, []byte("PEM"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	b, err := NewKeyLoader(nil).Load(context.Background(), p)
	if err != nil || string(b) != "PEM" {
		t.Fatalf("Load = %q, %v", b, err)
	}

	if _, err := NewKeyLoader(nil).Load(context.Background(), p+".missing"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestKeyLoader_Empty(t *testing.T) {
	t.Parallel()

	b, err := NewKeyLoader(nil).Load(context.Background(), "")
	if err != nil || b != nil {
		t.Fatalf("Load(\"\") = %q, %v", b, err)
	}
}

func TestKeyLoader_S3(t *testing.T) {
	t.Parallel()

	g := &fakeGetter{body: "S3PEM"}
	b, err := NewKeyLoader(g).Load(context.Background(), "s3://keys/prod/access.pem")
	if err != nil || string(b) != "S3PEM" {
		t.Fatalf("Load = %q, %v", b, err)
	}
	if g.bucket != "keys" || g.key != "prod/access.pem" {
		t.Fatalf("bucket/key = %q/%q", g.bucket, g.key)
	}
}

func TestKeyLoader_S3Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := NewKeyLoader(nil).Load(ctx, "s3://keys/a.pem"); err == nil {
		t.Fatalf("expected error without client")
	}
	if _, err := NewKeyLoader(&fakeGetter{}).Load(ctx, "s3://keys"); err == nil {
		t.Fatalf("expected error for location without key")
	}
	boom := errors.New("boom")
	if _, err := NewKeyLoader(&fakeGetter{err: boom}).Load(ctx, "s3://keys/a.pem"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestIsS3Location(t *testing.T) {
	t.Parallel()

	if !IsS3Location("s3://b/k") || IsS3Location("/etc/keys/k.pem") {
		t.Fatalf("IsS3Location misclassified")
	}
}
