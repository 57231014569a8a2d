package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDetectImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
		err  error
	}{
		{"png", pngHeader, "image/png", nil},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif", nil},
		{"text", []byte("hello world"), "", ErrNotImage},
		{"empty", nil, "", ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectImage(tt.data)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"profile_pictures/u1", "profile_pictures/u1", true},
		{"comunidades/u1_10", "comunidades/u1_10", true},
		{"a//b/", "a/b", true},
		{"", "", false},
		{"/etc/passwd", "", false},
		{"../x", "", false},
		{"a/../../x", "", false},
		{"a\\b", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cleanPath(tt.in)
			if tt.ok != (err == nil) {
				t.Fatalf("cleanPath(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("cleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFSRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	ref, err := s.Upload(ctx, "profile_pictures/u1", pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if ref.ContentType != "image/png" || ref.Size != len(pngHeader) {
		t.Errorf("ref = %+v", ref)
	}

	u, err := s.DownloadURL(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Fatalf("url = %q", u)
	}
	got, err := os.ReadFile(filepath.Join(root, "profile_pictures", "u1"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Error("stored bytes differ")
	}

	if _, err := s.Upload(ctx, "profile_pictures/u2", []byte("not an image")); !errors.Is(err, ErrNotImage) {
		t.Errorf("text upload: %v", err)
	}
	if _, err := s.DownloadURL(ctx, Ref{Path: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

type fakePut struct {
	key  string
	body []byte
	ct   string
}

func (f *fakePut) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.key = *in.Key
	f.ct = *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

type fakePresign struct{}

func (fakePresign) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	return &PresignedRequest{URL: "https://s3.test/" + *in.Bucket + "/" + *in.Key + "?X-Amz-Signature=x"}, nil
}

func TestS3UploadAndURL(t *testing.T) {
	put := &fakePut{}
	s := &S3{client: put, presign: fakePresign{}, opts: S3Options{Bucket: "hype"}}
	ctx := context.Background()

	ref, err := s.Upload(ctx, "comunidades/u1_5", pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if put.key != "comunidades/u1_5" || put.ct != "image/png" || !bytes.Equal(put.body, pngHeader) {
		t.Errorf("put = %+v", put)
	}

	u, err := s.DownloadURL(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://s3.test/hype/comunidades/u1_5?X-Amz-Signature=x" {
		t.Errorf("presigned = %q", u)
	}

	s.opts.PublicBaseURL = "https://cdn.test/media/"
	u, err = s.DownloadURL(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://cdn.test/media/comunidades/u1_5" {
		t.Errorf("public = %q", u)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, BackendFS, t.TempDir(), S3Options{}); err != nil {
		t.Errorf("fs: %v", err)
	}
	if _, err := Open(ctx, BackendS3, "", S3Options{}); err == nil {
		t.Error("s3 without bucket should fail")
	}
	if _, err := Open(ctx, "ftp", "", S3Options{}); err == nil {
		t.Error("unknown backend should fail")
	}
}
