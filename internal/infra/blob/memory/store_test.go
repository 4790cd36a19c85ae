package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"anakcore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	info, err := s.Put(ctx, "anak/42/foto/a.jpg", strings.NewReader("img"), core.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ContentType != "image/jpeg" {
		t.Fatalf("info: %+v", info)
	}
	got, rc, err := s.Get(ctx, "anak/42/foto/a.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "img" || got.Key != info.Key {
		t.Fatalf("round trip: %q %+v", data, got)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatalf("duplicate key must error")
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{})
	if ok, err := s.Delete(ctx, "k"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "k"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestListFiltersPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, key := range []string{"anak/1/foto/a", "anak/1/kartu_keluarga/b", "anak/2/foto/c"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "anak/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "anak/1/foto/a" {
		t.Fatalf("list: %v", infos)
	}
}

func TestPresignUnsupported(t *testing.T) {
	s := New()
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("presign: %v", err)
	}
}
