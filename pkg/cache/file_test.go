package cache

import (
	"context"
	"reflect"
	"testing"

	"lyric-relay/internal/lyric"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	doc := &lyric.Document{
		SongID: "186016",
		Lines: []lyric.Line{
			{Index: 0, Text: "还没好好的感受", Norm: "还没好好的感受", TimeMs: 16210},
			{Index: 1, Text: "雪花绽放的气候", Norm: "雪花绽放的气候", TimeMs: 20500},
		},
	}

	ctx := context.Background()
	if err := store.Set(ctx, doc.SongID, doc); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, doc.SongID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, doc)
	}
}

func TestFileStoreMiss(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	got, err := store.Get(context.Background(), "never-stored")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on miss, got %+v", got)
	}
}

func TestFileStoreOverwriteIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	doc := &lyric.Document{SongID: "a/b:c", Lines: []lyric.Line{{Text: "x", Norm: "x"}}}
	ctx := context.Background()
	if err := store.Set(ctx, doc.SongID, doc); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := store.Set(ctx, doc.SongID, doc); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	got, err := store.Get(ctx, doc.SongID)
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v, doc=%v", err, got)
	}
}
