package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lyric-relay/internal/lyric"
	"lyric-relay/internal/match"
	"lyric-relay/pkg/cache"
	"lyric-relay/pkg/music"
)

const mockLRC = `[00:16.21]还没好好的感受
[00:20.50]雪花绽放的气候
[00:24.13]我们一起颤抖
[00:28.85]会更明白什么是温柔
`

// mockProvider 模拟音乐提供商
type mockProvider struct {
	mu          sync.Mutex
	searchFail  bool
	noResults   bool
	lyricsFail  bool
	fetchCount  int
	searchCount int
}

func (m *mockProvider) SearchSongs(ctx context.Context, keyword string, limit int) ([]music.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCount++
	if m.searchFail {
		return nil, fmt.Errorf("search unavailable")
	}
	if m.noResults {
		return nil, nil
	}
	return []music.Candidate{{ID: "186016", Title: "晴天", Artist: "周杰伦"}}, nil
}

func (m *mockProvider) GetLyrics(ctx context.Context, songID string) (music.RawLyrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCount++
	if m.lyricsFail {
		return music.RawLyrics{}, fmt.Errorf("lyrics unavailable")
	}
	return music.RawLyrics{Text: mockLRC, Format: lyric.FormatLRC}, nil
}

func (m *mockProvider) GetProviderName() string { return "mock" }

func (m *mockProvider) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCount
}

// memStore 内存实现的文档存储
type memStore struct {
	mu   sync.Mutex
	docs map[string]*lyric.Document
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*lyric.Document)}
}

func (s *memStore) Get(_ context.Context, songID string) (*lyric.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[songID], nil
}

func (s *memStore) Set(_ context.Context, songID string, doc *lyric.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[songID] = doc
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) has(songID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[songID] != nil
}

var _ cache.Store = (*memStore)(nil)

func TestResolveSuccess(t *testing.T) {
	provider := &mockProvider{}
	store := newMemStore()
	r := NewResolver(provider, store, match.NewLocator(0), nil, 5)

	doc, res, err := r.Resolve(context.Background(), "还没好好的感受")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if doc.SongID != "186016" {
		t.Errorf("unexpected song id: %s", doc.SongID)
	}
	if res.Index != 0 || res.Confidence != 1.0 {
		t.Errorf("unexpected match result: %+v", res)
	}

	// 缓存写入是后台进行的
	deadline := time.Now().Add(time.Second)
	for !store.has("186016") {
		if time.Now().After(deadline) {
			t.Fatal("cache write never happened")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResolveUsesL1Cache(t *testing.T) {
	provider := &mockProvider{}
	r := NewResolver(provider, newMemStore(), match.NewLocator(0), nil, 5)
	ctx := context.Background()

	if _, _, err := r.Resolve(ctx, "还没好好的感受"); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	if _, _, err := r.Resolve(ctx, "雪花绽放的气候"); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if got := provider.fetches(); got != 1 {
		t.Errorf("expected 1 lyrics fetch, got %d", got)
	}
}

func TestResolveCacheHitSkipsProvider(t *testing.T) {
	provider := &mockProvider{lyricsFail: true}
	store := newMemStore()
	doc, err := lyric.Parse("186016", mockLRC, lyric.FormatLRC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	store.Set(context.Background(), "186016", doc)

	r := NewResolver(provider, store, match.NewLocator(0), nil, 5)
	got, _, err := r.Resolve(context.Background(), "我们一起颤抖")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.SongID != "186016" {
		t.Errorf("unexpected song: %s", got.SongID)
	}
	if provider.fetches() != 0 {
		t.Errorf("provider fetch should have been skipped, got %d", provider.fetches())
	}
}

func TestResolveLineNotFound(t *testing.T) {
	r := NewResolver(&mockProvider{}, newMemStore(), match.NewLocator(0), nil, 5)

	_, _, err := r.Resolve(context.Background(), "完全无关的一段随便什么输入文本")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	r := NewResolver(&mockProvider{noResults: true}, newMemStore(), match.NewLocator(0), nil, 5)

	_, _, err := r.Resolve(context.Background(), "还没好好的感受")
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestResolveProviderError(t *testing.T) {
	r := NewResolver(&mockProvider{searchFail: true}, newMemStore(), match.NewLocator(0), nil, 5)

	if _, _, err := r.Resolve(context.Background(), "还没好好的感受"); err == nil {
		t.Error("expected error when provider search fails")
	}
}

// fixedRefiner 返回固定歌名的refiner
type fixedRefiner struct{ title string }

func (f *fixedRefiner) Name() string                       { return "fixed" }
func (f *fixedRefiner) HandleText(string) (string, error) { return f.title, nil }

// flakySearchProvider 第一次搜索无结果，第二次成功
type flakySearchProvider struct {
	mockProvider
	called bool
}

func (p *flakySearchProvider) SearchSongs(ctx context.Context, keyword string, limit int) ([]music.Candidate, error) {
	if !p.called {
		p.called = true
		return nil, nil
	}
	return p.mockProvider.SearchSongs(ctx, keyword, limit)
}

func TestResolveRefinerSecondChance(t *testing.T) {
	provider := &flakySearchProvider{}
	r := NewResolver(provider, newMemStore(), match.NewLocator(0), &fixedRefiner{title: "晴天"}, 5)

	doc, _, err := r.Resolve(context.Background(), "还没好好的感受")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if doc.SongID != "186016" {
		t.Errorf("unexpected song: %s", doc.SongID)
	}
}
