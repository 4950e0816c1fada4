// Package resolve 实现无会话时的找歌流程：
// 用用户输入搜索歌曲、取并解析歌词（经缓存）、做初次定位。
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"lyric-relay/internal/lyric"
	"lyric-relay/internal/match"
	"lyric-relay/pkg/ai"
	"lyric-relay/pkg/cache"
	"lyric-relay/pkg/music"
)

var (
	// ErrNoCandidates 提供商没有返回任何候选歌曲
	ErrNoCandidates = errors.New("no song candidates for fragment")
	// ErrNotFound 找到了歌但定位不到对应的歌词行
	ErrNotFound = errors.New("no matching lyric line in resolved song")
)

const (
	l1Expiration = 30 * time.Minute
	l1Cleanup    = 10 * time.Minute

	cacheWriteTimeout = 5 * time.Second
)

var logger = log.With().Str("component", "resolver").Logger()

// Resolver 歌曲解析器
type Resolver struct {
	provider    music.MusicAPI
	store       cache.Store
	locator     *match.Locator
	refiner     ai.AiInterface // 可选：搜索失败时用LLM提炼歌名重试
	searchLimit int

	// 进程内一级缓存，挡住持久存储的反序列化
	l1 *gocache.Cache
	sf singleflight.Group
}

// NewResolver 创建解析器。store 和 refiner 允许为 nil。
func NewResolver(provider music.MusicAPI, store cache.Store, locator *match.Locator, refiner ai.AiInterface, searchLimit int) *Resolver {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Resolver{
		provider:    provider,
		store:       store,
		locator:     locator,
		refiner:     refiner,
		searchLimit: searchLimit,
		l1:          gocache.New(l1Expiration, l1Cleanup),
	}
}

// Resolve 按歌词片段解析歌曲并做初次定位。
// 只取搜索结果的第一个候选，不与用户协商歧义。
func (r *Resolver) Resolve(ctx context.Context, fragment string) (*lyric.Document, match.Result, error) {
	candidates, err := r.provider.SearchSongs(ctx, fragment, r.searchLimit)
	if err != nil || len(candidates) == 0 {
		candidates, err = r.searchRefined(ctx, fragment, err)
		if err != nil {
			return nil, match.Result{}, err
		}
	}

	top := candidates[0]
	logger.Info().
		Str("song_id", top.ID).
		Str("title", top.Title).
		Str("artist", top.Artist).
		Msg("Resolved top candidate")

	doc, err := r.document(ctx, top.ID)
	if err != nil {
		return nil, match.Result{}, err
	}

	res, ok := r.locator.Locate(doc, -1, fragment)
	if !ok {
		return nil, match.Result{}, fmt.Errorf("%w: song %s", ErrNotFound, top.ID)
	}
	return doc, res, nil
}

// searchRefined 搜索失败后的二次尝试：让LLM从歌词里提炼歌名再搜一次。
// 没有配置refiner时直接返回原始失败。
func (r *Resolver) searchRefined(ctx context.Context, fragment string, searchErr error) ([]music.Candidate, error) {
	fail := func() ([]music.Candidate, error) {
		if searchErr != nil {
			return nil, fmt.Errorf("provider search failed: %w", searchErr)
		}
		return nil, fmt.Errorf("%w: %q", ErrNoCandidates, fragment)
	}

	if r.refiner == nil {
		return fail()
	}

	title, err := r.refiner.HandleText(formatQueryTitle(fragment))
	if err != nil {
		logger.Warn().Err(err).Str("refiner", r.refiner.Name()).Msg("Query refiner failed")
		return fail()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fail()
	}
	logger.Info().Str("refiner", r.refiner.Name()).Str("title", title).Msg("Retrying search with refined title")

	candidates, err := r.provider.SearchSongs(ctx, title, r.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	if len(candidates) == 0 {
		return fail()
	}
	return candidates, nil
}

func formatQueryTitle(fragment string) string {
	return fmt.Sprintf(`下面是一句歌词，请推测它出自哪首歌，只返回最可能的歌曲名，不要任何解释、引号或标点。歌词是：%s`, fragment)
}

// document 获取并解析歌词文档：一级缓存 → 持久存储 → 提供商。
// 同一首歌的并发请求合并为一次抓取；缓存写入失败不影响本次解析。
func (r *Resolver) document(ctx context.Context, songID string) (*lyric.Document, error) {
	if v, ok := r.l1.Get(songID); ok {
		return v.(*lyric.Document), nil
	}

	v, err, _ := r.sf.Do(songID, func() (interface{}, error) {
		if r.store != nil {
			doc, err := r.store.Get(ctx, songID)
			if err != nil {
				logger.Warn().Err(err).Str("song_id", songID).Msg("Cache read failed")
			} else if doc != nil {
				logger.Debug().Str("song_id", songID).Msg("Cache HIT")
				return doc, nil
			}
		}
		logger.Debug().Str("song_id", songID).Msg("Cache MISS, fetching from provider")

		raw, err := r.provider.GetLyrics(ctx, songID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch lyrics for song %s: %w", songID, err)
		}

		doc, err := lyric.Parse(songID, raw.Text, raw.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to parse lyrics for song %s: %w", songID, err)
		}

		if r.store != nil {
			go r.writeCache(songID, doc)
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	doc := v.(*lyric.Document)
	r.l1.Set(songID, doc, gocache.DefaultExpiration)
	return doc, nil
}

func (r *Resolver) writeCache(songID string, doc *lyric.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	if err := r.store.Set(ctx, songID, doc); err != nil {
		logger.Error().Err(err).Str("song_id", songID).Msg("Failed to write lyrics cache")
	}
}
