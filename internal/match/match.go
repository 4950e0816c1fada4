package match

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"lyric-relay/internal/lyric"
)

// DefaultThreshold 默认的匹配接受阈值
const DefaultThreshold = 0.75

// Strategy 定位策略（命中的搜索层级）
type Strategy string

const (
	// StrategyNext 下一句
	StrategyNext Strategy = "next"
	// StrategySkipOne 跳过一句
	StrategySkipOne Strategy = "skip-one"
	// StrategyWindow 附近范围
	StrategyWindow Strategy = "window"
	// StrategyGlobal 全局搜索
	StrategyGlobal Strategy = "global"
)

// Result 一次成功定位的结果
type Result struct {
	Index      int
	Confidence float64
	Strategy   Strategy
}

// Similarity 计算两个文本归一化后的相似度，范围 [0,1]。
// 基于Levenshtein编辑距离：1 - distance/max(len, 1)。
// 两个空串按约定返回 1.0。纯函数，无副作用。
func Similarity(a, b string) float64 {
	return ratio(lyric.Normalize(a), lyric.Normalize(b))
}

// ratio 对已归一化的文本计算相似度
func ratio(na, nb string) float64 {
	if na == nb {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(na)
	if n := utf8.RuneCountInString(nb); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		maxLen = 1
	}
	d := matchr.Levenshtein(na, nb)
	s := 1.0 - float64(d)/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}

// Locator 分层定位器：按从廉价到昂贵的顺序尝试各层策略，
// 第一个给出达标候选的层级获胜。
type Locator struct {
	threshold float64
}

// NewLocator 创建定位器。threshold <= 0 时使用 DefaultThreshold。
func NewLocator(threshold float64) *Locator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Locator{threshold: threshold}
}

// Threshold 返回接受阈值
func (l *Locator) Threshold() float64 {
	return l.threshold
}

// Locate 在 doc 中定位 fragment 对应的歌词行。
// from 是会话当前所在的行索引，没有会话时传 -1，
// 此时"下一句"即第0句。未命中任何层级时 ok 为 false。
func (l *Locator) Locate(doc *lyric.Document, from int, fragment string) (Result, bool) {
	frag := lyric.Normalize(fragment)
	if frag == "" || doc == nil || len(doc.Lines) == 0 {
		return Result{}, false
	}

	tiers := []func(*lyric.Document, int, string) (Result, bool){
		l.locateNext,
		l.locateSkipOne,
		l.locateWindow,
		l.locateGlobal,
	}
	for _, tier := range tiers {
		if res, ok := tier(doc, from, frag); ok {
			return res, true
		}
	}
	return Result{}, false
}

// locateNext 检查下一句（统计上最可能的续接）
func (l *Locator) locateNext(doc *lyric.Document, from int, frag string) (Result, bool) {
	return l.check(doc, from+1, frag, StrategyNext)
}

// locateSkipOne 检查下下句（用户跳过了一句）
func (l *Locator) locateSkipOne(doc *lyric.Document, from int, frag string) (Result, bool) {
	return l.check(doc, from+2, frag, StrategySkipOne)
}

// locateWindow 在 [from-3, from+10] 范围内找最佳候选，
// 跳过前两层已经检查过的索引。同分时取最靠前的。
func (l *Locator) locateWindow(doc *lyric.Document, from int, frag string) (Result, bool) {
	lo, hi := from-3, from+10
	if lo < 0 {
		lo = 0
	}
	if hi > len(doc.Lines)-1 {
		hi = len(doc.Lines) - 1
	}

	best := Result{Index: -1, Strategy: StrategyWindow}
	for i := lo; i <= hi; i++ {
		if i == from+1 || i == from+2 {
			continue
		}
		if s := ratio(frag, doc.Lines[i].Norm); s >= l.threshold && s > best.Confidence {
			best.Index = i
			best.Confidence = s
		}
	}
	return best, best.Index >= 0
}

// locateGlobal 全局搜索，覆盖新歌起点和大幅跳跃。同分时取最靠前的。
func (l *Locator) locateGlobal(doc *lyric.Document, _ int, frag string) (Result, bool) {
	best := Result{Index: -1, Strategy: StrategyGlobal}
	for i := range doc.Lines {
		if s := ratio(frag, doc.Lines[i].Norm); s >= l.threshold && s > best.Confidence {
			best.Index = i
			best.Confidence = s
		}
	}
	return best, best.Index >= 0
}

func (l *Locator) check(doc *lyric.Document, idx int, frag string, strategy Strategy) (Result, bool) {
	if idx < 0 || idx >= len(doc.Lines) {
		return Result{}, false
	}
	if s := ratio(frag, doc.Lines[idx].Norm); s >= l.threshold {
		return Result{Index: idx, Confidence: s, Strategy: strategy}, true
	}
	return Result{}, false
}
