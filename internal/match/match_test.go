package match

import (
	"testing"

	"lyric-relay/internal/lyric"
)

func TestSimilarityProperties(t *testing.T) {
	inputs := []string{"还没好好的感受", "Hello, World!", "a", ""}

	for _, s := range inputs {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %v, want 1.0", s, s, got)
		}
	}

	// 对称性
	pairs := [][2]string{
		{"还没好好的感受", "还没好好地感受"},
		{"hello", "hallo"},
		{"x", ""},
	}
	for _, p := range pairs {
		if a, b := Similarity(p[0], p[1]), Similarity(p[1], p[0]); a != b {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], a, b)
		}
	}

	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity(\"\", \"\") = %v, want 1.0", got)
	}
	if got := Similarity("x", ""); got >= 1.0 {
		t.Errorf("Similarity(\"x\", \"\") = %v, want < 1.0", got)
	}
}

func TestSimilarityIgnoresPunctuation(t *testing.T) {
	if got := Similarity("雪花绽放的气候", "雪花 绽放的气候！"); got != 1.0 {
		t.Errorf("expected 1.0 after normalization, got %v", got)
	}
}

// 互不相似的歌词行池，保证相邻窗口内没有误匹配
var linePool = []string{
	"还没好好的感受",
	"雪花绽放的气候",
	"我们一起颤抖",
	"会更明白什么是温柔",
	"天灰灰会不会让我忘了你是谁",
	"夜越黑梦违背难追难回味",
	"窗外的麻雀在电线杆上多嘴",
	"你说这一句很有夏天的感觉",
	"手中的铅笔在纸上来来回回",
	"我用几行字形容你是我的谁",
	"秋刀鱼的滋味猫跟你都想了解",
	"初恋的香味就这样被我们寻回",
	"那温暖的阳光像刚摘的鲜艳草莓",
	"你说你舍不得吃掉这一种感觉",
}

// testDoc 构造一个按行池循环的文档，任何14行窗口内行文本互不相同
func testDoc(n int) *lyric.Document {
	doc := &lyric.Document{SongID: "test"}
	for i := 0; i < n; i++ {
		text := linePool[i%len(linePool)]
		doc.Lines = append(doc.Lines, lyric.Line{
			Index: i,
			Text:  text,
			Norm:  lyric.Normalize(text),
		})
	}
	return doc
}

func TestLocateNextLine(t *testing.T) {
	doc := testDoc(60)
	loc := NewLocator(0)

	res, ok := loc.Locate(doc, 4, doc.Lines[5].Text)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Index != 5 || res.Confidence != 1.0 || res.Strategy != StrategyNext {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLocateFirstLineWithoutSession(t *testing.T) {
	doc := testDoc(10)
	loc := NewLocator(0)

	res, ok := loc.Locate(doc, -1, doc.Lines[0].Text)
	if !ok || res.Index != 0 || res.Strategy != StrategyNext {
		t.Errorf("expected tier-1 match on index 0, got %+v ok=%v", res, ok)
	}
}

func TestLocateSkipOne(t *testing.T) {
	doc := testDoc(60)
	loc := NewLocator(0)

	res, ok := loc.Locate(doc, 4, doc.Lines[6].Text)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Index != 6 || res.Strategy != StrategySkipOne {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLocateWindow(t *testing.T) {
	doc := testDoc(60)
	loc := NewLocator(0)

	// 回退到前面一句，落在 [from-3, from+10] 窗口内
	res, ok := loc.Locate(doc, 10, doc.Lines[8].Text)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Index != 8 || res.Strategy != StrategyWindow {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLocateGlobal(t *testing.T) {
	doc := testDoc(60)
	bridge := "只出现在歌曲末尾的独特桥段"
	doc.Lines[54].Text = bridge
	doc.Lines[54].Norm = lyric.Normalize(bridge)
	loc := NewLocator(0)

	res, ok := loc.Locate(doc, 4, bridge)
	if !ok {
		t.Fatal("expected match")
	}
	if res.Index != 54 || res.Strategy != StrategyGlobal {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestLocateNoMatch(t *testing.T) {
	doc := testDoc(20)
	loc := NewLocator(0)

	if res, ok := loc.Locate(doc, 4, "完全无关的一段随便什么输入文本"); ok {
		t.Errorf("expected no match, got %+v", res)
	}
	if _, ok := loc.Locate(doc, 4, "！！！"); ok {
		t.Error("expected no match for fragment that normalizes to empty")
	}
}

func TestLocateTieBreakEarliest(t *testing.T) {
	// 副歌重复：同一文本出现在多个位置，全局搜索取最靠前的
	doc := &lyric.Document{SongID: "test"}
	texts := []string{"甲", "重复的副歌歌词", "乙", "重复的副歌歌词", "丙"}
	for i, text := range texts {
		doc.Lines = append(doc.Lines, lyric.Line{Index: i, Text: text, Norm: lyric.Normalize(text)})
	}
	loc := NewLocator(0)

	res, ok := loc.Locate(doc, -1, "重复的副歌歌词")
	if !ok {
		t.Fatal("expected match")
	}
	if res.Index != 1 {
		t.Errorf("expected earliest index 1, got %d", res.Index)
	}
}
