package lyric

import (
	"bufio"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Format 歌词文档格式
type Format string

const (
	// FormatLRC 普通逐行歌词 [mm:ss.xx]text
	FormatLRC Format = "lrc"
	// FormatYRC 逐字歌词 [start,duration](t,d,0)字...
	FormatYRC Format = "yrc"
)

// ErrNoLyricLines 文档中没有可用的歌词行
var ErrNoLyricLines = errors.New("no lyric lines found in document")

// Line 一行歌词。Text 是展示文本，Norm 是用于匹配的归一化文本。
type Line struct {
	Index  int
	Text   string
	Norm   string
	TimeMs int64
}

// Document 一首歌的全部歌词行，解析后只读。
// 行索引从0开始连续递增。
type Document struct {
	SongID string
	Lines  []Line
}

var (
	lrcTagRe  = regexp.MustCompile(`\[(\d{1,3}):(\d{2})(?:\.(\d{1,3}))?\]`)
	yrcLineRe = regexp.MustCompile(`^\[(\d+),\d+\](.+)`)
	yrcSpanRe = regexp.MustCompile(`\(\d+,\d+,\d+\)`)
)

// Normalize 清理文本：去除空白和标点，转小写。
// 解析和相似度计算共用同一套规则。
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Parse 把原始歌词文档解析为 Document。
// 找不到任何歌词行时返回 ErrNoLyricLines。
func Parse(songID, raw string, format Format) (*Document, error) {
	var entries []Line
	switch format {
	case FormatYRC:
		entries = parseYRC(raw)
	default:
		entries = parseLRC(raw)
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		// 过滤作词/作曲等信息行
		if strings.ContainsAny(e.Text, ":：") {
			continue
		}
		e.Norm = Normalize(e.Text)
		if e.Norm == "" {
			continue
		}
		e.Index = len(lines)
		lines = append(lines, e)
	}

	if len(lines) == 0 {
		return nil, ErrNoLyricLines
	}
	return &Document{SongID: songID, Lines: lines}, nil
}

// parseLRC 解析LRC格式。一行上的多个时间标签视为同一文本的多个条目。
func parseLRC(raw string) []Line {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	var result []Line

	for scanner.Scan() {
		line := scanner.Text()
		tags := lrcTagRe.FindAllStringSubmatch(line, -1)
		if len(tags) == 0 {
			continue
		}
		text := strings.TrimSpace(lrcTagRe.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		for _, tag := range tags {
			min, _ := strconv.Atoi(tag[1])
			sec, _ := strconv.Atoi(tag[2])
			ms := 0
			if tag[3] != "" {
				ms, _ = strconv.Atoi(tag[3])
				// 根据毫秒字符串的长度来正确处理毫秒值
				switch len(tag[3]) {
				case 1:
					ms *= 100
				case 2:
					ms *= 10
				}
			}
			result = append(result, Line{
				Text:   text,
				TimeMs: int64(min*60+sec)*1000 + int64(ms),
			})
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].TimeMs < result[j].TimeMs })
	return result
}

// parseYRC 解析YRC逐字歌词，丢弃逐字时间结构，只保留整行文本和行级起始时间。
func parseYRC(raw string) []Line {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	var result []Line

	for scanner.Scan() {
		line := scanner.Text()
		// 跳过JSON元数据行
		if strings.HasPrefix(line, "{") {
			continue
		}
		m := yrcLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, _ := strconv.ParseInt(m[1], 10, 64)
		text := strings.TrimSpace(yrcSpanRe.ReplaceAllString(m[2], ""))
		if text == "" {
			continue
		}
		result = append(result, Line{Text: text, TimeMs: start})
	}

	return result
}
