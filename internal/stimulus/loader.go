package stimulus

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"

	"github.com/run-bigpig/fgsim/internal/logger"
	"github.com/run-bigpig/fgsim/internal/pkg/paths"
)

var log = logger.New("Stimulus")

// maxStimulusRunes 刺激材料最长保留的字符数，超出截断
const maxStimulusRunes = 4000

// Loader 刺激材料加载器，支持本地文件和网页两种来源
type Loader struct {
	client *http.Client
	cache  *FileCache
}

// NewLoader 创建加载器，网页抓取结果按 TTL 落盘缓存
func NewLoader() (*Loader, error) {
	cache, err := NewFileCache(paths.EnsureCacheDir("stimulus"), 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("创建刺激材料缓存失败: %w", err)
	}
	return &Loader{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache,
	}, nil
}

// Load 加载刺激材料并归一化为纯文本
// source 以 http:// 或 https:// 开头时走网页抓取，否则按本地文件读取
func (l *Loader) Load(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.loadURL(ctx, source)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("读取刺激材料文件失败: %w", err)
	}
	return Normalize(string(data)), nil
}

// loadURL 抓取网页并抽取正文文本
func (l *Loader) loadURL(ctx context.Context, url string) (string, error) {
	key := fmt.Sprintf("%x", sha1.Sum([]byte(url)))
	if text, ok := l.cache.Get(key); ok {
		log.Debug("stimulus cache hit for %s", url)
		return text, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("抓取刺激材料失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("抓取刺激材料失败: 状态码 %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("解析刺激材料页面失败: %w", err)
	}
	doc.Find("script, style, nav, footer, noscript").Remove()
	text := Normalize(doc.Find("body").Text())
	if text == "" {
		return "", fmt.Errorf("页面 %s 中没有可用正文", url)
	}

	if err := l.cache.Set(key, text); err != nil {
		log.Warn("write stimulus cache failed: %v", err)
	}
	return text, nil
}

var spaceRe = regexp.MustCompile(`[ \t]+`)
var blankRe = regexp.MustCompile(`\n{3,}`)

// Normalize 归一化文本：全角转半角、压缩空白、限制长度
func Normalize(text string) string {
	text = width.Narrow.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxStimulusRunes {
		text = string(runes[:maxStimulusRunes])
	}
	return text
}
