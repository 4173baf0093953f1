package stimulus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileCache 抓取结果的文件缓存，避免同一份刺激材料反复下载
type FileCache struct {
	cacheDir string
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewFileCache 创建文件缓存
func NewFileCache(cacheDir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{
		cacheDir: cacheDir,
		ttl:      ttl,
	}, nil
}

// cacheFilePath 获取缓存文件路径
func (c *FileCache) cacheFilePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

// Get 获取缓存文本
func (c *FileCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.cacheFilePath(key))
	if err != nil {
		return "", false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}

	// 检查是否过期
	if time.Since(entry.UpdatedAt) > c.ttl {
		return "", false
	}

	return entry.Text, true
}

// Set 写入缓存文本
func (c *FileCache) Set(key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := CacheEntry{
		Text:      text,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.cacheFilePath(key), data, 0644)
}
