package paths

import (
	"os"
	"path/filepath"
)

// GetDataDir 获取应用数据目录
func GetDataDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil || userConfigDir == "" {
		return filepath.Join(".", "data")
	}
	return filepath.Join(userConfigDir, "fgsim")
}

// GetCacheDir 获取缓存目录
func GetCacheDir() string {
	return filepath.Join(GetDataDir(), "cache")
}

// GetTranscriptDir 获取讨论记录输出目录
func GetTranscriptDir() string {
	return filepath.Join(GetDataDir(), "transcripts")
}

// EnsureDir 确保目录存在并返回路径
func EnsureDir(dir string) string {
	os.MkdirAll(dir, 0755)
	return dir
}

// EnsureCacheDir 确保缓存子目录存在并返回路径
func EnsureCacheDir(subDir string) string {
	return EnsureDir(filepath.Join(GetCacheDir(), subDir))
}
