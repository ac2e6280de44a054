package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// 缓存条目
type cacheEntry struct {
	Status     int
	Content    []byte
	Expiration time.Time
}

// ResponseCache 进程内GET响应缓存
type ResponseCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	now   func() time.Time
}

// NewResponseCache 创建响应缓存
func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		items: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// cacheKey 路径加排序后的查询参数
func cacheKey(c *gin.Context) string {
	queryParams := c.Request.URL.Query()
	queryKeys := make([]string, 0, len(queryParams))
	for key := range queryParams {
		queryKeys = append(queryKeys, key)
	}
	sort.Strings(queryKeys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteString("?")
	for _, key := range queryKeys {
		values := queryParams[key]
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(key + "=" + value + "&")
		}
	}

	hasher := md5.New()
	hasher.Write([]byte(b.String()))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Handler 缓存成功的GET响应
func (rc *ResponseCache) Handler(expiration time.Duration) gin.HandlerFunc {
	if expiration <= 0 {
		expiration = 5 * time.Minute
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c)
		if entry, ok := rc.get(key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(entry.Status, "application/json; charset=utf-8", entry.Content)
			c.Abort()
			return
		}

		// 缓存未命中，捕获响应
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() == http.StatusOK {
			rc.mu.Lock()
			rc.items[key] = cacheEntry{
				Status:     http.StatusOK,
				Content:    writer.body.Bytes(),
				Expiration: rc.now().Add(expiration),
			}
			rc.mu.Unlock()
		}
	}
}

// PurgeOnSuccess 写操作成功后清空缓存
func (rc *ResponseCache) PurgeOnSuccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rc.Purge()
		}
	}
}

func (rc *ResponseCache) get(key string) (cacheEntry, bool) {
	rc.mu.RLock()
	entry, found := rc.items[key]
	rc.mu.RUnlock()

	if !found {
		return cacheEntry{}, false
	}
	if !entry.Expiration.After(rc.now()) {
		rc.mu.Lock()
		delete(rc.items, key)
		rc.mu.Unlock()
		return cacheEntry{}, false
	}
	return entry, true
}

// Purge 清除所有缓存
func (rc *ResponseCache) Purge() {
	rc.mu.Lock()
	rc.items = make(map[string]cacheEntry)
	rc.mu.Unlock()
}

// Len 当前缓存条目数
func (rc *ResponseCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.items)
}

// 自定义响应写入器，用于捕获响应内容
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 同时写入原始响应和缓冲区
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// WriteString 同时写入原始响应和缓冲区
func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
