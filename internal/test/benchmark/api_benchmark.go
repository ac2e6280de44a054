package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// APIBenchmark 对HTTP接口发起并发请求并统计结果
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 定义基准测试结果
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

// RequestResult 定义单个请求的结果
type RequestResult struct {
	Duration   time.Duration
	StatusCode int
	Error      error
}

// NewAPIBenchmark 创建新的API基准测试实例，client 为 nil 时使用10秒超时的默认客户端
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string, client *http.Client) *APIBenchmark {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client:      client,
	}
}

// RunGET 执行GET请求的基准测试
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.runTest(http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST 执行POST请求的基准测试
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	url := b.BaseURL + path
	var body []byte
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return &BenchmarkResult{
				URL:    url,
				Method: http.MethodPost,
				Errors: []string{fmt.Sprintf("JSON编码错误: %v", err)},
			}
		}
		body = jsonData
	}
	return b.runTest(http.MethodPost, url, body)
}

// runTest 按并发上限发送全部请求
func (b *APIBenchmark) runTest(method, url string, payload []byte) *BenchmarkResult {
	results := make(chan RequestResult, b.Requests)
	var wg sync.WaitGroup
	limiter := make(chan struct{}, b.Concurrency)

	startTime := time.Now()

	for i := 0; i < b.Requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter <- struct{}{}
			defer func() { <-limiter }()

			results <- b.do(method, url, payload)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		StatusCodes:   make(map[int]int),
	}

	var totalTime time.Duration
	completed := 0
	for r := range results {
		if r.Error != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, r.Error.Error())
			continue
		}

		completed++
		totalTime += r.Duration
		if result.MinTime == 0 || r.Duration < result.MinTime {
			result.MinTime = r.Duration
		}
		if r.Duration > result.MaxTime {
			result.MaxTime = r.Duration
		}

		result.StatusCodes[r.StatusCode]++
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	result.TotalTime = time.Since(startTime)
	if result.TotalTime > 0 {
		result.RequestsPerSec = float64(b.Requests) / result.TotalTime.Seconds()
	}
	if completed > 0 {
		result.AverageTime = totalTime / time.Duration(completed)
	}
	return result
}

func (b *APIBenchmark) do(method, url string, payload []byte) RequestResult {
	start := time.Now()
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return RequestResult{Error: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return RequestResult{Error: err}
	}
	defer resp.Body.Close()

	return RequestResult{
		Duration:   time.Since(start),
		StatusCode: resp.StatusCode,
	}
}

// Summary 结果摘要
func (r *BenchmarkResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s 并发=%d 请求=%d 成功=%d 失败=%d 总耗时=%s 平均=%s 最小=%s 最大=%s QPS=%.2f",
		r.Method, r.URL, r.Concurrency, r.TotalRequests, r.SuccessCount, r.FailureCount,
		r.TotalTime, r.AverageTime, r.MinTime, r.MaxTime, r.RequestsPerSec)

	codes := make([]int, 0, len(r.StatusCodes))
	for code := range r.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, " [%d]=%d", code, r.StatusCodes[code])
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, " 首个错误: %s", r.Errors[0])
	}
	return b.String()
}
