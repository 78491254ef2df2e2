package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	token := flag.String("token", os.Getenv("EZBUILD_TOKEN"), "bearer token of the test customer")
	seedCart := flag.Bool("cart", true, "put a cart snapshot before each round")

	// 重复提交测试：同一用户并发点下单
	total := flag.Int("n", 20, "concurrent submissions of the same user")
	concurrency := flag.Int("c", 20, "max concurrency")
	// 限流测试：连续多轮提交，轮次越多越容易触发 429
	rounds := flag.Int("rounds", 3, "rounds of concurrent submissions")
	flag.Parse()

	if *token == "" {
		fmt.Println("missing -token (or EZBUILD_TOKEN)")
		os.Exit(2)
	}
	client := &http.Client{Timeout: 15 * time.Second}

	for round := 1; round <= *rounds; round++ {
		if *seedCart {
			if err := doJSON(client, http.MethodPut, *baseURL+"/api/cart", *token, sampleCart(), nil); err != nil {
				fmt.Println("put cart failed:", err)
				os.Exit(1)
			}
		}

		fmt.Printf("\nround %d: same user, %d submissions, concurrency %d\n", round, *total, *concurrency)
		results := runSubmit(client, *baseURL, *token, *total, *concurrency)
		printSummary(fmt.Sprintf("round_%d", round), results)

		// 每轮最多只应有一个 200
		if reqID := firstRequestID(results); reqID != "" {
			var state struct {
				Data map[string]any `json:"data"`
			}
			if err := doJSON(client, http.MethodGet, *baseURL+"/api/checkout/"+reqID, *token, nil, &state); err != nil {
				fmt.Println("  lookup err:", err)
			} else {
				fmt.Printf("  request %s -> %v\n", reqID, state.Data)
			}
		}
	}
}

func sampleCart() map[string]any {
	return map[string]any{
		"components": []map[string]any{
			{"name": "CPU", "model": "Ryzen 5 7600", "priceValue": 5000000},
			{"name": "GPU", "model": "RTX 4060", "priceValue": 8000000},
			{"name": "RAM", "model": "DDR5 32GB", "priceValue": 2500000},
		},
	}
}

func runSubmit(client *http.Client, baseURL, token string, total, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = submitOnce(client, baseURL, token)
		}(i)
	}

	wg.Wait()
	return results
}

func submitOnce(client *http.Client, baseURL, token string) Result {
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

func firstRequestID(results []Result) string {
	for _, r := range results {
		if r.Status != http.StatusOK {
			continue
		}
		var out struct {
			Data struct {
				RequestID string `json:"requestId"`
			} `json:"data"`
		}
		if json.Unmarshal([]byte(r.Body), &out) == nil && out.Data.RequestID != "" {
			return out.Data.RequestID
		}
	}
	return ""
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 401, 409, 429, 500, 502} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
	if count[200] > 1 {
		fmt.Printf("  WARNING: %d orders created by one user in a single burst\n", count[200])
	}
}

// doJSON 发送带 token 的 JSON 请求；out 非 nil 时解码响应。
func doJSON(client *http.Client, method, url, token string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	if out != nil {
		return json.Unmarshal(b, out)
	}
	return nil
}
