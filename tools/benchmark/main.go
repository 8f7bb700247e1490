package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type result struct {
	latency time.Duration
	status  int
	err     error
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "Base URL of the SGC API")
	path := flag.String("path", "/health", "Path to request")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	requests := flag.Int("n", 1000, "Total number of requests")
	duration := flag.Duration("d", 0, "Stop after this duration even if -n was not reached")
	cpf := flag.String("cpf", "", "Log in with this CPF and send the token on every request")
	password := flag.String("password", "", "Password for -cpf")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	base := strings.TrimRight(*baseURL, "/")

	var token string
	if *cpf != "" {
		var err error
		token, err = login(client, base, *cpf, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	}

	ctx := context.Background()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	results := make(chan result, *requests)
	var issued int64
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for atomic.AddInt64(&issued, 1) <= int64(*requests) {
				if ctx.Err() != nil {
					return
				}
				results <- do(ctx, client, base+*path, token)
			}
		}()
	}
	wg.Wait()
	close(results)
	elapsed := time.Since(start)

	report(base+*path, *concurrency, elapsed, results)
}

func login(client *http.Client, base, cpf, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"cpf": cpf, "senha": password})
	resp, err := client.Post(base+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, out.Message)
	}
	return out.Token, nil
}

func do(ctx context.Context, client *http.Client, url, token string) result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result{err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return result{err: err}
	}
	resp.Body.Close()
	return result{latency: time.Since(start), status: resp.StatusCode}
}

func report(url string, concurrency int, elapsed time.Duration, results <-chan result) {
	var latencies []time.Duration
	statuses := map[int]int{}
	failed := 0

	for r := range results {
		if r.err != nil {
			failed++
			continue
		}
		statuses[r.status]++
		latencies = append(latencies, r.latency)
	}

	fmt.Printf("\nBenchmark Results:\n")
	fmt.Printf("URL: %s\n", url)
	fmt.Printf("Concurrency Level: %d\n", concurrency)
	fmt.Printf("Time taken: %v\n", elapsed)
	fmt.Printf("Complete requests: %d\n", len(latencies))
	fmt.Printf("Failed requests: %d\n", failed)
	if len(latencies) == 0 {
		return
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var total time.Duration
	for _, d := range latencies {
		total += d
	}

	codes := make([]int, 0, len(statuses))
	for c := range statuses {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	for _, c := range codes {
		fmt.Printf("Status %d: %d\n", c, statuses[c])
	}

	fmt.Printf("Requests per second: %.2f\n", float64(len(latencies))/elapsed.Seconds())
	fmt.Printf("Mean latency: %v\n", total/time.Duration(len(latencies)))
	fmt.Printf("Min latency: %v\n", latencies[0])
	fmt.Printf("p95 latency: %v\n", latencies[len(latencies)*95/100])
	fmt.Printf("Max latency: %v\n", latencies[len(latencies)-1])
}
