package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Methods     []string
	Queries     map[string][]string
}

// methodStats tracks one retrieval method. Latencies are kept for
// successful requests only.
type methodStats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func newMethodStats() *methodStats {
	return &methodStats{
		latencies: make([]time.Duration, 0, 10000),
		codes:     make(map[int]int64),
	}
}

func (s *methodStats) record(duration time.Duration, statusCode int, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}

	s.mu.Lock()
	s.codes[statusCode]++
	if statusCode >= 200 && statusCode < 300 {
		s.latencies = append(s.latencies, duration)
	}
	s.mu.Unlock()

	if statusCode >= 200 && statusCode < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
}

var defaultQueries = map[string][]string{
	"vsm":      {"kucing makan ikan", "sepak bola", "harga beras", "pendidikan siswa", "pasar ikan segar"},
	"bim":      {"kucing ikan", "atlet rekor", "suku bunga", "buku digital", "jalan tol"},
	"feedback": {"ikan", "sepak bola", "ekspor kopi", "kurikulum", "burung terbang"},
	"boolean":  {"kucing AND ikan", "sepak OR bulu", "pasar AND NOT saham", "(ikan OR kucing) AND makan", "NOT politik"},
	"regex":    {"^kucing", "bola$", "ik[a-z]n", "(?i)indonesia", "\\bpasar\\b"},
}

func main() {
	baseURL := flag.String("url", "http://localhost:5000", "base URL of the retrieval lab server")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	methods := flag.String("methods", "vsm,boolean,regex,bim,feedback", "comma-separated retrieval methods to exercise")
	flag.Parse()

	cfg := Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Concurrency: *concurrency,
		Duration:    *duration,
		Methods:     strings.Split(*methods, ","),
		Queries:     defaultQueries,
	}
	for _, m := range cfg.Methods {
		if len(cfg.Queries[m]) == 0 {
			fmt.Fprintf(os.Stderr, "no queries for method %q\n", m)
			os.Exit(2)
		}
	}

	fmt.Println("=== Retrieval Lab Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Methods:     %s\n", strings.Join(cfg.Methods, ", "))
	fmt.Println()

	stats := runLoadTest(cfg)
	if !printReport(cfg, stats) {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the server running?")
		os.Exit(1)
	}
}

func runLoadTest(cfg Config) map[string]*methodStats {
	stats := make(map[string]*methodStats, len(cfg.Methods))
	for _, m := range cfg.Methods {
		stats[m] = newMethodStats()
	}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := w
			for ctx.Err() == nil {
				method := cfg.Methods[n%len(cfg.Methods)]
				queries := cfg.Queries[method]
				query := queries[(n/len(cfg.Methods))%len(queries)]
				n++

				start := time.Now()
				status, err := search(ctx, client, cfg.BaseURL, method, query)
				if ctx.Err() != nil {
					return
				}
				stats[method].record(time.Since(start), status, err)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func search(ctx context.Context, client *http.Client, baseURL, method, query string) (int, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/search/"+method, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// printReport prints per-method results and reports whether any request
// completed.
func printReport(cfg Config, stats map[string]*methodStats) bool {
	var grandTotal int64
	for _, method := range cfg.Methods {
		s := stats[method]
		total := s.total.Load()
		grandTotal += total

		fmt.Printf("=== %s ===\n", method)
		fmt.Printf("Requests:     %d (%.2f/sec)\n", total, float64(total)/cfg.Duration.Seconds())
		fmt.Printf("Successful:   %d\n", s.success.Load())
		fmt.Printf("Errors:       %d\n", s.errors.Load())

		s.mu.Lock()
		latencies := append([]time.Duration(nil), s.latencies...)
		codes := make([]int, 0, len(s.codes))
		for code := range s.codes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Printf("  HTTP %d:     %d\n", code, s.codes[code])
		}
		s.mu.Unlock()

		if len(latencies) > 0 {
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var sum time.Duration
			for _, l := range latencies {
				sum += l
			}
			avg := sum / time.Duration(len(latencies))
			var sumSquared float64
			for _, l := range latencies {
				diff := float64(l - avg)
				sumSquared += diff * diff
			}
			fmt.Printf("Latency:      min %s  avg %s  p50 %s  p95 %s  p99 %s  max %s  stddev %s\n",
				latencies[0], avg,
				percentile(latencies, 50), percentile(latencies, 95), percentile(latencies, 99),
				latencies[len(latencies)-1],
				time.Duration(math.Sqrt(sumSquared/float64(len(latencies)))),
			)
		}
		fmt.Println()
	}
	return grandTotal > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
