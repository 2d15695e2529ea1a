package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type request struct {
	method string
	path   string
	body   string
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	requests := requestsForProfile(cfg.Profile)
	if len(requests) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan request, cfg.Concurrency*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for job := range jobs {
				var body *strings.Reader
				if job.body != "" {
					body = strings.NewReader(job.body)
				} else {
					body = strings.NewReader("")
				}
				req, err := http.NewRequestWithContext(gctx, job.method, cfg.BaseURL+job.path, body)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if job.body != "" {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				switch {
				case resp.StatusCode >= 200 && resp.StatusCode < 300:
					atomic.AddInt64(&s2xx, 1)
				case resp.StatusCode >= 400 && resp.StatusCode < 500:
					atomic.AddInt64(&s4xx, 1)
				case resp.StatusCode >= 500:
					atomic.AddInt64(&s5xx, 1)
				}
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			jobs <- requests[i%len(requests)]
			i++
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
}

func requestsForProfile(profile string) []request {
	switch strings.ToLower(profile) {
	case "", "browse":
		return []request{
			{method: http.MethodGet, path: "/api/products"},
			{method: http.MethodGet, path: "/health/live"},
			{method: http.MethodGet, path: "/health/ready"},
		}
	case "auth":
		return []request{
			{method: http.MethodPost, path: "/api/login", body: `{"email":"demo@example.com","password":"demo1234"}`},
			{method: http.MethodPost, path: "/api/login", body: `{"email":"demo@example.com","password":"wrong"}`},
			{method: http.MethodPost, path: "/api/register", body: `{"username":"","email":"","password":""}`},
		}
	case "error-heavy":
		return []request{
			{method: http.MethodDelete, path: "/api/products/999999"},
			{method: http.MethodPut, path: "/api/products/999999", body: `{"name":"x","price":1,"quantity":1,"category":"x"}`},
			{method: http.MethodPost, path: "/api/products", body: `{"name":""}`},
		}
	default:
		return nil
	}
}
