package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go-career-scraper/internal/config"
	"go-career-scraper/internal/models"
	"go-career-scraper/internal/profile"
	"go-career-scraper/internal/proxy"
	"go-career-scraper/internal/reporter"
	"go-career-scraper/internal/scraper"
	"go-career-scraper/internal/session"
)

func main() {
	urlsFlag := flag.String("urls", "", "comma-separated career page URLs to scrape")
	keyword := flag.String("keyword", "", "search keyword filter")
	location := flag.String("location", "", "location filter")
	jobType := flag.String("job-type", "", "remote/hybrid/onsite filter")
	maxResults := flag.Int("max", 20, "max results per URL")
	concurrency := flag.Int("concurrency", 3, "concurrent scrapes")
	flag.Parse()

	//load config
	cfg := config.Load()
	log.Printf("🔧 Config loaded. %d proxies in pool.", len(cfg.ProxyURLs))

	targets := splitURLs(*urlsFlag)
	if len(targets) == 0 {
		targets = flag.Args()
	}
	if len(targets) == 0 {
		log.Fatal("❌ No target URLs. Pass -urls or positional arguments.")
	}

	//init telegram reporting (optional)
	rep, err := reporter.NewTelegramReporter(cfg)
	if err != nil {
		log.Printf("⚠️ Telegram reporter disabled: %v", err)
	} else if rep != nil {
		log.Println("🤖 Telegram reporter initialized.")
	}

	//proxy pool
	proxies, err := proxy.NewManager(cfg.ProxyURLs, time.Duration(cfg.ProxyRotationInterval)*time.Second, cfg.ProxyFailureThreshold)
	if err != nil {
		log.Fatalf("❌ Failed to build proxy pool: %v", err)
	}
	proxies.OnDegraded(func(reason string) {
		log.Printf("⚠️ Proxy pool degraded: %s", reason)
		if err := rep.SendDegraded(reason, proxies.Stats()); err != nil {
			log.Printf("⚠️ Failed to send degraded alert: %v", err)
		}
	})

	//site profiles, with optional YAML overlay
	profiles := profile.NewRegistry()
	if cfg.ProfilesPath != "" {
		profiles, err = profile.NewRegistryFromFile(cfg.ProfilesPath)
		if err != nil {
			log.Fatalf("❌ Failed to load site profiles from %s: %v", cfg.ProfilesPath, err)
		}
		log.Printf("📦 Site profiles loaded from %s", cfg.ProfilesPath)
	}

	//browser sessions
	sessions, err := session.NewController(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer sessions.Close()

	s := scraper.New(cfg, proxies, sessions, profiles)

	//stop on SIGINT/SIGTERM so browsers are torn down cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("🚀 Scraping %d career pages...", len(targets))

	var mu sync.Mutex
	results := make(map[string][]models.Job, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for _, target := range targets {
		g.Go(func() error {
			req := models.ScrapeRequest{
				URL:        target,
				Keyword:    *keyword,
				Location:   *location,
				JobType:    *jobType,
				MaxResults: *maxResults,
			}

			jobs, err := s.Scrape(gctx, req)
			if err != nil {
				log.Printf("❌ Scrape failed for %s: %v", target, err)
				if sendErr := rep.SendError(target, err); sendErr != nil {
					log.Printf("⚠️ Failed to send error alert: %v", sendErr)
				}
				//one bad site must not cancel the others
				return nil
			}

			log.Printf("✅ %s finished. Found %d jobs.", target, len(jobs))
			mu.Lock()
			results[target] = jobs
			mu.Unlock()

			if sendErr := rep.SendRunSummary(target, jobs); sendErr != nil {
				log.Printf("⚠️ Failed to send run summary: %v", sendErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("❌ Scrape group error: %v", err)
	}

	var all []models.Job
	for _, jobs := range results {
		all = append(all, jobs...)
	}
	log.Printf("📦 Total jobs collected: %d", len(all))

	saveJobs(cfg.LogDir, all)

	//final proxy health report
	for key, st := range proxies.Stats() {
		log.Printf("  proxy %s — failures: %d healthy: %v", key, st.FailureCount, st.Healthy)
	}

	log.Println("🏁 Execution finished.")
}

func splitURLs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func saveJobs(logDir string, jobs []models.Job) {
	if len(jobs) == 0 {
		log.Println("ℹ️ No jobs to save.")
		return
	}

	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create logs directory: %v", err)
		return
	}

	//gen filename: job-search-YYYY-MM-DD.json
	filename := fmt.Sprintf("job-search-%s.json", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(logDir, filename)

	data, err := json.MarshalIndent(jobs, "", " ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal jobs to JSON: %v", err)
		return
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write logs file: %v", err)
		return
	}

	log.Printf("📁 Results saved to %s", filePath)
}
