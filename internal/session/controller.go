package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-career-scraper/internal/config"
	"go-career-scraper/internal/proxy"
)

// ErrSessionCreation is returned once every launch attempt for a session has
// been exhausted.
var ErrSessionCreation = errors.New("session creation failed")

// markPrefix tags Chromium processes so orphans can be identified later.
const markPrefix = "--scraper-mark="

// Handle is one live browser session bound to a proxy. A handle is owned by
// exactly one scrape at a time.
type Handle struct {
	ID        string
	Proxy     *proxy.Entry
	Browser   playwright.Browser
	Context   playwright.BrowserContext
	Page      playwright.Page
	CreatedAt time.Time

	released atomic.Bool
}

// Alive reports whether the underlying browser and page are still usable.
func (h *Handle) Alive() bool {
	if h == nil || h.Browser == nil || h.Page == nil {
		return false
	}
	return h.Browser.IsConnected() && !h.Page.IsClosed()
}

type slot struct {
	sem  chan struct{}
	mu   sync.Mutex
	idle []*Handle
}

// Controller owns every browser session. Sessions never outlive it: Release
// or Close always tears the browser down or parks it for reuse, and the orphan
// sweep catches anything that escapes.
type Controller struct {
	pw  *playwright.Playwright
	cfg *config.Config

	mu    sync.Mutex
	slots map[string]*slot
	marks map[string]bool

	launch  func(entry *proxy.Entry, mark string) (*Handle, error)
	Backoff func(attempt int) time.Duration

	seq    atomic.Uint64
	closed atomic.Bool
}

func NewController(cfg *config.Config) (*Controller, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	c := &Controller{
		pw:      pw,
		cfg:     cfg,
		slots:   make(map[string]*slot),
		marks:   make(map[string]bool),
		Backoff: defaultBackoff,
	}
	c.launch = c.launchBrowser
	return c, nil
}

// defaultBackoff doubles per attempt with jitter: ~1s, ~2s, ~4s.
func defaultBackoff(attempt int) time.Duration {
	base := time.Second << attempt
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

func (c *Controller) slotFor(entry *proxy.Entry) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := entry.Key()
	s, ok := c.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, c.cfg.PerProxySessions)}
		c.slots[key] = s
	}
	return s
}

// Acquire hands out a session bound to the given proxy, blocking while the
// proxy's session slots are all in use. An idle session is reused when its
// liveness probe passes; otherwise a fresh browser is launched with
// exponential backoff between failed attempts.
func (c *Controller) Acquire(ctx context.Context, entry *proxy.Entry) (*Handle, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%w: controller closed", ErrSessionCreation)
	}

	s := c.slotFor(entry)
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	//reuse a parked session if it still responds
	for {
		s.mu.Lock()
		var h *Handle
		if n := len(s.idle); n > 0 {
			h = s.idle[n-1]
			s.idle = s.idle[:n-1]
		}
		s.mu.Unlock()
		if h == nil {
			break
		}
		if h.Alive() {
			h.released.Store(false)
			log.Printf("🔄 Reusing session %s on proxy %s", h.ID, entry.Masked())
			return h, nil
		}
		log.Printf("⚠️ Parked session %s is dead, discarding", h.ID)
		c.dispose(h)
	}

	SweepOrphans(c.liveMarks())

	var lastErr error
	for attempt := 0; attempt < c.cfg.SessionCreateAttempts; attempt++ {
		if attempt > 0 {
			delay := c.Backoff(attempt - 1)
			log.Printf("⏰ Session launch retry %d for proxy %s in %s", attempt+1, entry.Masked(), delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				<-s.sem
				return nil, ctx.Err()
			}
		}

		mark := fmt.Sprintf("%s%d-%d", markPrefix, time.Now().UnixNano(), c.seq.Add(1))
		id := mark[len(markPrefix):]

		//protect the mark before launching: the browser process exists
		//while the launch is still in flight, and a concurrent sweep must
		//not treat it as orphaned
		c.mu.Lock()
		c.marks[id] = true
		c.mu.Unlock()

		h, err := c.launch(entry, mark)
		if err == nil {
			//dispose keys off h.ID; keep the tracked mark in sync with it
			if h.ID != id {
				c.mu.Lock()
				delete(c.marks, id)
				c.marks[h.ID] = true
				c.mu.Unlock()
			}
			log.Printf("✓ Session %s created on proxy %s", h.ID, entry.Masked())
			return h, nil
		}

		c.mu.Lock()
		delete(c.marks, id)
		c.mu.Unlock()
		lastErr = err
		log.Printf("❌ Session launch failed on proxy %s: %v", entry.Masked(), err)
	}

	<-s.sem
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrSessionCreation, c.cfg.SessionCreateAttempts, lastErr)
}

// Release returns a session to the controller exactly once. Terminal releases
// tear the browser down; healthy ones park it for reuse on the same proxy.
func (c *Controller) Release(h *Handle, terminal bool) {
	if h == nil || h.released.Swap(true) {
		return
	}

	s := c.slotFor(h.Proxy)
	defer func() { <-s.sem }()

	if terminal || c.closed.Load() || !h.Alive() {
		c.dispose(h)
		log.Printf("📦 Session %s torn down", h.ID)
		return
	}

	s.mu.Lock()
	s.idle = append(s.idle, h)
	s.mu.Unlock()
	log.Printf("📦 Session %s parked for reuse", h.ID)
}

// teardown closes page, context and browser, tolerating already-dead pieces.
func (h *Handle) teardown() {
	if h.Page != nil && !h.Page.IsClosed() {
		_ = h.Page.Close()
	}
	if h.Context != nil {
		_ = h.Context.Close()
	}
	if h.Browser != nil && h.Browser.IsConnected() {
		_ = h.Browser.Close()
	}
}

// dispose tears a session down and stops protecting its processes from the
// orphan sweep.
func (c *Controller) dispose(h *Handle) {
	h.teardown()
	c.mu.Lock()
	delete(c.marks, h.ID)
	c.mu.Unlock()
}

// liveMarks snapshots the marks of sessions the controller still owns, both
// parked and checked out, so the sweep never kills them.
func (c *Controller) liveMarks() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := make(map[string]bool, len(c.marks))
	for id := range c.marks {
		live[id] = true
	}
	return live
}

// Close tears down every parked session and stops the driver. In-flight
// sessions are torn down as they are released.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}

	c.mu.Lock()
	slots := make([]*slot, 0, len(c.slots))
	for _, s := range c.slots {
		slots = append(slots, s)
	}
	c.mu.Unlock()

	for _, s := range slots {
		s.mu.Lock()
		idle := s.idle
		s.idle = nil
		s.mu.Unlock()
		for _, h := range idle {
			c.dispose(h)
		}
	}

	SweepOrphans(c.liveMarks())

	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			log.Printf("⚠️ Error stopping playwright driver: %v", err)
		}
	}
}

func (c *Controller) launchBrowser(entry *proxy.Entry, mark string) (*Handle, error) {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(c.cfg.Headless),
		Args: []string{
			mark,
			"--disable-blink-features=AutomationControlled",
			"--no-first-run",
			"--disable-infobars",
		},
	}
	if entry != nil {
		opts.Proxy = &playwright.Proxy{
			Server:   entry.Server(),
			Username: playwright.String(entry.Username),
			Password: playwright.String(entry.Password),
		}
	}

	browser, err := c.pw.Chromium.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	bctx, err := newStealthContext(browser, c.cfg)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}

	if cookies := loadCookieDir(c.cfg.CookiesPath); len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			log.Printf("⚠️ Could not add warm-start cookies: %v. Continuing.", err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &Handle{
		ID:        mark[len(markPrefix):],
		Proxy:     entry,
		Browser:   browser,
		Context:   bctx,
		Page:      page,
		CreatedAt: time.Now(),
	}, nil
}
