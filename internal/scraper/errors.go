package scraper

import "errors"

var (
	// ErrChallengeDetected means the page served a bot wall instead of
	// content. The scrape rotates proxies and retries.
	ErrChallengeDetected = errors.New("anti-bot challenge detected")

	// ErrProxyPoolExhausted means every retry budget was spent and no proxy
	// got through.
	ErrProxyPoolExhausted = errors.New("proxy pool exhausted")

	// ErrNavigationTimeout means the page never finished loading within the
	// navigation budget, even after the in-session retry.
	ErrNavigationTimeout = errors.New("navigation timed out")
)
