package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelProbes = 16

// Supplier hands out proxies in round-robin order
type Supplier interface {
	Get() string
	Len() int
}

type supplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier keeps the proxies that can reach testURL. With no proxies
// configured it returns an empty supplier and requests go direct.
func NewSupplier(ctx context.Context, proxies []string, testURL string) Supplier {
	if len(proxies) == 0 {
		return &supplier{}
	}

	log.Infof("🔄 Testing %d proxies in parallel...", len(proxies))

	working := make([]bool, len(proxies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelProbes)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			if isProxyValid(ctx, proxyURL, testURL) {
				working[i] = true
				log.Infof("✅ Proxy %s is working", proxyURL)
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
			}
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ Proxy supplier initialized with %d working proxies out of %d tested", len(valid), len(proxies))
	return &supplier{proxies: valid}
}

// Get returns the next proxy URL, or "" when none are available
func (p *supplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func (p *supplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

// isProxyValid reports whether testURL answers through proxyURL. Any HTTP
// response counts: the Bot API root answers 404 without a token.
func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		log.Debugf("Proxy test failed for %s: %v", proxyURL, err)
		return false
	}

	if resp.StatusCode() >= 500 {
		log.Debugf("Proxy test failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}

	return true
}
