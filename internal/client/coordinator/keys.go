package coordinator

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
)

// KeyGenerator hands out object keys whose millisecond stamps strictly
// increase, so two keys never collide even within one millisecond.
type KeyGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{now: now}
}

func (g *KeyGenerator) Next(label, ext string) string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return requirements.ObjectKey(label, time.UnixMilli(ms), ext)
}
