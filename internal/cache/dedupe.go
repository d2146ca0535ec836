package cache

import (
	"strconv"
	"sync"
	"time"
)

// Dedupe remembers keys for a bounded window so redelivered inbound
// updates can be dropped. Long polling redelivers updates after a
// reconnect; handling one twice would double-register players or send a
// reply twice. Safe for concurrent use.
type Dedupe struct {
	mu      sync.Mutex
	seen    map[string]int64 // key -> unix milliseconds
	ttl     time.Duration
	maxSize int
}

// NewDedupe creates a dedupe window. TTL <= 0 means keys never expire;
// MaxSize <= 0 means nothing is remembered (every key reads as new).
func NewDedupe(opts Options) *Dedupe {
	return &Dedupe{
		seen:    make(map[string]int64),
		ttl:     opts.TTL,
		maxSize: opts.MaxSize,
	}
}

// Seen reports whether key was recorded within the window, recording it
// either way.
func (d *Dedupe) Seen(key string) bool {
	return d.seenAt(key, time.Now())
}

func (d *Dedupe) seenAt(key string, now time.Time) bool {
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	nowMS := now.UnixMilli()
	ts, ok := d.seen[key]
	d.seen[key] = nowMS
	if ok && (d.ttl <= 0 || nowMS-ts < d.ttl.Milliseconds()) {
		return true
	}
	d.sweep(nowMS)
	return false
}

// sweep drops expired keys, then the oldest keys past the size bound.
func (d *Dedupe) sweep(nowMS int64) {
	if d.ttl > 0 {
		cutoff := nowMS - d.ttl.Milliseconds()
		for k, ts := range d.seen {
			if ts < cutoff {
				delete(d.seen, k)
			}
		}
	}

	if d.maxSize <= 0 {
		d.seen = make(map[string]int64)
		return
	}
	for len(d.seen) > d.maxSize {
		oldestKey := ""
		oldestTS := int64(1<<63 - 1)
		for k, ts := range d.seen {
			if ts < oldestTS {
				oldestKey, oldestTS = k, ts
			}
		}
		delete(d.seen, oldestKey)
	}
}

// Len returns the number of remembered keys.
func (d *Dedupe) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// UpdateKey builds the dedupe key for one chat message.
func UpdateKey(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}
