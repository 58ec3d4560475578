package domain

import (
	"strconv"
	"sync/atomic"
	"time"
)

var lastCardMillis int64

// nextCardMillis returns a strictly increasing millisecond timestamp so that
// two cards minted within the same millisecond still get distinct ids.
func nextCardMillis() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastCardMillis)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastCardMillis, last, now) {
			return now
		}
	}
}

// NewCardID mints a card id. Ids are time-based tokens and are never reused.
func NewCardID() string {
	return "task-" + strconv.FormatInt(nextCardMillis(), 10)
}

func timeSuffix() string {
	return strconv.FormatInt(nextCardMillis(), 36)
}
