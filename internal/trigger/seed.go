package trigger

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"time"
)

var processStart = time.Now()

// NewSeed mixes a tick counter, the wall-clock second/minute/hour and a hash of
// the host and process identity. Two instances started in the same instant on
// different hosts or processes get different sequences; the seed is not meant
// to be unpredictable.
func NewSeed(now time.Time) int64 {
	ticks := time.Since(processStart).Nanoseconds() + now.UnixNano()
	clockDigits := int64(now.Second()*10000 + now.Minute()*100 + now.Hour())
	return ticks + clockDigits + int64(instanceHash())
}

// NewRand returns a generator owned by a single loop.
func NewRand(now time.Time) *rand.Rand {
	return rand.New(rand.NewSource(NewSeed(now)))
}

func instanceHash() uint64 {
	hostname, _ := os.Hostname()
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s-%d", hostname, os.Getpid())))
	return h.Sum64()
}
