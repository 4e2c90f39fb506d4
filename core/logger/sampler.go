package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// debugRatio lets through n out of every d events. A zero ratio lets everything through.
type debugRatio struct {
	n, d uint64
}

type ratioSampler struct {
	ratio atomic.Pointer[debugRatio]
	seen  atomic.Uint64
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

// Set replaces the ratio and restarts counting.
func (s *ratioSampler) Set(n, d int) {
	r := &debugRatio{}
	if n > 0 && d > 0 {
		r.n, r.d = uint64(min(n, d)), uint64(d)
	}
	s.ratio.Store(r)
	s.seen.Store(0)
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil || r.d == 0 {
		return true
	}
	return (s.seen.Add(1)-1)%r.d < r.n
}

// parseRatioSpec reads "n/d" or a bare "d" meaning 1/d. Anything invalid disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return n, d
	}
	d, err := strconv.Atoi(spec)
	if err != nil || d <= 0 {
		return 0, 0
	}
	return 1, d
}
