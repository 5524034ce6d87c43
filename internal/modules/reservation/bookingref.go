package reservation

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	refPrefix    = "VL-"
	refClockLen  = 4
	refRandomLen = 4
	base36Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// largest multiple of 36 below 256; bytes at or above it are redrawn
	base36Cutoff = 252
)

// RefSource hands out booking reference candidates. Uniqueness is enforced by
// the store, not by the source.
type RefSource interface {
	Next() (string, error)
}

// RefGenerator builds references shaped VL-XXXXYYYY: the last four base-36
// digits of the current Unix millisecond followed by four random base-36 digits.
type RefGenerator struct {
	now  func() time.Time
	rand io.Reader
}

func NewRefGenerator() *RefGenerator {
	return &RefGenerator{now: time.Now, rand: rand.Reader}
}

func (g *RefGenerator) Next() (string, error) {
	clock := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	if len(clock) > refClockLen {
		clock = clock[len(clock)-refClockLen:]
	} else {
		clock = strings.Repeat("0", refClockLen-len(clock)) + clock
	}

	random, err := g.randomDigits(refRandomLen)
	if err != nil {
		return "", fmt.Errorf("booking ref: %w", err)
	}
	return refPrefix + clock + random, nil
}

func (g *RefGenerator) randomDigits(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		chunk := buf[:n-len(out)]
		if _, err := io.ReadFull(g.rand, chunk); err != nil {
			return "", err
		}
		for _, b := range chunk {
			if b < base36Cutoff {
				out = append(out, base36Digits[int(b)%36])
			}
		}
	}
	return string(out), nil
}
