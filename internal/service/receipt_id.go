package service

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator issues receipt identifiers
type IDGenerator interface {
	NewReceiptID(now time.Time) string
}

type receiptIDGenerator struct {
	seq atomic.Uint64
}

// NewReceiptIDGenerator returns ids shaped REC-<unix ms>-<sequence>-<random>.
// The sequence keeps ids distinct within a process even in the same
// millisecond; the random suffix separates processes.
func NewReceiptIDGenerator() IDGenerator {
	return &receiptIDGenerator{}
}

func (g *receiptIDGenerator) NewReceiptID(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REC-%d-%d-%s", now.UnixMilli(), g.seq.Add(1), random)
}

// Clock returns the current time. Services store times in UTC.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
