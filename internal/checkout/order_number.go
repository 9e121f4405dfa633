package checkout

import (
	"encoding/base32"
	"fmt"
	"io"
	"time"
)

const (
	orderNumberPrefix   = "ATT"
	orderNumberAttempts = 5
)

// newOrderNumber returns ATT-YYYYMMDD-XXXXXX with six random base32 chars.
func newOrderNumber(now time.Time, random io.Reader) (string, error) {
	var b [5]byte
	if _, err := io.ReadFull(random, b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	suffix := base32.StdEncoding.EncodeToString(b[:])[:6]
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.UTC().Format("20060102"), suffix), nil
}
