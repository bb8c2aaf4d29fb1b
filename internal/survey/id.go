package survey

import (
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

const idSuffixLen = 9

// NewID returns "<unix-millis>-<suffix>" with a 9 character random suffix.
func NewID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix())
}

// NewTestDeviceID returns a synthetic device id for generated records.
func NewTestDeviceID(now time.Time) string {
	return fmt.Sprintf("test-%d-%s", now.UnixMilli(), suffix())
}

func suffix() string {
	s := shortuuid.New()
	if len(s) > idSuffixLen {
		s = s[:idSuffixLen]
	}
	return s
}
