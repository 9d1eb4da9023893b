package comments_test

import (
	"testing"
	"time"
)

func testTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
}
