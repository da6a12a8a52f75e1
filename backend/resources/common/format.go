/*
 * backend/resources/common/format.go
 *
 * Formatting helpers for resource fields.
 */

package common

import (
	"time"

	"github.com/luxury-yacht/flowtest-console/backend/internal/timeutil"
)

// FormatAge mirrors kubectl style age formatting.
func FormatAge(t time.Time) string {
	return timeutil.FormatAge(t)
}

// FormatCreated renders a creation timestamp for tables.
func FormatCreated(t time.Time) string {
	return timeutil.FormatTimestamp(t)
}
