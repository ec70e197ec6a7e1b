package lsf

import (
	"testing"
	"time"

	"lsfassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestCurrentTerm(t *testing.T) {
	day := func(year int, month time.Month) time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, timezone.Location)
	}

	require.Equal(t, "Sommersemester 2025", CurrentTerm(day(2025, time.April)))
	require.Equal(t, "Sommersemester 2025", CurrentTerm(day(2025, time.September)))
	require.Equal(t, "Wintersemester 2025/26", CurrentTerm(day(2025, time.October)))
	require.Equal(t, "Wintersemester 2025/26", CurrentTerm(day(2025, time.December)))
	require.Equal(t, "Wintersemester 2025/26", CurrentTerm(day(2026, time.January)))
	require.Equal(t, "Wintersemester 2025/26", CurrentTerm(day(2026, time.March)))

	// century rollover keeps the two-digit suffix zero-padded
	require.Equal(t, "Wintersemester 2099/00", CurrentTerm(day(2099, time.November)))
}
