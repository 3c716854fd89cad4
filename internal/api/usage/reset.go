package usage

import "time"

// ResetTZOffsetMinutes is the fixed UTC offset of the usage day (KST, no DST).
const ResetTZOffsetMinutes = 540

const resetOffset = ResetTZOffsetMinutes * time.Minute

// NextResetTime returns the UTC instant of the next local midnight after now.
func NextResetTime(now time.Time) time.Time {
	local := now.UTC().Add(resetOffset)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Add(-resetOffset)
}

// UsageDate returns the local calendar day containing now, as 00:00 UTC of
// that date. It is the key of per-day usage records.
func UsageDate(now time.Time) time.Time {
	local := now.UTC().Add(resetOffset)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
