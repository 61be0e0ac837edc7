package billing

import "time"

// AddMonthsUTC adds calendar months keeping the day-of-month, clamped
// to the last valid day of the target month. The clock-of-day is
// preserved. Unlike time.AddDate, Jan 31 + 1 month is Feb 28/29, not
// Mar 2/3.
func AddMonthsUTC(t time.Time, months int) time.Time {
	t = t.UTC()
	year, month, day := t.Date()

	raw := int(month) - 1 + months
	targetYear := year + floorDiv(raw, 12)
	targetMonth := time.Month(mod(raw, 12) + 1)

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// sameDayUTC reports whether two instants fall on the same UTC
// calendar day. This is a day-equality check, not a 24h window.
func sameDayUTC(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// advanceCycle steps cycleStart forward one month at a time until the
// cycle containing now is found, returning the new cycle start and the
// number of whole cycles that elapsed. Stepping is the canonical
// semantics: clamping at month ends makes iterated single steps differ
// from a single multi-month jump. Once the running start's day-of-month
// is 28 or lower clamping can no longer occur, so the remaining months
// are jumped in one call, bounding the loop for arbitrarily long gaps.
func advanceCycle(cycleStart, now time.Time) (time.Time, int) {
	start := cycleStart
	end := AddMonthsUTC(start, 1)
	cycles := 0
	for !now.Before(end) {
		start = end
		cycles++
		if start.Day() <= 28 {
			if skip := wholeMonthsBetween(start, now); skip > 0 {
				start = AddMonthsUTC(start, skip)
				cycles += skip
			}
		}
		end = AddMonthsUTC(start, 1)
	}
	return start, cycles
}

// wholeMonthsBetween returns the largest k >= 0 such that from plus k
// months does not pass to. Callers must ensure from.Day() <= 28 so the
// addition cannot clamp.
func wholeMonthsBetween(from, to time.Time) int {
	k := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if k > 0 && AddMonthsUTC(from, k).After(to) {
		k--
	}
	if k < 0 {
		return 0
	}
	return k
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
