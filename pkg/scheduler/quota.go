package scheduler

import "math"

// PlanQuotas decides how many staff should be OFF on each day of the horizon.
// Weekends are seeded first from the weekend ratio, the rest of the total
// off-need is spread over weekdays, and every quota is capped so that at
// least MinWorkingPerDay of totalStaff remain working.
func PlanQuotas(h Horizon, offNeeds []int, opts Options) []int {
	days := h.Len()
	quotas := make([]int, days)
	if days == 0 {
		return quotas
	}

	totalStaff := len(offNeeds)
	ceiling := max(0, totalStaff-opts.MinWorkingPerDay)

	weekendQuota := int(math.Floor(float64(totalStaff) * opts.WeekendOffRatio))
	var weekends, weekdays []int
	weekendSum := 0
	for i := 0; i < days; i++ {
		if h.IsWeekend(i) {
			weekends = append(weekends, i)
			quotas[i] = weekendQuota
			weekendSum += weekendQuota
		} else {
			weekdays = append(weekdays, i)
		}
	}

	totalOffNeed := 0
	for _, need := range offNeeds {
		totalOffNeed += need
	}

	remainder := totalOffNeed - weekendSum
	switch {
	case remainder < 0:
		deficit := -remainder
		for _, i := range weekends {
			if deficit == 0 {
				break
			}
			cut := min(deficit, quotas[i], ceiling)
			quotas[i] -= cut
			deficit -= cut
		}
	case remainder > 0:
		targets := weekdays
		if len(targets) == 0 {
			targets = make([]int, days)
			for i := range targets {
				targets[i] = i
			}
		}
		spreadRemainder(quotas, targets, remainder)
	}

	for i := range quotas {
		quotas[i] = min(quotas[i], ceiling)
	}
	return quotas
}

// spreadRemainder hands out one slot per target day per pass. A final partial
// pass is placed on evenly spaced targets instead of the leading ones so rest
// days do not bunch up at the start of the horizon. This intentionally departs
// from a plain round-robin that would fill the leading weekdays first.
func spreadRemainder(quotas, targets []int, remainder int) {
	n := len(targets)
	full := remainder / n
	if full > 0 {
		for _, i := range targets {
			quotas[i] += full
		}
	}

	partial := remainder % n
	for k := 0; k < partial; k++ {
		idx := (2*k + 1) * n / (2 * partial)
		quotas[targets[idx]]++
	}
}
