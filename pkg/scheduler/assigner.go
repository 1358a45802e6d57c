package scheduler

import "sort"

// assignDay labels every staff member for day i. All decisions are made
// against the state at the start of the day and committed together.
func (s *Scheduler) assignDay(i int) {
	days := s.Horizon.Len()
	labels := make([]Label, len(s.Staff))
	restedByQuota := make([]bool, len(s.Staff))

	// Pass 1: rest days for the staff furthest behind their rest pace
	var candidates []int
	for idx, st := range s.Staff {
		if st.canTakeOff() {
			candidates = append(candidates, idx)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return s.Staff[candidates[a]].offDebt(i, days) > s.Staff[candidates[b]].offDebt(i, days)
	})
	take := min(s.Quotas[i], len(candidates))
	for _, idx := range candidates[:take] {
		labels[idx] = LabelOff
		restedByQuota[idx] = true
	}

	// Pass 2: everyone else works, furthest behind their work pace first
	var remaining []int
	for idx := range s.Staff {
		if labels[idx] == LabelNone {
			remaining = append(remaining, idx)
		}
	}
	sort.SliceStable(remaining, func(a, b int) bool {
		return s.Staff[remaining[a]].workDebt(i, days) > s.Staff[remaining[b]].workDebt(i, days)
	})
	dayTarget := len(remaining) / 2
	nightTarget := len(remaining) - dayTarget

	for _, idx := range remaining {
		st := s.Staff[idx]
		switch {
		case st.LastLabel == LabelDay && dayTarget > 0 && st.canWork(LabelDay):
			labels[idx] = LabelDay
			dayTarget--
		case st.LastLabel == LabelNight && nightTarget > 0 && st.canWork(LabelNight):
			labels[idx] = LabelNight
			nightTarget--
		}
	}

	for _, idx := range remaining {
		if labels[idx] != LabelNone {
			continue
		}
		st := s.Staff[idx]
		canDay, canNight := st.canWork(LabelDay), st.canWork(LabelNight)

		var label Label
		switch {
		case canDay && canNight:
			label = LabelDay
			if nightTarget > dayTarget {
				label = LabelNight
			}
		case canDay:
			label = LabelDay
		case canNight:
			label = LabelNight
		default:
			label = st.relaxedWork()
			if label == LabelNone {
				label = LabelOff
			} else {
				s.diagnostics.RelaxedFlips++
			}
		}

		switch label {
		case LabelDay:
			if dayTarget > 0 {
				dayTarget--
			}
		case LabelNight:
			if nightTarget > 0 {
				nightTarget--
			}
		}
		labels[idx] = label
	}

	// Pass 3: the coverage floor overrides rest quotas and the work cap
	working := 0
	var rested []int
	for idx, label := range labels {
		if label.IsWork() {
			working++
		} else {
			rested = append(rested, idx)
		}
	}
	if working < s.Options.MinWorkingPerDay {
		sort.SliceStable(rested, func(a, b int) bool {
			sa, sb := s.Staff[rested[a]], s.Staff[rested[b]]
			if sa.hasCapacity() != sb.hasCapacity() {
				return sa.hasCapacity()
			}
			return sa.workDebt(i, days) > sb.workDebt(i, days)
		})
		for _, idx := range rested {
			if working >= s.Options.MinWorkingPerDay {
				break
			}
			label := LabelDay
			if s.Staff[idx].extendsRun(LabelDay) {
				label = LabelNight
			}
			labels[idx] = label
			working++
			s.diagnostics.CoverageRepairs++
		}
	}

	for idx, st := range s.Staff {
		if labels[idx] == LabelOff && !restedByQuota[idx] {
			s.diagnostics.ForcedRest++
		}
		st.assign(labels[idx])
	}
}
