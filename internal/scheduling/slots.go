package scheduling

import "sort"

// SlotOptions bounds the candidate grid for slot recommendation.
type SlotOptions struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
}

// DefaultSlotOptions covers the morning clinic window.
func DefaultSlotOptions() SlotOptions {
	return SlotOptions{StartHour: 9, EndHour: 13, SlotMinutes: 20}
}

func (o SlotOptions) normalized() SlotOptions {
	d := DefaultSlotOptions()
	if o.StartHour <= 0 {
		o.StartHour = d.StartHour
	}
	if o.EndHour <= o.StartHour {
		o.EndHour = o.StartHour + (d.EndHour - d.StartHour)
	}
	if o.SlotMinutes <= 0 {
		o.SlotMinutes = d.SlotMinutes
	}
	return o
}

// Slot is one candidate booking time with its projected wait.
type Slot struct {
	Time            TimeOfDay `json:"time"`
	ExpectedWaitMin int       `json:"estimated_wait_minutes"`
}

// SlotRecommendation ranks a day's candidate slots by projected wait.
type SlotRecommendation struct {
	Recommended []Slot `json:"recommended"`
	All         []Slot `json:"all_slots"`
}

// RecommendSlots ranks every candidate slot in the window by the wait a new
// booking would inherit. The projected wait at a slot is one slot length per
// active appointment already queued at or before it. Ordering is stable, so
// equal-wait slots stay in clock order. The top three form the recommended
// list.
func RecommendSlots(day []*Appointment, opts SlotOptions) SlotRecommendation {
	opts = opts.normalized()

	var all []Slot
	start := TimeOfDay(opts.StartHour * 60)
	end := TimeOfDay(opts.EndHour * 60)
	for t := start; t < end; t = t.AddMinutes(opts.SlotMinutes) {
		queued := 0
		for _, appt := range day {
			if appt.Status == StatusCompleted {
				continue
			}
			if appt.CurrentTime <= t {
				queued++
			}
		}
		all = append(all, Slot{Time: t, ExpectedWaitMin: queued * opts.SlotMinutes})
	}

	ranked := make([]Slot, len(all))
	copy(ranked, all)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ExpectedWaitMin < ranked[j].ExpectedWaitMin
	})

	top := 3
	if len(ranked) < top {
		top = len(ranked)
	}
	return SlotRecommendation{Recommended: ranked[:top], All: ranked}
}
