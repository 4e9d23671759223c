package scheduling

import "sort"

// ComputeETA simulates the doctor's queue for one day and returns the live
// estimate for the appointment with targetID. The simulation walks the day's
// appointments in current-time order, starting the clock at the first
// appointment's current time. Completed visits consume no future clock time
// and hold no queue position. If the target is missing from the day's list
// the estimate falls back to the target's own current time.
func ComputeETA(target *Appointment, day []*Appointment) ETA {
	ordered := make([]*Appointment, len(day))
	copy(ordered, day)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CurrentTime < ordered[j].CurrentTime
	})

	eta := ETA{
		OriginalTime:        target.ScheduledTime,
		ETATime:             target.CurrentTime,
		CurrentDelayMinutes: 0,
		QueuePosition:       1,
	}

	clock := target.CurrentTime
	if len(ordered) > 0 {
		clock = ordered[0].CurrentTime
	}
	position := 1
	found := false

	for _, appt := range ordered {
		if appt.ID == target.ID {
			eta.ETATime = clock
			eta.QueuePosition = position
			found = true
			break
		}
		if appt.Status == StatusCompleted {
			continue
		}
		slot := appt.SlotMinutes
		if slot <= 0 {
			slot = defaultSlotMinutes
		}
		clock = clock.AddMinutes(slot)
		position++
	}
	if !found {
		eta.ETATime = target.CurrentTime
		eta.QueuePosition = position
	}

	delay := MinutesBetween(target.ScheduledInstant(), ToInstant(target.Date, eta.ETATime))
	if delay < 0 {
		delay = 0
	}
	eta.CurrentDelayMinutes = delay
	return eta
}

const defaultSlotMinutes = 20

// EstimateDoctorDelay reports how far behind the doctor is running on the
// given day, in minutes. It looks at the most recently scheduled appointment
// the doctor has started or finished and compares its actual visit start to
// its booked slot. A doctor with no started visits is on time.
func EstimateDoctorDelay(day []*Appointment) int {
	ordered := make([]*Appointment, len(day))
	copy(ordered, day)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ScheduledTime < ordered[j].ScheduledTime
	})

	var last *Appointment
	for _, appt := range ordered {
		if appt.Status == StatusInProgress || appt.Status == StatusCompleted {
			last = appt
		}
	}
	if last == nil || last.VisitStartTime == nil {
		return 0
	}
	delay := MinutesBetween(last.ScheduledInstant(), *last.VisitStartTime)
	if delay < 0 {
		return 0
	}
	return delay
}
