package scheduling

import "errors"

var (
	ErrDoctorNotFound      = errors.New("scheduling: doctor not found")
	ErrPatientNotFound     = errors.New("scheduling: patient not found")
	ErrAppointmentNotFound = errors.New("scheduling: appointment not found")
	ErrInvalidState        = errors.New("scheduling: invalid appointment state")
	ErrInvalidPreferences  = errors.New("scheduling: invalid doctor preferences")
	ErrQueueBusy           = errors.New("scheduling: doctor queue is busy, retry")
)
