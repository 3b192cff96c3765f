package schedule

import "errors"

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleExists   = errors.New("schedule id already exists")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)
