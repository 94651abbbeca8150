package dto

// SweepResponse reports a batch pass over independently-failable units.
// Failed units are logged with retry context and never abort the sweep.
type SweepResponse struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// ReminderSweepResponse reports reminders actually dispatched (not attempted)
type ReminderSweepResponse struct {
	Considered int `json:"considered"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}
