package handler

const (
	errInternalServer    = "Internal server error"
	errTriggerRunning    = "Trigger is already running"
	errTriggerNotRunning = "Trigger is not running"
	errInvalidInterval   = "interval_seconds must be between 1 and 9223372036"
	errInvalidJitter     = "Jitter bounds and sigma must be within ten years"
	errFireNotFound      = "Fire event not found"
	errHistoryDisabled   = "Fire history is not enabled"
	errInvalidCursor     = "Invalid cursor"
	errInvalidSince      = "since must be an RFC3339 timestamp"
)
