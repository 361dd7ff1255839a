package service

// Auth events reported to AuthMetrics.
const (
	AuthEventRegister = "register"
	AuthEventLogin    = "login"
)

// Auth outcomes reported to AuthMetrics.
const (
	AuthOutcomeSuccess  = "success"
	AuthOutcomeConflict = "conflict"
	AuthOutcomeRejected = "rejected"
	AuthOutcomeError    = "error"
)

// AuthMetrics records the outcome of every registration and login attempt.
type AuthMetrics interface {
	RecordAuthAttempt(event, outcome string)
}
