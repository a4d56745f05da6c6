package aggregation

import "errors"

var (
	// ErrConfigMissing indicates the guild has no tier role configuration.
	ErrConfigMissing = errors.New("role configuration missing")

	// ErrRoleNotFound indicates a configured tier role no longer exists in
	// the guild.
	ErrRoleNotFound = errors.New("configured role not found")

	// ErrInvalidWindow indicates the window start is after its end.
	ErrInvalidWindow = errors.New("window start is after window end")

	// ErrNoPriorAggregation indicates a "since last" window was requested but
	// the guild has never aggregated.
	ErrNoPriorAggregation = errors.New("no prior aggregation for guild")

	// ErrNoActivity indicates no messages were counted in the window.
	ErrNoActivity = errors.New("no activity in window")

	// ErrNoEligibleUsers indicates every counted user was filtered out by
	// exclusions or by having left the guild.
	ErrNoEligibleUsers = errors.New("no eligible users after exclusion filter")

	// ErrRenderFailure indicates the result card could not be rendered. The
	// run's counters are preserved so it can be retried.
	ErrRenderFailure = errors.New("failed to render result card")

	// ErrRunInProgress indicates another aggregation run for the same guild
	// has not finished yet.
	ErrRunInProgress = errors.New("aggregation already in progress for guild")
)
