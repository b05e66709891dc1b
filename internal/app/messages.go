package app

type (
	// callbackMsg runs a queued completion on the update loop.
	callbackMsg struct{ fn func() }

	refreshRequestMsg  struct{}
	autoRefreshTickMsg struct{}
	checkpointTickMsg  struct{}
	watchEventMsg      struct{}
)
