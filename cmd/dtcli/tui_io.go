package main

import (
	"github.com/grovetools/dtcli/internal/tracker"
)

// framesMsg carries one complete frame-set published by the engine
type framesMsg []tracker.Frame

// launchedMsg is sent once every target has been launched or has failed to launch
type launchedMsg struct {
	results []tracker.Result
}

// evictedMsg reports a job the engine stopped following because its status checks kept failing
type evictedMsg struct {
	job    tracker.TrackedJob
	reason tracker.EvictReason
}
