// Package alert implements the background due-dose scanner and the alert
// view served to polling dispenser devices.
package alert

import "sync"

// State tracks which devices currently have a raised alert flag. It lives in
// memory only and resets on restart; the poll endpoint recomputes alert
// status from the database, so a lost flag costs at most a redundant raise.
type State struct {
	mu     sync.RWMutex
	raised map[string]bool
}

// NewState creates an empty alert state.
func NewState() *State {
	return &State{raised: make(map[string]bool)}
}

// Raise marks a device's alert flag. Returns false if it was already raised.
func (s *State) Raise(deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raised[deviceID] {
		return false
	}
	s.raised[deviceID] = true
	return true
}

// Clear drops a device's alert flag. Returns false if it was not raised.
func (s *State) Clear(deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.raised[deviceID] {
		return false
	}
	delete(s.raised, deviceID)
	return true
}

// Active reports whether a device's alert flag is currently raised.
func (s *State) Active(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raised[deviceID]
}
