package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrEmptyHost is returned by SetHost when the new host is blank.
var ErrEmptyHost = errors.New("host must not be empty")

// State holds the address of the device every adb command is aimed at.
// The host can be swapped at runtime; readers always see either the old
// or the new value, never a mix.
type State struct {
	mu   sync.RWMutex
	host string
	port int
}

// New creates session state targeting host:port.
func New(host string, port int) *State {
	return &State{host: host, port: port}
}

// Host returns the current device host.
func (s *State) Host() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// Target returns the "host:port" string adb uses as its device selector.
func (s *State) Target() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// SetHost replaces the device host and returns the new target string.
// The previous host is kept when the new one is blank.
func (s *State) SetHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrEmptyHost
	}
	s.mu.Lock()
	s.host = host
	target := fmt.Sprintf("%s:%d", s.host, s.port)
	s.mu.Unlock()
	return target, nil
}
