package models

import "fmt"

// Scope is the kind of API key requested from Flotiq
type Scope string

const (
	ScopeReadOnly  Scope = "read-only"
	ScopeReadWrite Scope = "read-write"
	ScopeBoth      Scope = "both"
)

// KeyType returns the key_type query value the login page expects
func (s Scope) KeyType() (string, error) {
	switch s {
	case ScopeReadOnly:
		return "ro", nil
	case ScopeReadWrite:
		return "rw", nil
	case ScopeBoth:
		return "both", nil
	default:
		return "", fmt.Errorf("unknown scope: %q", string(s))
	}
}

// WantsReadOnly reports whether the read-only key is part of the scope
func (s Scope) WantsReadOnly() bool {
	return s == ScopeReadOnly || s == ScopeBoth
}

// WantsReadWrite reports whether the read-write key is part of the scope
func (s Scope) WantsReadWrite() bool {
	return s == ScopeReadWrite || s == ScopeBoth
}

// Status is the outcome reported by the login page on the callback
type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// LoginRequest describes the redirect sent to the login page
type LoginRequest struct {
	AuthEndpoint string
	Port         int
	Scope        Scope
}

// CallbackResult represents the keys delivered by a successful callback
type CallbackResult struct {
	APIKeyReadOnly  string
	APIKeyReadWrite string
	Status          Status
}
