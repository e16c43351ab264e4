// Package domain contains domain errors used throughout the application.
package domain

import "errors"

// Sentinel errors for common error conditions.
var (
	ErrMissingDriverID  = errors.New("invalid credentials: driver id cannot be empty")
	ErrMissingToken     = errors.New("invalid credentials: token cannot be empty")
	ErrMissingEndpoint  = errors.New("invalid configuration: endpoint cannot be empty")
	ErrTransportClosed  = errors.New("transport is closed")
	ErrNotConnected     = errors.New("not connected")
	ErrHubNotRunning    = errors.New("event hub is not running")
	ErrSubscriberClosed = errors.New("subscriber is closed")
)
