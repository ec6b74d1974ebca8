// Package config provides configuration for the collector endpoint.
package config

const (
	// DefaultListenPort is the UDP port envelopes arrive on.
	DefaultListenPort = 1555

	// DefaultHTTPAddress is where the HTTP API listens.
	DefaultHTTPAddress = "localhost:8080"

	// DefaultRetention is how many envelopes the in-memory storage keeps
	// per host.
	DefaultRetention = 256
)
