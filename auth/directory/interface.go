package directory

import "matrix-shared-secret-auth/auth/sharedsecret"

// Directory is an account directory with a lifecycle.
type Directory interface {
	sharedsecret.AccountDirectory

	Type() string

	// Start prepares the directory for use.
	// The directory may validate its configuration and return an error immediately.
	Start() error

	// Stop releases resources held by the directory.
	Stop()
}

const (
	TypeSynapseAdmin = "synapse_admin"
	TypeStaticFile   = "static_file"
)
