package sharedsecret

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AccountDirectory tells if an account exists on the homeserver.
//
// Implementations may block (network calls, etc.) and should respect context cancellation.
// An error means "existence unknown", which the Authenticator treats as a rejection.
type AccountDirectory interface {
	AccountExists(ctx context.Context, userId string) (bool, error)
}

type RejectionReason string

const (
	RejectionReasonNone                 RejectionReason = ""
	RejectionReasonBadMac               RejectionReason = "bad-mac"
	RejectionReasonNotAllowListed       RejectionReason = "not-allow-listed"
	RejectionReasonIdentityDoesNotExist RejectionReason = "identity-does-not-exist"

	// RejectionReasonDirectoryUnavailable is used when the account directory failed to answer.
	// Unknown existence is treated the same as non-existence.
	RejectionReasonDirectoryUnavailable RejectionReason = "directory-unavailable"
)

// Result is the outcome of a single verification attempt.
// Reasons are only meant for internal diagnostics and should never be shown to the client.
type Result struct {
	Accepted bool
	Reason   RejectionReason
}

func accepted() Result {
	return Result{Accepted: true, Reason: RejectionReasonNone}
}

func rejected(reason RejectionReason) Result {
	return Result{Accepted: false, Reason: reason}
}

// Authenticator verifies "passwords" which are really HMACs of the user id, keyed with a shared secret.
//
// Clients (like matrix-corporal) that know the shared secret can thus log in as any allowed user
// which exists on the homeserver.
type Authenticator struct {
	configuration *Configuration
	directory     AccountDirectory
	logger        *logrus.Logger
}

func NewAuthenticator(
	configuration *Configuration,
	directory AccountDirectory,
	logger *logrus.Logger,
) *Authenticator {
	if configuration.AllowListEnabled() {
		logger.Debugf("Shared secret authenticator allow-list: %v", configuration.AllowList().Patterns())
	} else {
		logger.Debugf("Shared secret authenticator allow-list gate is disabled")
	}

	return &Authenticator{
		configuration: configuration,
		directory:     directory,
		logger:        logger,
	}
}

// Verify runs the user id and presented code through all gates (MAC, allow-list, account existence),
// stopping at the first one which fails.
func (me *Authenticator) Verify(ctx context.Context, userId, presentedCode string) Result {
	logger := me.logger.WithField("userId", userId)

	logger.Info("Authenticating user")

	// An empty key would make codes computable by anyone.
	sharedSecret := me.configuration.SharedSecret()
	if sharedSecret == "" || !IsValidCode(ComputeExpectedCode(userId, sharedSecret), presentedCode) {
		logger.WithField("reason", RejectionReasonBadMac).Info("Bad hmac value for user")
		return rejected(RejectionReasonBadMac)
	}

	if !me.configuration.IsAllowed(userId) {
		logger.WithField("reason", RejectionReasonNotAllowListed).Info("Refusing to authenticate user not on the allow-list")
		return rejected(RejectionReasonNotAllowListed)
	}

	exists, err := me.directory.AccountExists(ctx, userId)
	if err != nil {
		logger.WithField("reason", RejectionReasonDirectoryUnavailable).Warnf(
			"Refusing to authenticate user, as account existence could not be determined: %s",
			err,
		)
		return rejected(RejectionReasonDirectoryUnavailable)
	}
	if !exists {
		logger.WithField("reason", RejectionReasonIdentityDoesNotExist).Info("Refusing to authenticate missing user")
		return rejected(RejectionReasonIdentityDoesNotExist)
	}

	logger.Info("Authenticated user")

	return accepted()
}

// CheckPassword is like Verify, but collapses all rejection reasons into `false`.
func (me *Authenticator) CheckPassword(ctx context.Context, userId, presentedCode string) bool {
	return me.Verify(ctx, userId, presentedCode).Accepted
}
