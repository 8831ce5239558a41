package matrix

import "matrix-shared-secret-auth/auth/sharedsecret"

// SharedSecretAuthPasswordGenerator generates the "passwords" which clients need to present
// to log in as a given user.
//
// This is the client-side counterpart of sharedsecret.Authenticator.
type SharedSecretAuthPasswordGenerator struct {
	sharedSecret string
}

func NewSharedSecretAuthPasswordGenerator(sharedSecret string) *SharedSecretAuthPasswordGenerator {
	return &SharedSecretAuthPasswordGenerator{
		sharedSecret: sharedSecret,
	}
}

func (me *SharedSecretAuthPasswordGenerator) GenerateForUserId(userId string) string {
	return sharedsecret.ComputeExpectedCode(userId, me.sharedSecret)
}
