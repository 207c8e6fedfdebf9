// Package auth implements the admin authentication flow.
//
// Login verifies credentials through a CredentialVerifier and then reads the
// advanced settings. When multi-factor authentication is disabled a JWT is
// issued right away. When it is enabled a six digit code is mailed to the
// admin, a session.VerificationChallenge is attached to the session and no
// token is returned until VerifyMFA succeeds:
//
//	ANONYMOUS -> CREDENTIALS_VERIFIED -> AUTHENTICATED
//	                                  -> MFA_PENDING -> AUTHENTICATED
//
// The session is passed in and returned explicitly by every phase. Callers
// must persist the returned session even when an error is returned, since a
// failed second factor discards the challenge.
//
// Registration, first admin creation, token renewal and password reset are
// provided by the same AuthService.
package auth
