package auth

// CredentialsError reports a first-factor failure caused by the submitted
// credentials rather than by the system. Reason is recorded in audit events
// and never returned to the client.
type CredentialsError struct {
	Reason string
}

func (e *CredentialsError) Error() string {
	return e.Reason
}

const (
	reasonInvalidCredentials = "Invalid credentials"
	reasonUserNotActive      = "User not active"
)
