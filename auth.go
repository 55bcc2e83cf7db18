package mqttcore

import "context"

// Credentials is a refreshed username/password pair supplied by an
// Authenticator.
type Credentials struct {
	Username string
	Password string
}

// Authenticator is an injected credential-acquisition capability, modeled
// per spec.md §9 on the original's process-wide
// iotx_get_device_info()/iotx_get_user_info() calls, which this client
// replaces with an explicit collaborator instead of global state. It is
// consulted once at initial connect and once before every reconnect
// attempt (spec.md §4.8): "perform
// authentication refresh via the Authenticator; if that fails, return
// failure... do not advance backoff."
type Authenticator interface {
	// Authenticate returns fresh credentials, or an error if none are
	// currently available (e.g. a token service is unreachable).
	Authenticate(ctx context.Context) (Credentials, error)
}

// StaticAuthenticator always returns the same credentials. It is the
// default when Config.Username/Password are set directly and no
// Authenticator is configured, grounded on the teacher's unauthenticated
// default connect path (no AuthHandler configured).
type StaticAuthenticator struct {
	Credentials Credentials
}

func (s StaticAuthenticator) Authenticate(ctx context.Context) (Credentials, error) {
	return s.Credentials, nil
}
