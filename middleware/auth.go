package middleware

import (
	"context"
	"net/textproto"
	"strings"

	"github.com/felixgeelhaar/jsonrpc-go/protocol"
)

// Authenticator validates the credentials attached to a request. A nil
// identity with a nil error means no usable credentials were found; the
// middleware treats both outcomes as a denial.
type Authenticator func(ctx context.Context, req *protocol.Request) (*Identity, error)

// Identity is the authenticated caller. Handlers read it back with
// IdentityFromContext.
type Identity struct {
	// ID uniquely identifies the caller, such as a user or API key id.
	ID string
	// Name is a display name.
	Name string
	// Metadata carries any extra attributes the authenticator resolved.
	Metadata map[string]any
}

type identityContextKey struct{}

// ContextWithIdentity returns a context carrying the identity.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity established by Auth, or nil when
// the request was not authenticated (skipped method, or no Auth middleware).
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*Identity)
	return identity
}

// AuthOption configures the Auth middleware.
type AuthOption func(*authConfig)

type authConfig struct {
	logger      Logger
	skip        map[string]bool
	realm       string
	denyMessage string
}

// WithAuthLogger sets the logger for denied and granted requests.
func WithAuthLogger(l Logger) AuthOption {
	return func(c *authConfig) { c.logger = l }
}

// WithAuthSkipMethods exempts methods from authentication. Health checks and
// rpc.discover are the usual candidates.
func WithAuthSkipMethods(methods ...string) AuthOption {
	return func(c *authConfig) {
		for _, m := range methods {
			c.skip[m] = true
		}
	}
}

// WithAuthRealm names the protection realm. When set, denials carry the
// realm in the error data so clients know which credentials to present.
func WithAuthRealm(realm string) AuthOption {
	return func(c *authConfig) { c.realm = realm }
}

// WithAuthErrorMessage overrides the message on denial errors.
func WithAuthErrorMessage(msg string) AuthOption {
	return func(c *authConfig) { c.denyMessage = msg }
}

// Auth returns middleware that authenticates every request through the
// given authenticator. Denied requests fail with code -32001 and the method
// is never invoked. A denied notification produces no wire output; the log
// is where it surfaces.
func Auth(authenticator Authenticator, opts ...AuthOption) Middleware {
	cfg := &authConfig{
		skip:        map[string]bool{},
		denyMessage: "authentication required",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skip[req.Method] {
				return next(ctx, req)
			}

			identity, err := authenticator(ctx, req)
			if err != nil {
				return nil, cfg.deny(req, err.Error())
			}
			if identity == nil {
				return nil, cfg.deny(req, "no identity")
			}

			if cfg.logger != nil {
				cfg.logger.Debug("authenticated",
					F("method", req.Method),
					F("identity", identity.ID),
				)
			}
			return next(ContextWithIdentity(ctx, identity), req)
		}
	}
}

func (c *authConfig) deny(req *protocol.Request, reason string) *protocol.Error {
	if c.logger != nil {
		c.logger.Warn("authentication failed",
			F("method", req.Method),
			F("reason", reason),
		)
	}
	e := protocol.NewUnauthorized(c.denyMessage)
	if c.realm != "" {
		e = e.WithData(map[string]string{"realm": c.realm})
	}
	return e
}

// metaValue reads a transport metadata entry. Pipe transports store names
// as given, HTTP canonicalizes them (X-API-Key arrives as X-Api-Key), so
// the lookup tries the exact, lowercase, and canonical MIME forms.
func metaValue(ctx context.Context, name string) string {
	if v := protocol.GetRequestMeta(ctx, name); v != "" {
		return v
	}
	if v := protocol.GetRequestMeta(ctx, strings.ToLower(name)); v != "" {
		return v
	}
	return protocol.GetRequestMeta(ctx, textproto.CanonicalMIMEHeaderKey(name))
}

// APIKeyAuthenticator authenticates by a key carried in transport metadata
// under headerName. The HTTP and WebSocket transports record incoming
// headers as metadata; pipe-based setups can seed the same entries by hand.
// validate returns the identity for a known key and nil otherwise.
func APIKeyAuthenticator(headerName string, validate func(key string) *Identity) Authenticator {
	return func(ctx context.Context, _ *protocol.Request) (*Identity, error) {
		key := metaValue(ctx, headerName)
		if key == "" {
			return nil, nil
		}
		return validate(key), nil
	}
}

// BearerTokenAuthenticator authenticates by an Authorization bearer token.
// validate returns the identity for a known token and nil otherwise.
func BearerTokenAuthenticator(validate func(token string) *Identity) Authenticator {
	return func(ctx context.Context, _ *protocol.Request) (*Identity, error) {
		const prefix = "Bearer "
		header := metaValue(ctx, "Authorization")
		if !strings.HasPrefix(header, prefix) {
			return nil, nil
		}
		token := strings.TrimPrefix(header, prefix)
		if token == "" {
			return nil, nil
		}
		return validate(token), nil
	}
}

// StaticAPIKeys builds a key validator from a fixed key-to-identity map.
func StaticAPIKeys(keys map[string]*Identity) func(string) *Identity {
	return func(key string) *Identity { return keys[key] }
}

// StaticTokens builds a token validator from a fixed token-to-identity map.
func StaticTokens(tokens map[string]*Identity) func(string) *Identity {
	return func(token string) *Identity { return tokens[token] }
}

// ChainAuthenticators tries each authenticator in order and stops at the
// first identity or error. All-nil results mean no credentials matched.
func ChainAuthenticators(authenticators ...Authenticator) Authenticator {
	return func(ctx context.Context, req *protocol.Request) (*Identity, error) {
		for _, a := range authenticators {
			identity, err := a(ctx, req)
			if err != nil {
				return nil, err
			}
			if identity != nil {
				return identity, nil
			}
		}
		return nil, nil
	}
}
