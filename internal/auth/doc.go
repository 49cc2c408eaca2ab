// Package auth provides registration, credential verification, and
// session handling for the application.
//
// Sessions are stateless HS256 JWTs carrying the user's id, email, and
// name. The token is set as an HttpOnly cookie on login and is also
// returned in the response body; the middleware accepts either the
// cookie (web clients) or an Authorization bearer header (API clients).
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session token lifetime
//	AUTH_BCRYPT_COST=10                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	GOOGLE_CLIENT_ID=...                # Enables the Google sign-in flow
//	GOOGLE_CLIENT_SECRET=...
//	OAUTH_REDIRECT_URL=https://...      # Base URL Google redirects back to
//
// # Usage
//
//	service := auth.NewService(userRepo, cfg.Auth)
//	tokens := auth.TokenService{Secret: secret, Lifetime: cfg.Auth.SessionLifetime}
//	protected.Use(auth.RequireSession(tokens))
//
// Extract claims in handlers:
//
//	claims := auth.GetClaims(c)
package auth
