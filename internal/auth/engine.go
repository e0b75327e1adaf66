package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"userdir.org/internal/audit"
	"userdir.org/internal/directory"
	"userdir.org/internal/obs"
	"userdir.org/internal/perm"
	"userdir.org/internal/session"
)

const defaultAssertionTTL = 5 * time.Minute

// Engine orchestrates authentication and authorization for one client of the
// directory. It owns the timeout policy, the IP-pinning policy and the
// permission/mask translation; all state lives in the backing stores, so a
// single Engine is safe for concurrent use.
type Engine struct {
	dir      *directory.Directory
	selector directory.Selector
	users    UserStore
	verifier *Verifier
	sessions session.Store
	perms    *perm.Checker

	now      func() time.Time
	throttle *throttle
	asserter *asserter
	auditing bool
}

// EngineOption configures Engine behavior.
type EngineOption func(*Engine) error

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) error {
		if fn != nil {
			e.now = fn
		}
		return nil
	}
}

// WithLoginThrottle enables a per-username token bucket on Authenticate.
func WithLoginThrottle(perMinute float64, burst int) EngineOption {
	return func(e *Engine) error {
		if perMinute <= 0 || burst <= 0 {
			return errors.New("throttle rate and burst must be positive")
		}
		e.throttle = newThrottle(perMinute, burst)
		return nil
	}
}

// WithAssertionSecret enables identity assertions signed with the secret.
// A non-positive ttl falls back to the default.
func WithAssertionSecret(secret string, ttl time.Duration) EngineOption {
	return func(e *Engine) error {
		if strings.TrimSpace(secret) == "" {
			return errors.New("assertion secret is required")
		}
		if ttl <= 0 {
			ttl = defaultAssertionTTL
		}
		e.asserter = &asserter{secret: []byte(secret), ttl: ttl, now: e.now}
		return nil
	}
}

// WithAuditing enables structured audit events for denials and expiries.
func WithAuditing() EngineOption {
	return func(e *Engine) error {
		e.auditing = true
		return nil
	}
}

// NewEngine constructs an Engine bound to the client identified by selector.
func NewEngine(dir *directory.Directory, selector directory.Selector, users UserStore,
	sessions session.Store, perms *perm.Checker, opts ...EngineOption) (*Engine, error) {
	if dir == nil {
		return nil, errors.New("client directory is required")
	}
	if selector == (directory.Selector{}) {
		return nil, errors.New("client selector is required")
	}
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if perms == nil {
		return nil, errors.New("permission checker is required")
	}
	verifier, err := NewVerifier(users)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		dir:      dir,
		selector: selector,
		users:    users,
		verifier: verifier,
		sessions: sessions,
		perms:    perms,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.asserter != nil {
		e.asserter.now = e.now
	}
	if e.throttle != nil {
		e.throttle.now = e.now
	}
	return e, nil
}

// Access describes one authorization request. An explicit Mask wins over a
// named Permission when both are set. An empty MatchKey means "any".
type Access struct {
	Token      string
	Resource   string
	Permission string
	Mask       perm.Mask
	MatchKey   string
	IP         string
}

// Authenticate validates credentials and, on success, issues a session token
// optionally pinned to ip. Expected failures come back as a Result status:
// NotFound for an unknown user, AuthRequired for a bad password, Forbidden
// for a disabled account.
func (e *Engine) Authenticate(ctx context.Context, username, password, ip string) (string, Result) {
	if username == "" || password == "" {
		return "", fail(StatusBadRequest, "username and password are required")
	}
	if e.throttle != nil && !e.throttle.allow(username) {
		e.auditEvent(ctx, "auth.login.throttled", map[string]any{"username": username})
		obs.ObserveLogin("throttled")
		return "", fail(StatusForbidden, "too many authentication attempts")
	}

	vr, err := e.verifier.Verify(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return "", fail(StatusBadRequest, "username and password are required")
		case errors.Is(err, ErrNotFound):
			obs.ObserveLogin("unknown_user")
			return "", fail(StatusNotFound, "unknown user %q", username)
		case errors.Is(err, ErrBadCredentials):
			e.auditEvent(ctx, "auth.login.denied", map[string]any{"username": username, "reason": "bad_password"})
			obs.ObserveLogin("bad_password")
			return "", fail(StatusAuthRequired, "authentication failed")
		default:
			return "", fail(StatusError, "verify credentials: %v", err)
		}
	}
	if vr.Disabled {
		e.auditEvent(ctx, "auth.login.denied", map[string]any{"username": username, "reason": "disabled"})
		obs.ObserveLogin("disabled")
		return "", fail(StatusForbidden, "account is disabled")
	}

	u, err := e.users.Find(ctx, vr.UserID)
	if err != nil {
		return "", fail(StatusError, "load user %s: %v", vr.UserID, err)
	}
	token, err := e.sessions.Create(ctx, u.ID, u.Username, u.PasswordHash, ip)
	if err != nil {
		return "", fail(StatusError, "create session: %v", err)
	}
	e.auditEvent(ctx, "auth.login.ok", map[string]any{"username": username})
	obs.ObserveLogin("ok")
	return token, okResult()
}

// Authorize decides whether the session may act on the resource, sliding the
// activity window forward on a grant. Order of checks: token shape, IP pin,
// tenant timeout, session age, mask resolution, permission lookup.
func (e *Engine) Authorize(ctx context.Context, a Access) (bool, Result) {
	if a.Resource == "" {
		return false, fail(StatusBadRequest, "resource is required")
	}
	if !session.ValidToken(a.Token) {
		return false, fail(StatusBadRequest, "malformed session token")
	}

	rec, err := e.sessions.Get(ctx, a.Token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return false, fail(StatusError, "session not found")
		}
		return false, fail(StatusError, "load session: %v", err)
	}
	if rec.BoundIP != "" && a.IP != rec.BoundIP {
		e.auditEvent(ctx, "auth.session.hijack", map[string]any{"bound_ip": rec.BoundIP, "caller_ip": a.IP})
		obs.ObserveAuthorize("hijack", -1)
		return false, fail(StatusForbidden, "possible session hijack: address mismatch")
	}

	client, err := e.dir.Resolve(ctx, e.selector)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, fail(StatusNotFound, "client not found")
		}
		return false, fail(StatusError, "resolve client: %v", err)
	}
	if client.TimeoutSeconds <= 0 {
		return false, fail(StatusConfigError, "client %s has no session timeout configured", client.ID)
	}
	timeout := time.Duration(client.TimeoutSeconds) * time.Second

	age, err := session.Age(ctx, e.sessions, a.Token)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			return false, fail(StatusError, "session not found")
		case errors.Is(err, session.ErrAgeUnavailable):
			obs.ObserveAuthorize("age_unavailable", -1)
			return false, fail(StatusForbidden, "session activity unavailable, retry")
		default:
			return false, fail(StatusError, "read session age: %v", err)
		}
	}
	if age > timeout {
		e.auditEvent(ctx, "auth.session.expired", map[string]any{"user_id": rec.UserID, "age_seconds": age.Seconds()})
		obs.ObserveAuthorize("expired", age)
		return false, fail(StatusAuthRequired, "session expired after %s of inactivity", age.Round(time.Second))
	}

	mask := a.Mask
	if mask == 0 {
		var ok bool
		if mask, ok = perm.FromName(a.Permission); !ok {
			return false, fail(StatusBadRequest, "no valid permission mask: %q", a.Permission)
		}
	}
	if !mask.Valid() {
		return false, fail(StatusBadRequest, "no valid permission mask: %d", mask)
	}

	granted, err := e.perms.Check(ctx, client.ID, rec.UserID, a.Resource, a.MatchKey, mask)
	if err != nil {
		if errors.Is(err, perm.ErrNoGroups) {
			return false, fail(StatusConfigError, "user %s belongs to no groups and holds no direct grant", rec.UserID)
		}
		return false, fail(StatusError, "check permission: %v", err)
	}
	if !granted {
		e.auditEvent(ctx, "auth.authorize.denied", map[string]any{
			"user_id": rec.UserID, "resource": a.Resource, "mask": mask.String(),
		})
		obs.ObserveAuthorize("denied", age)
		return false, fail(StatusForbidden, "permission denied on %s (%s)", a.Resource, mask)
	}

	if err := e.sessions.Touch(ctx, a.Token); err != nil {
		return false, fail(StatusError, "touch session: %v", err)
	}
	obs.ObserveAuthorize("ok", age)
	return true, okResult()
}

// GetUser loads the profile behind a session token, memoized per calling
// context when a cache was installed with WithUserCache.
func (e *Engine) GetUser(ctx context.Context, token string) (*User, Result) {
	if !session.ValidToken(token) {
		return nil, fail(StatusBadRequest, "malformed session token")
	}
	cache := userCacheFrom(ctx)
	if u, ok := cache.get(token); ok {
		return u, okResult()
	}

	rec, err := e.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fail(StatusNotFound, "session not found")
		}
		return nil, fail(StatusError, "load session: %v", err)
	}
	u, err := e.users.Find(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fail(StatusNotFound, "user %s not found", rec.UserID)
		}
		return nil, fail(StatusError, "load user %s: %v", rec.UserID, err)
	}
	cache.put(token, u)
	return u, okResult()
}

// Register creates a directory user; username and email uniqueness is
// enforced atomically at insert. When the client configures a default group
// the new user is enrolled in it, so registration alone yields a usable
// permission subject.
func (e *Engine) Register(ctx context.Context, nu NewUser) (*User, Result) {
	if nu.Username == "" || nu.Password == "" || nu.Email == "" {
		return nil, fail(StatusBadRequest, "username, password and email are required")
	}
	client, err := e.dir.Resolve(ctx, e.selector)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fail(StatusNotFound, "client not found")
		}
		return nil, fail(StatusError, "resolve client: %v", err)
	}
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return nil, fail(StatusError, "hash password: %v", err)
	}
	u := &User{
		Username:     nu.Username,
		PasswordHash: hash,
		Email:        nu.Email,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Phone:        nu.Phone,
		Address:      nu.Address,
	}
	if err := e.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fail(StatusBadRequest, "username or email already taken")
		}
		return nil, fail(StatusError, "create user: %v", err)
	}
	if client.DefaultGroupID != "" {
		if err := e.perms.AddMember(ctx, client.DefaultGroupID, u.ID); err != nil {
			return nil, fail(StatusError, "enroll in default group %s: %v", client.DefaultGroupID, err)
		}
	}
	e.auditEvent(ctx, "auth.user.registered", map[string]any{"username": u.Username})
	return u, okResult()
}

// SaveProfile applies a batched profile update. An empty update is a no-op.
func (e *Engine) SaveProfile(ctx context.Context, userID string, upd ProfileUpdate) Result {
	if userID == "" {
		return fail(StatusBadRequest, "user id is required")
	}
	if upd.Empty() {
		return okResult()
	}
	if err := e.users.SaveProfile(ctx, userID, upd); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fail(StatusNotFound, "user %s not found", userID)
		case errors.Is(err, ErrConflict):
			return fail(StatusBadRequest, "email already taken")
		default:
			return fail(StatusError, "save profile: %v", err)
		}
	}
	return okResult()
}

// SetDisabled flips the administrative disabled flag on an account.
func (e *Engine) SetDisabled(ctx context.Context, userID string, disabled bool) Result {
	if userID == "" {
		return fail(StatusBadRequest, "user id is required")
	}
	if err := e.users.SetDisabled(ctx, userID, disabled); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(StatusNotFound, "user %s not found", userID)
		}
		return fail(StatusError, "set disabled: %v", err)
	}
	e.auditEvent(ctx, "auth.user.disabled", map[string]any{"user_id": userID, "disabled": disabled})
	return okResult()
}

// AssertIdentity mints a signed, short-lived identity assertion for a live
// session. Requires WithAssertionSecret.
func (e *Engine) AssertIdentity(ctx context.Context, token string) (string, Result) {
	if e.asserter == nil {
		return "", fail(StatusConfigError, "identity assertions are not configured")
	}
	if !session.ValidToken(token) {
		return "", fail(StatusBadRequest, "malformed session token")
	}
	rec, err := e.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", fail(StatusNotFound, "session not found")
		}
		return "", fail(StatusError, "load session: %v", err)
	}
	client, err := e.dir.Resolve(ctx, e.selector)
	if err != nil {
		return "", fail(StatusError, "resolve client: %v", err)
	}
	signed, err := e.asserter.mint(rec.UserID, client.ID)
	if err != nil {
		return "", fail(StatusError, "sign assertion: %v", err)
	}
	return signed, okResult()
}

// VerifyAssertion validates an identity assertion previously minted by
// AssertIdentity and returns its claims.
func (e *Engine) VerifyAssertion(assertion string) (*AssertionClaims, error) {
	if e.asserter == nil {
		return nil, ErrInvalidAssertion
	}
	return e.asserter.verify(assertion)
}

func (e *Engine) auditEvent(ctx context.Context, event string, fields map[string]any) {
	if !e.auditing {
		return
	}
	_ = audit.LogEvent(ctx, event, fields)
}
