package auth

import (
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
	"vital_geo/client"
	"vital_geo/database"
	"vital_geo/model"
)

var ErrAdminNotAllowed = errors.New("administrator accounts cannot use this client, please use the admin panel")

// SessionAPI is the part of the backend the session manager talks to.
type SessionAPI interface {
	AuthStatus(ctx context.Context) (model.AuthStatusResponse, error)
	Login(ctx context.Context, body model.LoginRequestBody) (model.AuthResponse, error)
	Signup(ctx context.Context, body model.SignupRequestBody) (model.AuthResponse, error)
	Logout(ctx context.Context) error
}

type Options struct {
	Secret             string
	MaxAge             time.Duration
	ValidationInterval time.Duration
	RevalidateDelay    time.Duration
	Now                func() time.Time
}

func (o *Options) setDefaults() {
	if o.Secret == "" {
		o.Secret = "VitalGeoSessionKey"
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 14 * 24 * time.Hour
	}
	if o.ValidationInterval <= 0 {
		o.ValidationInterval = 5 * time.Minute
	}
	if o.RevalidateDelay <= 0 {
		o.RevalidateDelay = 200 * time.Millisecond
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Manager owns the current user. It publishes an optimistic user from the
// local snapshot, then reconciles with the backend.
type Manager struct {
	api      SessionAPI
	store    database.Store
	codec    snapshotCodec
	opts     Options
	validate *validator.Validate

	persistMu sync.Mutex
	mu        sync.RWMutex
	user      *model.User
	loading   bool
	listeners []func(*model.User)

	runCtx      context.Context
	stopWatch   context.CancelFunc
	revalidator *time.Timer
	closed      bool
}

func NewManager(api SessionAPI, store database.Store, opts Options) *Manager {
	opts.setDefaults()
	return &Manager{
		api:      api,
		store:    store,
		codec:    snapshotCodec{secret: []byte(opts.Secret), maxAge: opts.MaxAge},
		opts:     opts,
		validate: validator.New(),
		loading:  true,
	}
}

func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// UserID is the id of the current user, or "" when signed out.
func (m *Manager) UserID() string {
	if user := m.User(); user != nil {
		return user.ID
	}
	return ""
}

func (m *Manager) IsAuthenticated() bool {
	return m.User() != nil
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Subscribe registers fn to be called with the active user after every
// publish. fn must not call back into the manager synchronously.
func (m *Manager) Subscribe(fn func(*model.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Start enables periodic re-validation and performs the initial status
// check using the cached snapshot.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()
	m.CheckStatus(ctx, true)
}

// Close stops the periodic and delayed re-validations.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopWatchLocked()
	if m.revalidator != nil {
		m.revalidator.Stop()
		m.revalidator = nil
	}
}

// CheckStatus reconciles the active user with the backend. It never fails:
// transport errors fall back to a valid cached snapshot, anything else
// clears the session.
func (m *Manager) CheckStatus(ctx context.Context, useCached bool) {
	defer m.setLoading(false)

	if useCached {
		if cached := m.loadSnapshot(); cached != nil {
			m.publish(cached, false)
			m.setLoading(false)
		}
	}

	status, err := m.api.AuthStatus(ctx)
	if err != nil {
		if client.IsAPIError(err) {
			logrus.Warnf("CheckStatus: session rejected by backend err = %v", err)
			m.update(nil)
			return
		}
		logrus.Errorf("CheckStatus: error in checking auth status err = %v", err)
		if cached := m.loadSnapshot(); cached != nil {
			m.publish(cached, false)
			return
		}
		m.update(nil)
		return
	}

	if !status.Authenticated || status.User == nil {
		m.update(nil)
		return
	}
	user := Admit(status.User)
	if user == nil {
		m.rejectAdmin(ctx)
		return
	}
	m.update(user)
}

// Focus is the window-focus trigger: re-validate against the backend when
// a user is present.
func (m *Manager) Focus(ctx context.Context) {
	if m.IsAuthenticated() {
		m.CheckStatus(ctx, false)
	}
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	body := model.LoginRequestBody{Email: email, Password: password}
	if err := m.validate.Struct(body); err != nil {
		return err
	}

	resp, err := m.api.Login(ctx, body)
	if err != nil {
		return authError(err, "Login failed")
	}
	if !resp.Success || resp.User == nil {
		return rejected(resp.Message, "Login failed")
	}

	user := Admit(resp.User)
	if user == nil {
		m.rejectAdmin(ctx)
		return ErrAdminNotAllowed
	}
	m.update(user)
	m.scheduleRevalidation()
	return nil
}

// Signup registers and publishes the new user. The admission policy
// applies here as it does for login.
func (m *Manager) Signup(ctx context.Context, body model.SignupRequestBody) error {
	if err := m.validate.Struct(body); err != nil {
		return err
	}

	resp, err := m.api.Signup(ctx, body)
	if err != nil {
		return authError(err, "Signup failed")
	}
	if !resp.Success || resp.User == nil {
		return rejected(resp.Message, "Signup failed")
	}

	user := Admit(resp.User)
	if user == nil {
		m.rejectAdmin(ctx)
		return ErrAdminNotAllowed
	}
	m.update(user)
	return nil
}

// Logout ends the server session best-effort; local state is always cleared.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		logrus.Errorf("Logout: error in logging out err = %v", err)
	}
	m.update(nil)
}

// Expire clears the session without contacting the backend, for when the
// backend has already answered 401.
func (m *Manager) Expire() {
	if m.IsAuthenticated() {
		logrus.Info("session expired, clearing local session")
		m.update(nil)
	}
}

func (m *Manager) rejectAdmin(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		logrus.Errorf("rejectAdmin: error in invalidating admin session err = %v", err)
	}
	m.update(nil)
}

func (m *Manager) scheduleRevalidation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.revalidator != nil {
		m.revalidator.Stop()
	}
	ctx := m.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	m.revalidator = time.AfterFunc(m.opts.RevalidateDelay, func() {
		if ctx.Err() != nil {
			return
		}
		m.CheckStatus(ctx, false)
	})
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.mu.Unlock()
}

// update publishes user and mirrors it into the snapshot slot.
func (m *Manager) update(user *model.User) {
	m.publish(user, true)
}

func (m *Manager) publish(user *model.User, persist bool) {
	m.persistMu.Lock()
	m.mu.Lock()
	m.user = user
	listeners := append([]func(*model.User){}, m.listeners...)
	if user != nil {
		m.startWatchLocked()
	} else {
		m.stopWatchLocked()
	}
	m.mu.Unlock()

	if persist {
		if user != nil {
			m.saveSnapshot(*user)
		} else {
			m.clearSnapshot()
		}
	}
	m.persistMu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}

// startWatchLocked runs the periodic re-validation while a user is present.
func (m *Manager) startWatchLocked() {
	if m.stopWatch != nil || m.runCtx == nil || m.closed {
		return
	}
	ctx, cancel := context.WithCancel(m.runCtx)
	m.stopWatch = cancel
	interval := m.opts.ValidationInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckStatus(ctx, false)
			}
		}
	}()
}

func (m *Manager) stopWatchLocked() {
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
}

func (m *Manager) loadSnapshot() *model.User {
	var stored storedSession
	found, err := m.store.Load(database.SlotSession, &stored)
	if err != nil {
		logrus.Errorf("loadSnapshot: error in loading session err = %v", err)
		m.clearSnapshot()
		return nil
	}
	if !found {
		return nil
	}
	snap, err := m.codec.decode(stored, m.opts.Now())
	if err != nil {
		logrus.Infof("loadSnapshot: discarding session snapshot: %v", err)
		m.clearSnapshot()
		return nil
	}
	return Admit(&snap.User)
}

func (m *Manager) saveSnapshot(user model.User) {
	stored, err := m.codec.encode(model.SessionSnapshot{User: user, Timestamp: m.opts.Now().UnixMilli()})
	if err != nil {
		logrus.Errorf("saveSnapshot: error in signing session err = %v", err)
		return
	}
	if err := m.store.Save(database.SlotSession, stored); err != nil {
		logrus.Errorf("saveSnapshot: error in saving session err = %v", err)
	}
}

func (m *Manager) clearSnapshot() {
	if err := m.store.Remove(database.SlotSession); err != nil {
		logrus.Errorf("clearSnapshot: error in clearing session err = %v", err)
	}
}

// authError keeps the backend status and replaces an empty message with
// fallback. Transport errors pass through unchanged.
func authError(err error, fallback string) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &client.APIError{StatusCode: apiErr.StatusCode, Message: messageOr(apiErr.Message, fallback)}
	}
	return err
}

// rejected reports a 2xx answer that still refused the credentials.
func rejected(message, fallback string) error {
	return &client.APIError{StatusCode: http.StatusUnauthorized, Message: messageOr(message, fallback)}
}

func messageOr(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
