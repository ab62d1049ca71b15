package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"

	"github.com/biteme/order-platform/pkg/db"
	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/protocol"
	"github.com/biteme/order-platform/pkg/session"
)

const authLogPrefix = "dispatcher:auth"

// loginReply is the LOGIN_SUCCESS payload.
type loginReply struct {
	UserID  string     `json:"userId"`
	Role    model.Role `json:"role"`
	Message string     `json:"message,omitempty"`
}

func (d *Dispatcher) handleLogin(ctx context.Context, env *protocol.Envelope, meta Meta) *protocol.Envelope {
	var creds model.Credentials
	if err := env.Bind(&creds); err != nil {
		return replyMessage(protocol.TagLoginFailed, "malformed login payload")
	}
	if creds.UserID == "" {
		return replyMessage(protocol.TagLoginFailed, "user id is required")
	}

	if d.minClient != nil && creds.ClientVersion != "" {
		v, err := semver.NewVersion(creds.ClientVersion)
		if err != nil || v.LessThan(d.minClient) {
			slog.Warn(fmt.Sprintf("%s - rejected client version %q for %s", authLogPrefix, creds.ClientVersion, creds.UserID))
			return replyMessage(protocol.TagLoginFailed,
				"client version %s is not supported, minimum is %s", creds.ClientVersion, d.minClient)
		}
	}

	sess, err := d.sessions.Login(ctx, creds.UserID, creds.Password, meta.NetworkAddr, creds.HostName, meta.ClientSubject)
	switch {
	case err == nil:
		return reply(protocol.TagLoginSuccess, loginReply{UserID: sess.Identity, Role: sess.Role})
	case errors.Is(err, session.ErrAlreadyConnected):
		return replyMessage(protocol.TagUserAlreadyLoggedIn, "user %s is already logged in", creds.UserID)
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrInvalidCredentials):
		// Same reply for both so the client cannot probe which ids exist.
		return replyMessage(protocol.TagLoginFailed, "invalid user id or password")
	default:
		slog.Error(fmt.Sprintf("%s - login for %s failed: %v", authLogPrefix, creds.UserID, err))
		return replyMessage(protocol.TagLoginFailed, "login failed, try again later")
	}
}

func (d *Dispatcher) handleLogout(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var ident model.Identity
	if err := env.Bind(&ident); err != nil || ident.ID == "" {
		return replyMessage(protocol.TagLogoutFailed, "malformed logout payload")
	}

	if err := d.sessions.Logout(ctx, ident.ID); err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			return replyMessage(protocol.TagLogoutFailed, "user %s is not logged in", ident.ID)
		}
		slog.Error(fmt.Sprintf("%s - logout for %s failed: %v", authLogPrefix, ident.ID, err))
		return replyMessage(protocol.TagLogoutFailed, "logout failed, try again later")
	}
	return replyMessage(protocol.TagLogoutSuccess, "user %s logged out", ident.ID)
}

func (d *Dispatcher) handleRegistration(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var user model.User
	if err := env.Bind(&user); err != nil {
		return replyMessage(protocol.TagNewCustomerRegistrationError, "malformed registration payload")
	}
	if user.ID == "" || user.Password == "" {
		return replyMessage(protocol.TagNewCustomerRegistrationError, "user id and password are required")
	}
	user.Role = model.RoleCustomer
	user.Connected = false

	err := d.store.CreateUser(ctx, &user)
	switch {
	case err == nil:
		return replyMessage(protocol.TagNewCustomerRegistrationSuccess, "customer %s registered", user.ID)
	case errors.Is(err, db.ErrUserExists):
		return replyMessage(protocol.TagNewCustomerRegistrationFailed, "user %s already exists", user.ID)
	default:
		slog.Error(fmt.Sprintf("%s - registration for %s failed: %v", authLogPrefix, user.ID, err))
		return replyMessage(protocol.TagNewCustomerRegistrationError, "registration failed, try again later")
	}
}
