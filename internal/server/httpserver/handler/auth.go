package handler

import (
	"errors"
	"strconv"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
	"github.com/foxhorn/foxyserver/internal/telemetry/logger"
)

// AuthPath is the prefix served by the Auth handler.
const AuthPath = "/auth/"

// Auth actions.
const (
	ActionLogOn      = "log-on"
	ActionLogOff     = "log-off"
	ActionWhoAmI     = "whoami"
	ActionLockUser   = "lock-user"
	ActionUnlockUser = "unlock-user"
	ActionManage     = "manage"
)

// Entities administered through the manage action.
const (
	EntityUser = "user"
	EntityRole = "role"
)

// Path part positions of manage/<entity>/<action>/<id>.
const (
	entityNameIndex   = 1
	entityActionIndex = 2
	entityIDIndex     = 3
)

// Auth serves logging on and off and the administration of users and
// roles under AuthPath.
//
//	log-on                   GET: the login view. POST: JSON credentials, replies ok or fail
//	log-off                  ends the session, then behaves like log-on for GET
//	whoami                   JSON identity of the current session
//	lock-user/<id>           locks an account, replies ok or fail
//	unlock-user/<id>         unlocks an account, replies ok or fail
//	manage/user/<action>/<id>
//	manage/role/<action>/<id>
//
// Locking, unlocking and managing users require PermissionManageUser;
// managing roles requires PermissionManageRole. Manage actions need a
// provider implementing service.CredentialAdmin.
type Auth struct {
	*ActionMux
	loginView string
}

var _ httpserver.PermissionSetter = (*Auth)(nil)

// NewAuth creates the auth handler. loginView is the file served for
// GET log-on; empty answers 404.
func NewAuth(loginView string) *Auth {
	a := &Auth{
		ActionMux: NewActionMux(AuthPath),
		loginView: loginView,
	}
	a.Handle(ActionLogOn, a.logOn).
		Handle(ActionLogOff, a.logOff).
		Handle(ActionWhoAmI, a.whoAmI).
		Handle(ActionLockUser, a.lockUser, domain.PermissionManageUser).
		Handle(ActionUnlockUser, a.unlockUser, domain.PermissionManageUser).
		Handle(ActionManage, a.manage)
	return a
}

// SetPermissions implements httpserver.PermissionSetter.
func (a *Auth) SetPermissions(c *httpserver.Context) {
	a.ActionMux.SetPermissions(c)
	if c.Action() != ActionManage {
		return
	}
	switch c.PathPart(entityNameIndex) {
	case EntityUser:
		c.Request.AddPermission(domain.PermissionManageUser)
	case EntityRole:
		c.Request.AddPermission(domain.PermissionManageRole)
	}
}

func (a *Auth) logOn(c *httpserver.Context) error {
	if c.Request.IsGet() {
		a.serveLoginView(c)
		return nil
	}

	var req LogOnRequest
	if err := decodeBody(c, &req); err != nil {
		c.Response.SetString(StatusFail)
		return nil
	}

	session, err := c.Auth().Login(c.Context(), c, req.LogonName, req.Password)
	switch {
	case errors.Is(err, domain.ErrLoginThrottled):
		c.Response.SetStatus(httpserver.StatusTooManyRequests)
		c.Response.SetString(StatusFail)
		return nil
	case err != nil:
		logger.FromContext(c.Context()).Error("login failed", "logon", req.LogonName, "error", err)
		c.Response.SetString(StatusFail)
		return nil
	case session == nil || !session.User().Authenticated:
		c.Response.SetString(StatusFail)
		return nil
	}

	c.SetSession(session)
	c.Response.SetString(StatusOK)
	return nil
}

// logOff ends the session and binds a fresh guest session, so the reply
// replaces the auth cookie.
func (a *Auth) logOff(c *httpserver.Context) error {
	c.Auth().Logout(c.Session())
	c.SetSession(c.Auth().CreateGuestSession(c.Context(), c))

	if c.Request.IsGet() {
		a.serveLoginView(c)
		return nil
	}
	c.Response.SetString(StatusOK)
	return nil
}

func (a *Auth) serveLoginView(c *httpserver.Context) {
	if a.loginView == "" {
		c.Response.NotFound()
		return
	}
	c.Response.SetFile(a.loginView)
}

func (a *Auth) whoAmI(c *httpserver.Context) error {
	session := c.Session()
	if session == nil {
		return writeError(c, domain.ErrUserNotFound)
	}
	user := session.User()
	return writeJSON(c, httpserver.StatusOK, WhoAmIResponse{
		UserID:        user.ID,
		Name:          user.Name,
		Guest:         user.Guest,
		Authenticated: user.Authenticated,
		Permissions:   user.Permissions(),
		SessionStart:  session.Auth().SessionStart(),
		ExpiresAt:     session.Auth().Expires(),
	})
}

func (a *Auth) lockUser(c *httpserver.Context) error {
	return a.setLocked(c, true)
}

func (a *Auth) unlockUser(c *httpserver.Context) error {
	return a.setLocked(c, false)
}

func (a *Auth) setLocked(c *httpserver.Context, locked bool) error {
	provider := c.Auth().Provider()
	if provider == nil {
		return writeError(c, domain.ErrNotImplemented)
	}
	id := c.EntityID()
	if id < 0 {
		c.Response.SetString(StatusFail)
		return nil
	}

	var (
		creds *domain.Credentials
		err   error
	)
	if locked {
		creds, err = provider.LockCredentials(c.Context(), id)
	} else {
		creds, err = provider.UnlockCredentials(c.Context(), id)
	}
	if err != nil || creds == nil {
		if err != nil {
			logger.FromContext(c.Context()).Error("lock change failed", "user_id", id, "locked", locked, "error", err)
		}
		c.Response.SetString(StatusFail)
		return nil
	}
	c.Response.SetString(StatusOK)
	return nil
}

func (a *Auth) manage(c *httpserver.Context) error {
	admin, ok := c.Auth().Provider().(service.CredentialAdmin)
	if !ok {
		return writeError(c, domain.ErrNotImplemented)
	}

	entityAction := c.PathPart(entityActionIndex)
	if entityAction == "" {
		entityAction = ActionList
	}
	id, err := strconv.ParseInt(c.PathPart(entityIDIndex), 10, 64)
	if err != nil {
		id = -1
	}

	switch c.PathPart(entityNameIndex) {
	case EntityUser:
		return manageUser(c, admin, entityAction, id)
	case EntityRole:
		return manageRole(c, admin, entityAction, id)
	}
	c.Response.NotFound()
	return nil
}

func manageUser(c *httpserver.Context, admin service.CredentialAdmin, action string, id int64) error {
	ctx := c.Context()
	switch action {
	case ActionList:
		users, err := admin.ListUsers(ctx)
		if err != nil {
			return writeError(c, err)
		}
		out := make([]*domain.Credentials, len(users))
		for i, u := range users {
			out[i] = u.Public()
		}
		return writeJSON(c, httpserver.StatusOK, out)

	case ActionView:
		user, err := admin.GetUser(ctx, id)
		if err != nil {
			return writeError(c, err)
		}
		if user == nil {
			return writeError(c, domain.ErrUserNotFound)
		}
		return writeJSON(c, httpserver.StatusOK, user.Public())

	case ActionCreate:
		var req UserRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		if req.LogonName == "" {
			return writeError(c, domain.ErrMissingArgument.WithDetails("logon_name"))
		}
		creds := &domain.Credentials{LogonName: req.LogonName, Active: req.Active, RoleIDs: req.RoleIDs}
		if req.Password != "" {
			hash, err := domain.HashPassword(req.Password)
			if err != nil {
				return writeError(c, err)
			}
			creds.PasswordHash = hash
		}
		saved, err := admin.SaveUser(ctx, creds)
		if err != nil {
			return writeError(c, err)
		}
		return writeJSON(c, httpserver.StatusOK, saved.Public())

	case ActionModify:
		if id <= 0 {
			return writeError(c, domain.ErrInvalidArgument.WithDetails("user id"))
		}
		var req UserRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		saved, err := admin.SaveUser(ctx, &domain.Credentials{
			ID:        id,
			LogonName: req.LogonName,
			Active:    req.Active,
			RoleIDs:   req.RoleIDs,
		})
		if err != nil {
			return writeError(c, err)
		}
		if req.Password != "" {
			if err := admin.ChangePassword(ctx, id, req.Password); err != nil {
				return writeError(c, err)
			}
		}
		return writeJSON(c, httpserver.StatusOK, saved.Public())

	case ActionRemove:
		if err := admin.RemoveUser(ctx, id); err != nil {
			return writeError(c, err)
		}
		return writeJSON(c, httpserver.StatusOK, RemoveResponse{ID: id, Removed: true})
	}

	c.Response.NotFound()
	return nil
}

func manageRole(c *httpserver.Context, admin service.CredentialAdmin, action string, id int64) error {
	ctx := c.Context()
	switch action {
	case ActionList:
		roles, err := admin.ListRoles(ctx)
		if err != nil {
			return writeError(c, err)
		}
		return writeJSON(c, httpserver.StatusOK, roles)

	case ActionView:
		role, err := admin.GetRole(ctx, id)
		if err != nil {
			return writeError(c, err)
		}
		if role == nil {
			return writeError(c, domain.ErrRoleNotFound)
		}
		return writeJSON(c, httpserver.StatusOK, role)

	case ActionCreate, ActionModify:
		if action == ActionCreate {
			id = 0
		} else if id <= 0 {
			return writeError(c, domain.ErrInvalidArgument.WithDetails("role id"))
		}
		var req RoleRequest
		if err := decodeBody(c, &req); err != nil {
			return writeError(c, err)
		}
		if req.Name == "" {
			return writeError(c, domain.ErrMissingArgument.WithDetails("name"))
		}
		saved, err := admin.SaveRole(ctx, &domain.Role{ID: id, Name: req.Name, Permissions: req.Permissions})
		if err != nil {
			return writeError(c, err)
		}
		return writeJSON(c, httpserver.StatusOK, saved)

	case ActionRemove:
		if err := admin.RemoveRole(ctx, id); err != nil {
			return writeError(c, err)
		}
		return writeJSON(c, httpserver.StatusOK, RemoveResponse{ID: id, Removed: true})
	}

	c.Response.NotFound()
	return nil
}
