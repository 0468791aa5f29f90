package handler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

func TestAuth_LogOnView(t *testing.T) {
	e := newEnv(t)
	e.files = mapFiles{"/login.html": "<form>"}

	res := e.serve(t, NewAuth("/login.html"), e.context("GET", "/auth/log-on", ""), nil)
	if res.status != httpserver.StatusOK || res.body != "<form>" {
		t.Errorf("GET log-on = %d %q, want 200 <form>", res.status, res.body)
	}

	res = e.serve(t, NewAuth(""), e.context("GET", "/auth/log-on", ""), nil)
	if res.status != httpserver.StatusNotFound {
		t.Errorf("GET log-on without view = %d, want 404", res.status)
	}
}

func TestAuth_LogOn(t *testing.T) {
	e := newEnv(t)
	e.addAdmin(t)
	h := NewAuth("")

	c := e.context("POST", "/auth/log-on", `{"logonName":"admin","password":"secret"}`)
	res := e.serve(t, h, c, nil)
	if res.body != StatusOK {
		t.Fatalf("log-on body = %q, want ok", res.body)
	}
	session := c.Session()
	if session.User().Name != "admin" || !session.User().Authenticated {
		t.Errorf("session user = %+v, want authenticated admin", session.User())
	}
	if !strings.Contains(res.headers, "Set-Cookie: "+service.DefaultTokenName+"="+session.Token()) {
		t.Errorf("headers = %q, want the new session cookie", res.headers)
	}
	if e.auth.SessionForToken(session.Token()) == nil {
		t.Error("new session not stored")
	}
}

func TestAuth_LogOnFailures(t *testing.T) {
	e := newEnv(t)
	e.addAdmin(t)
	h := NewAuth("")

	for name, body := range map[string]string{
		"wrong password": `{"logonName":"admin","password":"nope"}`,
		"unknown user":   `{"logonName":"root","password":"secret"}`,
		"bad json":       `{"logonName":`,
		"empty body":     "",
	} {
		c := e.context("POST", "/auth/log-on", body)
		res := e.serve(t, h, c, nil)
		if res.status != httpserver.StatusOK || res.body != StatusFail {
			t.Errorf("%s: log-on = %d %q, want 200 fail", name, res.status, res.body)
		}
		if c.Session().User().ID != domain.GuestUserID {
			t.Errorf("%s: session switched to %q", name, c.Session().User().Name)
		}
	}
}

func TestAuth_LogOnThrottled(t *testing.T) {
	store := newEnv(t).store
	e := &env{store: store, auth: service.NewAuthService(store, &service.AuthServiceConfig{
		Settings:   domain.SessionSettings{Salt: "salt"},
		LoginRate:  0.001,
		LoginBurst: 1,
		Logger:     discard,
	})}
	h := NewAuth("")
	body := `{"logonName":"x","password":"y"}`

	if res := e.serve(t, h, e.context("POST", "/auth/log-on", body), nil); res.status != httpserver.StatusOK {
		t.Fatalf("first attempt status = %d, want 200", res.status)
	}
	res := e.serve(t, h, e.context("POST", "/auth/log-on", body), nil)
	if res.status != httpserver.StatusTooManyRequests || res.body != StatusFail {
		t.Errorf("second attempt = %d %q, want 429 fail", res.status, res.body)
	}
}

func TestAuth_LogOff(t *testing.T) {
	e := newEnv(t)
	session := e.addAdmin(t)

	c := e.context("POST", "/auth/log-off", "")
	res := e.serve(t, NewAuth(""), c, session)
	if res.body != StatusOK {
		t.Errorf("log-off body = %q, want ok", res.body)
	}
	if e.auth.SessionForToken(session.Token()) != nil {
		t.Error("session still live after log-off")
	}
	if c.Session() == session || !c.Session().User().Guest {
		t.Errorf("session after log-off = %+v, want a new guest", c.Session().User())
	}
	if strings.Contains(res.headers, session.Token()) {
		t.Error("reply still carries the ended session token")
	}
}

func TestAuth_WhoAmI(t *testing.T) {
	e := newEnv(t)
	session := e.addAdmin(t)

	res := e.serve(t, NewAuth(""), e.context("GET", "/auth/whoami", ""), session)
	var who WhoAmIResponse
	decodeEnvelope(t, res.body, &who)
	if who.Name != "admin" || !who.Authenticated || who.Guest {
		t.Errorf("whoami = %+v", who)
	}
	if len(who.Permissions) != 2 {
		t.Errorf("permissions = %v, want both manage permissions", who.Permissions)
	}
}

func TestAuth_LockRequiresPermission(t *testing.T) {
	e := newEnv(t)
	e.addAdmin(t)

	res := e.serve(t, NewAuth(""), e.context("GET", "/auth/lock-user/1", ""), nil)
	if res.status != httpserver.StatusForbidden {
		t.Errorf("guest lock-user status = %d, want 403", res.status)
	}
}

func TestAuth_LockAndUnlock(t *testing.T) {
	e := newEnv(t)
	admin := e.addAdmin(t)
	h := NewAuth("")
	ctx := context.Background()

	bob, err := e.store.SaveUser(ctx, &domain.Credentials{LogonName: "bob", Active: true})
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if err := e.store.ChangePassword(ctx, bob.ID, "pw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	path := fmt.Sprintf("/auth/lock-user/%d", bob.ID)
	if res := e.serve(t, h, e.context("GET", path, ""), admin); res.body != StatusOK {
		t.Fatalf("lock-user body = %q, want ok", res.body)
	}
	if got, _ := e.store.FetchByLogin(ctx, "bob", "pw"); got != nil {
		t.Error("locked user can still log in")
	}

	path = fmt.Sprintf("/auth/unlock-user/%d", bob.ID)
	if res := e.serve(t, h, e.context("GET", path, ""), admin); res.body != StatusOK {
		t.Fatalf("unlock-user body = %q, want ok", res.body)
	}
	if got, _ := e.store.FetchByLogin(ctx, "bob", "pw"); got == nil {
		t.Error("unlocked user cannot log in")
	}

	for _, p := range []string{"/auth/lock-user/abc", "/auth/lock-user/999", "/auth/lock-user"} {
		if res := e.serve(t, h, e.context("GET", p, ""), admin); res.body != StatusFail {
			t.Errorf("%s body = %q, want fail", p, res.body)
		}
	}
}

func TestAuth_ManagePermissions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	role, _ := e.store.SaveRole(ctx, &domain.Role{Name: "users", Permissions: []domain.Permission{domain.PermissionManageUser}})
	hash, _ := domain.HashPassword("pw")
	if _, err := e.store.SaveUser(ctx, &domain.Credentials{LogonName: "ua", PasswordHash: hash, Active: true, RoleIDs: []int64{role.ID}}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	session, err := e.auth.Login(ctx, e.context("POST", "/auth/log-on", ""), "ua", "pw")
	if err != nil || session == nil {
		t.Fatalf("Login = %v, %v", session, err)
	}
	h := NewAuth("")

	tests := []struct {
		path    string
		session *domain.Session
		want    int
	}{
		{"/auth/manage/user/list", nil, httpserver.StatusForbidden},
		{"/auth/manage/role/list", nil, httpserver.StatusForbidden},
		{"/auth/manage/user/list", session, httpserver.StatusOK},
		{"/auth/manage/role/list", session, httpserver.StatusForbidden},
		{"/auth/manage/group/list", session, httpserver.StatusNotFound},
		{"/auth/manage/user/archive", session, httpserver.StatusNotFound},
		{"/auth/unknown", nil, httpserver.StatusNotFound},
	}
	for _, tt := range tests {
		res := e.serve(t, h, e.context("GET", tt.path, ""), tt.session)
		if res.status != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, res.status, tt.want)
		}
	}
}

func TestAuth_ManageUsers(t *testing.T) {
	e := newEnv(t)
	admin := e.addAdmin(t)
	h := NewAuth("")
	ctx := context.Background()

	res := e.serve(t, h, e.context("POST", "/auth/manage/user/create",
		`{"logon_name":"carol","password":"pw1","active":true}`), admin)
	var created domain.Credentials
	decodeEnvelope(t, res.body, &created)
	if res.status != httpserver.StatusOK || created.ID <= 0 || created.LogonName != "carol" {
		t.Fatalf("create = %d %+v", res.status, created)
	}
	if created.PasswordHash != "" {
		t.Error("create reply exposed the password hash")
	}
	if got, _ := e.store.FetchByLogin(ctx, "carol", "pw1"); got == nil {
		t.Error("created user cannot log in")
	}

	res = e.serve(t, h, e.context("POST", "/auth/manage/user/create", `{"logon_name":"carol"}`), admin)
	if res.status != httpserver.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", res.status)
	}

	res = e.serve(t, h, e.context("GET", "/auth/manage/user", ""), admin)
	var users []domain.Credentials
	decodeEnvelope(t, res.body, &users)
	if len(users) != 2 || strings.Contains(res.body, "argon2id") {
		t.Errorf("list = %d users, body %q", len(users), res.body)
	}

	path := fmt.Sprintf("/auth/manage/user/modify/%d", created.ID)
	res = e.serve(t, h, e.context("POST", path, `{"logon_name":"caroline","password":"pw2","active":true}`), admin)
	if res.status != httpserver.StatusOK {
		t.Fatalf("modify status = %d: %s", res.status, res.body)
	}
	if got, _ := e.store.FetchByLogin(ctx, "caroline", "pw2"); got == nil {
		t.Error("modified user cannot log in with the new name and password")
	}

	res = e.serve(t, h, e.context("GET", fmt.Sprintf("/auth/manage/user/view/%d", created.ID), ""), admin)
	var viewed domain.Credentials
	decodeEnvelope(t, res.body, &viewed)
	if viewed.LogonName != "caroline" {
		t.Errorf("view = %+v", viewed)
	}

	res = e.serve(t, h, e.context("POST", fmt.Sprintf("/auth/manage/user/remove/%d", created.ID), ""), admin)
	if res.status != httpserver.StatusOK {
		t.Errorf("remove status = %d", res.status)
	}
	res = e.serve(t, h, e.context("GET", fmt.Sprintf("/auth/manage/user/view/%d", created.ID), ""), admin)
	if res.status != httpserver.StatusNotFound {
		t.Errorf("view removed status = %d, want 404", res.status)
	}
	res = e.serve(t, h, e.context("POST", "/auth/manage/user/modify/0", `{"logon_name":"x"}`), admin)
	if res.status != httpserver.StatusBadRequest {
		t.Errorf("modify id 0 status = %d, want 400", res.status)
	}
}

func TestAuth_ManageRoles(t *testing.T) {
	e := newEnv(t)
	admin := e.addAdmin(t)
	h := NewAuth("")

	res := e.serve(t, h, e.context("POST", "/auth/manage/role/create", `{"name":"editors","permissions":[20,21]}`), admin)
	var role domain.Role
	decodeEnvelope(t, res.body, &role)
	if role.ID <= 0 || role.Name != "editors" || len(role.Permissions) != 2 {
		t.Fatalf("create = %+v", role)
	}

	path := fmt.Sprintf("/auth/manage/role/modify/%d", role.ID)
	res = e.serve(t, h, e.context("POST", path, `{"name":"writers","permissions":[20]}`), admin)
	role = domain.Role{}
	decodeEnvelope(t, res.body, &role)
	if role.Name != "writers" || len(role.Permissions) != 1 {
		t.Errorf("modify = %+v", role)
	}

	res = e.serve(t, h, e.context("GET", "/auth/manage/role/list", ""), admin)
	var roles []domain.Role
	decodeEnvelope(t, res.body, &roles)
	if len(roles) != 2 {
		t.Errorf("list = %d roles, want 2", len(roles))
	}

	res = e.serve(t, h, e.context("POST", "/auth/manage/role/create", `{"permissions":[1]}`), admin)
	if res.status != httpserver.StatusBadRequest {
		t.Errorf("nameless create status = %d, want 400", res.status)
	}

	res = e.serve(t, h, e.context("POST", fmt.Sprintf("/auth/manage/role/remove/%d", role.ID), ""), admin)
	if res.status != httpserver.StatusOK {
		t.Errorf("remove status = %d", res.status)
	}
	res = e.serve(t, h, e.context("POST", fmt.Sprintf("/auth/manage/role/remove/%d", role.ID), ""), admin)
	if res.status != httpserver.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", res.status)
	}
}

func TestAuth_WithoutProvider(t *testing.T) {
	e := &env{auth: service.NewGuestAuthService(&service.AuthServiceConfig{Logger: discard})}
	h := NewAuth("")

	for _, p := range []string{"/auth/manage/user/list", "/auth/lock-user/1"} {
		res := e.serve(t, h, e.context("GET", p, ""), nil)
		if res.status != httpserver.StatusNotImplemented {
			t.Errorf("%s status = %d, want 501", p, res.status)
		}
	}

	res := e.serve(t, h, e.context("POST", "/auth/log-on", `{"logonName":"a","password":"b"}`), nil)
	if res.body != StatusFail {
		t.Errorf("guest-only log-on body = %q, want fail", res.body)
	}
}
