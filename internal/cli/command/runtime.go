package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/server/config"
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
	"github.com/foxhorn/foxyserver/internal/server/httpserver/handler"
	"github.com/foxhorn/foxyserver/internal/storage"
	"github.com/foxhorn/foxyserver/internal/storage/files"
	"github.com/foxhorn/foxyserver/internal/storage/memory"
	"github.com/foxhorn/foxyserver/internal/telemetry/metric"
)

// AdminRoleName names the role seeded for security.admin_user.
const AdminRoleName = "admin"

// credentialStore is what the server needs from a storage backend.
type credentialStore interface {
	service.CredentialProvider
	service.CredentialAdmin
}

// runtime holds the assembled server components.
type runtime struct {
	cfg     *config.ServerConfig
	logger  *slog.Logger
	metrics *metric.Registry

	store      credentialStore
	closeStore func() error
	ping       func(context.Context) error

	table  *service.SessionTable
	auth   service.Authenticator
	router *httpserver.Router
	server *httpserver.Server
}

// newRuntime builds every component from cfg without binding the listener.
func newRuntime(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metric.NewRegistry(),
	}

	if err := rt.openStore(); err != nil {
		return nil, err
	}
	if err := seedAdmin(ctx, rt.store, &cfg.Security, logger); err != nil {
		rt.close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	rt.table = service.NewSessionTable(rt.metrics)
	authCfg := &service.AuthServiceConfig{
		Settings: domain.SessionSettings{
			Salt:     cfg.Security.PrivateSalt,
			DeviceID: config.ResolveDeviceID(&cfg.Security),
			Timeout:  cfg.Security.SessionTimeout,
		},
		TokenName:  cfg.Security.AuthCookieName,
		LoginRate:  cfg.Security.LoginRate,
		LoginBurst: cfg.Security.LoginBurst,
		Table:      rt.table,
		Logger:     logger,
		Metrics:    rt.metrics,
	}
	if cfg.Security.AuthVariant == config.AuthVariantGuest {
		rt.auth = service.NewGuestAuthService(authCfg)
	} else {
		rt.auth = service.NewAuthService(rt.store, authCfg)
	}

	rt.router = newRouter(cfg, rt.metrics, rt.table, rt.ping)

	opts := []httpserver.Option{
		httpserver.WithLogger(logger),
		httpserver.WithMetrics(rt.metrics),
	}
	resolver, err := files.Dir(cfg.Files.Root)
	if err != nil {
		logger.Warn("static files disabled", "root", cfg.Files.Root, "error", err)
	} else {
		opts = append(opts, httpserver.WithFiles(resolver))
	}

	rt.server = httpserver.New(&httpserver.Config{
		Addr:            cfg.Server.Addr,
		MaxWorkers:      cfg.Server.MaxWorkers,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		AcceptRate:      cfg.Server.AcceptRate,
		AcceptBurst:     cfg.Server.AcceptBurst,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		DefaultLanguage: cfg.Files.DefaultLanguage,
	}, rt.router, rt.auth, opts...)

	return rt, nil
}

func (rt *runtime) openStore() error {
	perms := toPermissions(rt.cfg.Security.GuestPermissions)

	switch rt.cfg.Storage.Backend {
	case config.BackendBadger:
		store, err := storage.OpenBadger(storage.DefaultBadgerConfig(rt.cfg.Storage.DataDir), rt.logger,
			storage.WithGuestPermissions(perms...))
		if err != nil {
			return err
		}
		if err := store.RegisterMetrics(rt.metrics.Registerer()); err != nil {
			store.Close()
			return fmt.Errorf("register storage metrics: %w", err)
		}
		rt.store = store
		rt.closeStore = store.Close
		rt.ping = store.Ping
	default:
		rt.store = memory.New(memory.WithGuestPermissions(perms...))
		rt.closeStore = func() error { return nil }
	}
	return nil
}

func (rt *runtime) close() error {
	if rt.closeStore == nil {
		return nil
	}
	return rt.closeStore()
}

// newRouter registers the built-in handlers. Matching is first-match in
// this order.
func newRouter(cfg *config.ServerConfig, metrics *metric.Registry, table *service.SessionTable, ping func(context.Context) error) *httpserver.Router {
	router := httpserver.NewRouter(
		handler.NewAuth(cfg.Files.LoginView),
		handler.Echo(handler.EchoPath),
		handler.Health(handler.HealthPath, handler.HealthOptions{
			Ready:    ping,
			Sessions: table.Len,
		}),
	)
	if cfg.Metrics.Enabled {
		router.Register(handler.Metrics(cfg.Metrics.Path, metrics))
	}
	return router
}

func toPermissions(ids []int) []domain.Permission {
	perms := make([]domain.Permission, 0, len(ids))
	for _, id := range ids {
		perms = append(perms, domain.Permission(id))
	}
	return perms
}

// seedAdmin makes sure the configured administrator and its role exist.
// An existing user is left untouched.
func seedAdmin(ctx context.Context, store service.CredentialAdmin, sec *config.SecuritySection, logger *slog.Logger) error {
	if sec.AdminUser == "" || sec.AdminPasswordHash == "" {
		return nil
	}

	role, err := ensureAdminRole(ctx, store)
	if err != nil {
		return err
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(users, func(u *domain.Credentials) bool { return u.LogonName == sec.AdminUser }) {
		return nil
	}

	created, err := store.SaveUser(ctx, &domain.Credentials{
		LogonName:    sec.AdminUser,
		PasswordHash: sec.AdminPasswordHash,
		Active:       true,
		RoleIDs:      []int64{role.ID},
	})
	if err != nil {
		return err
	}
	logger.Info("admin user created", "user", created.LogonName, "id", created.ID)
	return nil
}

var adminPermissions = []domain.Permission{domain.PermissionManageUser, domain.PermissionManageRole}

func ensureAdminRole(ctx context.Context, store service.CredentialAdmin) (*domain.Role, error) {
	roles, err := store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.Name != AdminRoleName {
			continue
		}
		missing := false
		for _, p := range adminPermissions {
			if !slices.Contains(r.Permissions, p) {
				r.Permissions = append(r.Permissions, p)
				missing = true
			}
		}
		if !missing {
			return r, nil
		}
		return store.SaveRole(ctx, r)
	}
	role, err := store.SaveRole(ctx, &domain.Role{Name: AdminRoleName, Permissions: adminPermissions})
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.New("admin role not stored")
	}
	return role, nil
}
