// Package handler provides the path handlers bundled with the server.
//
// This package contains:
//
//   - action.go: ActionMux, dispatch of the first path part to a function
//   - crud.go: list/view/create/modify/remove dispatch to a CRUDController
//   - auth.go: the /auth/ handler (log-on, log-off, whoami, user admin)
//   - echo.go, health.go, metrics.go: small operational handlers
//
// JSON replies use the Envelope format; plain replies are strings.
package handler
