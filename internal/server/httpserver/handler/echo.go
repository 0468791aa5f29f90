package handler

import (
	"github.com/foxhorn/foxyserver/internal/server/httpserver"
)

// EchoPath is the default prefix of the echo handler.
const EchoPath = "/echo"

// Echo returns a handler replying with the request body for POST and the
// raw query string for GET, as plain text.
func Echo(prefix string) httpserver.PathHandler {
	return httpserver.Handle(prefix, func(c *httpserver.Context) error {
		if c.Request.IsPost() {
			c.Response.SetRaw(c.Request.Body)
		} else {
			c.Response.SetString(c.Request.QueryString)
		}
		c.Response.SetContentType(httpserver.ContentTypePlain)
		return nil
	})
}
