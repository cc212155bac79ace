package handlers

import (
	"net/http"

	"mazebound/server/models"
)

// Identity resolves an incoming connection to the user behind it. The actual
// authentication (sessions, cookies, tokens) lives outside this server; a nil
// user with a nil error means the connection is anonymous and every command
// on it will be rejected.
type Identity interface {
	ResolveUser(r *http.Request) (*models.User, error)
}
