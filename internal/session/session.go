package session

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
)

// UserKey is the session value holding the authenticated username.
const UserKey = "user"

const bindingKey = "gatekeeper/session.binding"

type binding struct {
	name  string
	store sessions.Store
}

// Middleware installs the gin-contrib session for name and remembers the
// store so that load failures stay visible through Err.
func Middleware(name string, store sessions.Store) gin.HandlerFunc {
	inner := sessions.Sessions(name, store)
	return func(c *gin.Context) {
		c.Set(bindingKey, binding{name: name, store: store})
		inner(c)
	}
}

// lookup returns the request session from the store registry; repeated calls
// reuse the first load and its error.
func lookup(c *gin.Context) (*gsessions.Session, error) {
	v, ok := c.Get(bindingKey)
	if !ok {
		return nil, errors.New("session middleware not installed")
	}
	b := v.(binding)
	return b.store.Get(c.Request, b.name)
}

// Err returns the error the store hit while loading the request session. A
// missing or invalid cookie is not an error.
func Err(c *gin.Context) error {
	_, err := lookup(c)
	return err
}

// User returns the username bound to the request session, if any.
func User(c *gin.Context) (string, bool) {
	user, ok := sessions.Default(c).Get(UserKey).(string)
	return user, ok && user != ""
}

// Active reports whether the request carried a session known to the store.
func Active(c *gin.Context) bool {
	return sessions.Default(c).ID() != ""
}

// Login binds username to the session and persists it, issuing the cookie.
func Login(c *gin.Context, username string) error {
	s := sessions.Default(c)
	s.Set(UserKey, username)
	return s.Save()
}

// Destroy deletes the stored session and instructs the client to drop the
// cookie. The expiring cookie keeps the configured attributes.
func Destroy(c *gin.Context) error {
	current, err := lookup(c)
	if err != nil {
		return err
	}

	s := sessions.Default(c)
	s.Clear()
	s.Delete(UserKey)
	opts := *current.Options
	opts.MaxAge = -1
	current.Options = &opts
	return s.Save()
}

// Rolling re-saves authenticated sessions on every request so that expiry
// counts from the last request instead of from login.
func Rolling() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := User(c); ok {
			if err := Login(c, user); err != nil {
				_ = c.Error(err)
			}
		}
		c.Next()
	}
}
