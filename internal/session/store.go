// Package session provides a gin-contrib/sessions store that keeps session
// payloads in the relational database and hands the client only a signed
// session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository"
)

// Store implements sessions.Store on top of a repository.SessionRepository.
type Store struct {
	sessions repository.SessionRepository
	codecs   []securecookie.Codec
	options  *gsessions.Options
	now      func() time.Time
}

var _ sessions.Store = (*Store)(nil)

// errUndecodable marks a stored payload that no current key can open, such as
// one written before a secret rotation.
var errUndecodable = errors.New("undecodable session payload")

// NewStore returns a Store whose cookies and payloads are authenticated with
// keyPairs (see securecookie.CodecsFromPairs).
func NewStore(repo repository.SessionRepository, keyPairs ...[]byte) *Store {
	return &Store{
		sessions: repo,
		codecs:   securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:     "/",
			MaxAge:   60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		now: time.Now,
	}
}

// Options sets the cookie options applied to new sessions.
func (s *Store) Options(options sessions.Options) {
	s.options = options.ToGorillaOptions()
}

// Get returns the session cached in the request registry, loading it on first
// use.
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie. A missing, forged or
// expired cookie yields a fresh session with an empty ID.
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, cookie.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	if err := s.load(r.Context(), session); err != nil {
		session.ID = ""
		if errors.Is(err, repository.ErrSessionNotFound) || errors.Is(err, errUndecodable) {
			return session, nil
		}
		return session, err
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session and writes its cookie. A negative MaxAge removes
// the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.sessions.Delete(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}

	record := &domain.Session{
		ID:        session.ID,
		Data:      data,
		ExpiresAt: s.now().Add(time.Duration(session.Options.MaxAge) * time.Second),
	}
	if err := s.sessions.Save(ctx, record); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *Store) load(ctx context.Context, session *gsessions.Session) error {
	record, err := s.sessions.Get(ctx, session.ID, s.now())
	if err != nil {
		return err
	}
	if err := securecookie.DecodeMulti(session.Name(), record.Data, &session.Values, s.codecs...); err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}
	return nil
}
