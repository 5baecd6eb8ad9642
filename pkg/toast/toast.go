// Package toast carries one-shot notifications across a redirect in a signed
// cookie and hands them to the page's toaster.
package toast

import (
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "appshell_toast"

type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func init() {
	gob.Register(Toast{})
}

type Store struct {
	cookies *sessions.CookieStore
}

func NewStore(secret []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

func (s *Store) Add(w http.ResponseWriter, r *http.Request, level Level, message string) error {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil && sess == nil {
		return fmt.Errorf("toast session: %w", err)
	}
	sess.AddFlash(Toast{Level: level, Message: message})
	return sess.Save(r, w)
}

// Drain returns and clears the pending toasts. A tampered or undecodable
// cookie yields no toasts.
func (s *Store) Drain(w http.ResponseWriter, r *http.Request) ([]Toast, error) {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return nil, nil
	}

	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil, nil
	}

	toasts := make([]Toast, 0, len(flashes))
	for _, f := range flashes {
		if t, ok := f.(Toast); ok {
			toasts = append(toasts, t)
		}
	}

	if err := sess.Save(r, w); err != nil {
		return toasts, fmt.Errorf("toast session save: %w", err)
	}
	return toasts, nil
}
