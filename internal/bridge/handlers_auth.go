package bridge

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ClaytonMcArthur/not-kahoot/internal/user"
)

func handleSignup(users user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		err := users.Signup(r.Context(), req.Username, req.Password)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
		case errors.Is(err, user.ErrConflict):
			writeError(w, http.StatusConflict, "username already taken")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

func handleLogin(users user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, profile, err := users.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  map[string]string{"id": profile.ID, "username": profile.Username},
		})
	}
}

func handleMe(users user.Store, tokens *user.TokenSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		profile, err := users.Me(r.Context(), token)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{"user": profile})
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusUnauthorized, "invalid token")
		}
	}
}

func handleScoreboard(users user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leaders, err := users.Scoreboard(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"leaders": leaders})
	}
}

func handleAwardWinner(users user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
		}
		_ = decodeBody(r, &req)
		if req.Username == "" {
			req.Username = usernameFrom(r)
		}

		if err := users.AwardWinner(r.Context(), req.Username); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
