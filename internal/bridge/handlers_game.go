package bridge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ClaytonMcArthur/not-kahoot/internal/wireproto"
)

// pinFromBody extracts the named field (e.g. "pin" or "gameId") from the
// request's buffered JSON body.
func pinFromBody(r *http.Request, key string) string {
	var v map[string]any
	if err := json.Unmarshal(bodyFrom(r), &v); err != nil {
		return ""
	}
	s, _ := v[key].(string)
	return s
}

func decodeBody(r *http.Request, v any) error {
	return json.Unmarshal(bodyFrom(r), v)
}

// lookupSession resolves username's live session without creating one. On
// ErrNotConnected it writes the 400 {ok:false,error:"Not connected"} body
// spec.md §7/§6.2 call for and reports false so the caller returns.
func lookupSession(w http.ResponseWriter, pool *Pool, username string) (*Session, bool) {
	sess, err := pool.Lookup(username)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "Not connected"})
		return nil, false
	}
	return sess, true
}

// handleConnect implements POST /api/connect — establishes (or reuses)
// the caller's game-server session.
func handleConnect(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		if _, err := pool.Connect(r.Context(), username); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// handleListGames implements POST /api/listGames, correlated on GAMES_LIST.
func handleListGames(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		if err := sess.send(map[string]any{"type": "LIST_GAMES"}); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		frame, err := sess.subscribe(r.Context(), "GAMES_LIST", nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "games": frame.Get("games")})
	}
}

// handleCreateGame implements POST /api/createGame, correlated on
// GAME_CREATED.
func handleCreateGame(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		var req struct {
			Theme      string `json:"theme"`
			IsPublic   bool   `json:"isPublic"`
			MaxPlayers int    `json:"maxPlayers"`
		}
		_ = decodeBody(r, &req)

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		msg := map[string]any{
			"type": "CREATE_GAME", "username": username,
			"theme": req.Theme, "isPublic": req.IsPublic, "maxPlayers": req.MaxPlayers,
		}
		if err := sess.send(msg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		frame, err := sess.subscribe(r.Context(), "GAME_CREATED", nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "game": frame.Get("game")})
	}
}

// handleJoinGame implements POST /api/joinGame {gameId}, correlated on
// JOINED_GAME whose game.pin matches the requested pin.
func handleJoinGame(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		pin := pinFromBody(r, "gameId")
		if pin == "" {
			writeError(w, http.StatusBadRequest, "gameId is required")
			return
		}

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		if err := sess.send(map[string]any{"type": "JOIN_GAME", "pin": pin, "username": username}); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		frame, err := sess.subscribe(r.Context(), "JOINED_GAME", func(f *wireproto.Frame) bool {
			game, _ := f.Get("game").(map[string]any)
			p, _ := game["pin"].(string)
			return p == pin
		})
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				writeError(w, http.StatusInternalServerError, "timed out waiting to join game")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "game": frame.Get("game")})
	}
}

// handleFireAndForget covers the endpoints that forward a single TCP
// message and reply immediately — their outcome reaches the browser via
// SSE, per spec §4.8.
func handleFireAndForget(pool *Pool, msgType, pinKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		pin := pinFromBody(r, pinKey)

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		msg := map[string]any{"type": msgType, "pin": pin, "username": username}
		if err := sess.send(msg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// handleSendAnswer implements POST /api/sendAnswer {gameId, answer}.
func handleSendAnswer(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		var req struct {
			GameID string `json:"gameId"`
			Answer bool   `json:"answer"`
		}
		_ = decodeBody(r, &req)

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		msg := map[string]any{
			"type": "ANSWER", "pin": req.GameID, "username": username, "correct": req.Answer,
		}
		if err := sess.send(msg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// handleSubmitQuestion implements POST /api/submitQuestion {pin, question, answerTrue}.
func handleSubmitQuestion(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		var req struct {
			Pin        string `json:"pin"`
			Question   string `json:"question"`
			AnswerTrue bool   `json:"answerTrue"`
		}
		_ = decodeBody(r, &req)

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		msg := map[string]any{
			"type": "SUBMIT_QUESTION", "pin": req.Pin, "username": username,
			"question": req.Question, "answerTrue": req.AnswerTrue,
		}
		if err := sess.send(msg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// handleChat implements POST /api/chat {pin, message}.
func handleChat(pool *Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := usernameFrom(r)
		var req struct {
			Pin     string `json:"pin"`
			Message string `json:"message"`
		}
		_ = decodeBody(r, &req)

		sess, ok := lookupSession(w, pool, username)
		if !ok {
			return
		}
		msg := map[string]any{
			"type": "CHAT", "pin": req.Pin, "username": username, "message": req.Message,
		}
		if err := sess.send(msg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
