package bridge

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/ClaytonMcArthur/not-kahoot/internal/user"
)

func addRoutes(r chi.Router, logger *slog.Logger, pool *Pool, hub *Hub, users user.Store, tokens *user.TokenSigner) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("not-kahoot Bridge API", "/openapi.json", "/docs"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", handleSignup(users))
		r.Post("/login", handleLogin(users))
		r.Get("/me", handleMe(users, tokens))
		r.Get("/scoreboard", handleScoreboard(users))
		r.Get("/events", handleEvents(hub))

		r.Group(func(r chi.Router) {
			r.Use(usernameMiddleware(tokens))

			r.Post("/connect", handleConnect(pool))
			r.Post("/listGames", handleListGames(pool))
			r.Post("/createGame", handleCreateGame(pool))
			r.Post("/joinGame", handleJoinGame(pool))
			r.Post("/startGame", handleFireAndForget(pool, "START_GAME", "pin"))
			r.Post("/exitGame", handleFireAndForget(pool, "EXIT_GAME", "gameId"))
			r.Post("/sendAnswer", handleSendAnswer(pool))
			r.Post("/nextQuestion", handleFireAndForget(pool, "NEXT_QUESTION", "gameId"))
			r.Post("/endGame", handleFireAndForget(pool, "END_GAME", "gameId"))
			r.Post("/submitQuestion", handleSubmitQuestion(pool))
			r.Post("/chat", handleChat(pool))
			r.Post("/awardWinner", handleAwardWinner(users))
		})
	})
}
