package bridge

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse is the body of every fire-and-forget game operation.
type OKResponse struct {
	OK bool `json:"ok"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type ScoreboardResponse struct {
	Leaders []struct {
		Username string `json:"username"`
		Wins     int    `json:"wins"`
	} `json:"leaders"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "not-kahoot Bridge API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("HTTP/SSE bridge in front of the authoritative TCP game server.")

	postSignup, _ := r.NewOperationContext(http.MethodPost, "/api/signup")
	postSignup.SetSummary("Create an account")
	postSignup.AddReqStructure(SignupRequest{})
	postSignup.AddRespStructure(OKResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSignup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSignup)

	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Log in")
	postLogin.AddReqStructure(SignupRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Requires Bearer token.")
	getMe.AddRespStructure(struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Wins     int    `json:"wins"`
		} `json:"user"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	getScoreboard, _ := r.NewOperationContext(http.MethodGet, "/api/scoreboard")
	getScoreboard.SetSummary("Top 10 players by wins")
	getScoreboard.AddRespStructure(ScoreboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getScoreboard)

	postConnect, _ := r.NewOperationContext(http.MethodPost, "/api/connect")
	postConnect.SetSummary("Establish a game-server session")
	postConnect.AddRespStructure(OKResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postConnect.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postConnect)

	postListGames, _ := r.NewOperationContext(http.MethodPost, "/api/listGames")
	postListGames.SetSummary("List public lobby games")
	postListGames.AddRespStructure(struct {
		Success bool `json:"success"`
		Games   []any `json:"games"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postListGames)

	postCreateGame, _ := r.NewOperationContext(http.MethodPost, "/api/createGame")
	postCreateGame.SetSummary("Create a game")
	postCreateGame.AddRespStructure(struct {
		Success bool `json:"success"`
		Game    any  `json:"game"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postCreateGame)

	postJoinGame, _ := r.NewOperationContext(http.MethodPost, "/api/joinGame")
	postJoinGame.SetSummary("Join a game by pin")
	postJoinGame.AddRespStructure(struct {
		OK   bool `json:"ok"`
		Game any  `json:"game"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postJoinGame)

	for _, ep := range []struct {
		path, summary string
	}{
		{"/api/startGame", "Start a game"},
		{"/api/exitGame", "Leave a game"},
		{"/api/sendAnswer", "Submit an answer"},
		{"/api/nextQuestion", "Advance to the next question"},
		{"/api/endGame", "End a game"},
		{"/api/submitQuestion", "Submit a question"},
		{"/api/chat", "Send a chat message"},
	} {
		op, _ := r.NewOperationContext(http.MethodPost, ep.path)
		op.SetSummary(ep.summary)
		op.SetDescription("Fire-and-forget; outcome reaches the browser via SSE.")
		op.AddRespStructure(OKResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		_ = r.AddOperation(op)
	}

	postAwardWinner, _ := r.NewOperationContext(http.MethodPost, "/api/awardWinner")
	postAwardWinner.SetSummary("Credit a win to a user")
	postAwardWinner.SetDescription("Increments the user's win count in the user store before responding.")
	postAwardWinner.AddRespStructure(OKResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAwardWinner.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postAwardWinner)

	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Pass username as a query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
