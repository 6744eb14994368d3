package gameserver

// Outbound envelope shapes. Each mirrors the corresponding message type in
// spec.md §4.3 — every one carries its own "type" discriminator so clients
// can dispatch on a single flat namespace, same as inbound frames.

type registerOK struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type gamesList struct {
	Type  string  `json:"type"`
	Games []*Game `json:"games"`
}

type gameCreated struct {
	Type string `json:"type"`
	Game *Game  `json:"game"`
}

type joinedGame struct {
	Type string `json:"type"`
	Game *Game  `json:"game"`
}

type playerJoined struct {
	Type string `json:"type"`
	Pin  string `json:"pin"`
	Game *Game  `json:"game"`
}

type playerLeft struct {
	Type string `json:"type"`
	Pin  string `json:"pin"`
	Game *Game  `json:"game"`
}

type questionSubmitted struct {
	Type       string `json:"type"`
	Pin        string `json:"pin"`
	Username   string `json:"username"`
	Question   string `json:"question"`
	AnswerTrue bool   `json:"answerTrue"`
}

type gameStarted struct {
	Type string `json:"type"`
	Pin  string `json:"pin"`
	Game *Game  `json:"game"`
}

type scoreUpdate struct {
	Type       string `json:"type"`
	Pin        string `json:"pin"`
	Game       *Game  `json:"game"`
	AnsweredBy string `json:"answeredBy"`
	Correct    bool   `json:"correct"`
	Duplicate  bool   `json:"duplicate"`
}

type nextQuestion struct {
	Type string `json:"type"`
	Pin  string `json:"pin"`
	Game *Game  `json:"game"`
}

type gameEnded struct {
	Type string `json:"type"`
	Pin  string `json:"pin"`
	Game *Game  `json:"game"`
}

type chatMessage struct {
	Type    string `json:"type"`
	Pin     string `json:"pin"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
