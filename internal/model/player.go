package model

// Player is a participant seated at a color.
type Player struct {
	ID    string
	Color Color
}

type ClientPlayer struct {
	ID       string `json:"name"`
	Color    Color  `json:"color"`
	Computer bool   `json:"computer,omitempty"`
	TimeLeft int64  `json:"timeLeft"`
}

// ComputerPlayerID seats the computer opponent.
const ComputerPlayerID = "computer"
