package game

// PlayRequest captures a dice round wager.
type PlayRequest struct {
	BetAmount int64  `json:"bet_amount"`
	Pick      string `json:"pick"`
}

// PlayResponse represents the API response for a finished round.
type PlayResponse struct {
	Dice    int    `json:"dice"`
	Outcome string `json:"outcome"`
	Win     bool   `json:"win"`
	Payout  int64  `json:"payout"`
	Balance int64  `json:"balance"`
	Message string `json:"message"`
}
