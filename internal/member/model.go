package member

import "time"

// Member represents a registered wallet owner. Balance is authoritative in
// the ledger store; this struct only carries the value read from it.
type Member struct {
	ID           string
	Email        string
	Nickname     string
	PasswordHash []byte
	Balance      int64
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
	Nickname string
}
