package model

import "time"

// Identity is the locally persisted user cell. It is used for display and
// carries no authorization weight of its own.
type Identity struct {
	Username string `toml:"username" json:"username"`
	IsSet    bool   `toml:"is_set" json:"is_set"`
	IsLogged bool   `toml:"is_logged" json:"is_logged"`
	Token    string `toml:"token,omitempty" json:"-"`
}

// Session is issued by the gateway's POST /auth/session.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
