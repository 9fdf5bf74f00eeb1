package domain

import "time"

// GameServer is a game server announced to the master server. It stays
// listed while it keeps sending heartbeats.
type GameServer struct {
	Key       string    `json:"-"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Port      int       `json:"port"`
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the server missed its heartbeat window at now.
func (s *GameServer) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
