package app

import "github.com/rs/zerolog/log"

// Conn is the one-way delivery capability the game needs from a transport
// connection. Implementations must be safe for concurrent use and must not
// block in Deliver; the game holds its own lock while fanning out.
type Conn interface {
	Deliver(msg any) error
	Alive() bool
}

// send delivers best-effort to a single recipient. A dead or erroring
// connection is skipped; the next broadcast supersedes whatever was missed.
func send(c Conn, msg any) {
	if c == nil || !c.Alive() {
		return
	}
	if err := c.Deliver(msg); err != nil {
		log.Debug().Err(err).Msg("skipping undeliverable connection")
	}
}

func (g *Game) broadcastPlayersLocked(msg any) {
	for _, p := range g.players {
		send(p.conn, msg)
	}
}

func (g *Game) broadcastAllLocked(msg any) {
	g.broadcastPlayersLocked(msg)
	send(g.host, msg)
}

func (g *Game) notifyHostLocked(msg any) {
	send(g.host, msg)
}
