// Package access decides which Telegram users may use the bot.
package access

// Gate is an immutable allow-list of caller ids. It is safe for concurrent use.
type Gate struct {
	allowed map[int64]struct{}
}

func NewGate(ids []int64) *Gate {
	allowed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// Allowed reports whether callerID is on the list. A nil Gate allows nobody.
func (g *Gate) Allowed(callerID int64) bool {
	if g == nil {
		return false
	}
	_, ok := g.allowed[callerID]
	return ok
}

// Len returns the number of distinct allowed ids.
func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	return len(g.allowed)
}
