package world

// MaxGroupSize caps a group at four members including the leader.
const MaxGroupSize = 4

// Group is an adventuring party. Members[0] is the leader.
type Group struct {
	ID      int64
	Members []*Character
}

// Leader returns the current leader, nil for an empty group.
func (g *Group) Leader() *Character {
	if len(g.Members) == 0 {
		return nil
	}
	return g.Members[0]
}

// Contains reports whether a character is in the group.
func (g *Group) Contains(c *Character) bool {
	for _, m := range g.Members {
		if m == c {
			return true
		}
	}
	return false
}

// Add joins a character; reports false when the group is full or the
// character is already in it.
func (g *Group) Add(c *Character) bool {
	if len(g.Members) >= MaxGroupSize || g.Contains(c) {
		return false
	}
	g.Members = append(g.Members, c)
	c.GroupID = g.ID
	return true
}

// Remove drops a character. Leadership passes to the next member when the
// leader leaves. Reports whether the group is now empty or down to one.
func (g *Group) Remove(c *Character) (disband bool) {
	for i, m := range g.Members {
		if m == c {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			c.GroupID = 0
			break
		}
	}
	return len(g.Members) <= 1
}

// PresentMembers returns the members in the given room, leader first.
// Callers that split rewards filter the result for liveness themselves.
func (g *Group) PresentMembers(r *Room) []*Character {
	var out []*Character
	for _, m := range g.Members {
		if m.InRoom == r {
			out = append(out, m)
		}
	}
	return out
}

// Broadcast sends a line to every member, wherever they are.
func (g *Group) Broadcast(msg string, exclude ...*Character) {
	for _, m := range g.Members {
		skip := false
		for _, ex := range exclude {
			if m == ex {
				skip = true
				break
			}
		}
		if !skip {
			m.Send(msg)
		}
	}
}

// SplitShares divides an amount into n even shares with the integer
// remainder going to the first (leader) share.
func SplitShares(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	share := total / int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = share
	}
	shares[0] += total - share*int64(n)
	return shares
}
