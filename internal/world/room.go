package world

import (
	"sort"
	"strings"
)

// Room flags.
const (
	FlagNode     = "NODE"
	FlagShop     = "SHOP"
	FlagBank     = "BANK"
	FlagDark     = "DARK"
	FlagIndoors  = "INDOORS"
	FlagOutdoors = "OUTDOORS"
	FlagRepairer = "REPAIRER"

	// Weather flags. Shifted over time on OUTDOORS rooms; they feed the
	// elemental damage multipliers in the combat pipeline.
	FlagWet       = "WET"
	FlagStormy    = "STORMY"
	FlagFreezing  = "FREEZING"
	FlagBlazing   = "BLAZING"
	FlagSandstorm = "SANDSTORM"
)

// WeatherFlags is the closed set of weather states a room can carry.
var WeatherFlags = []string{FlagWet, FlagStormy, FlagFreezing, FlagBlazing, FlagSandstorm}

// SkillCheck gates an exit on a skill roll.
type SkillCheck struct {
	Skill      string
	DC         int
	FailMsg    string
	SuccessMsg string
	FailDamage int
}

// ExitTrap is a trap on an exit or container.
type ExitTrap struct {
	Active       bool
	PerceptionDC int
	DisarmDC     int
	Damage       int
	DamageType   string
}

// Exit is a directed edge to another room. A nil Check/Trap means none.
type Exit struct {
	To         int32
	Locked     bool
	KeyID      string
	LockpickDC int
	Check      *SkillCheck
	Trap       *ExitTrap
}

// RoomObject is a descriptive, keyword-addressable fixture.
type RoomObject struct {
	Keywords    []string
	Name        string
	Description string
}

// ShopEntry is one stocked row of a shop room. Stock -1 means infinite.
type ShopEntry struct {
	TemplateID int64
	Stock      int
	BuyMod     float64
	SellMod    float64
}

// Spawner caps how many instances of one mob template live in the room.
type Spawner struct {
	TemplateID int32
	Max        int
	// Inactive is set at load when the template is missing; the spawner
	// is kept but never fires.
	Inactive bool
}

// Area groups rooms for builder organization.
type Area struct {
	ID   int32
	Name string
}

// Room is one location. The room exclusively owns its occupant sets and
// the presence of its ground items; item instances themselves are shared
// by id with the world registry.
type Room struct {
	ID          int32
	AreaID      int32
	Name        string
	Description string
	Exits       map[string]*Exit
	Flags       map[string]bool
	Spawners    []*Spawner
	Coins       int64
	Items       []*Item
	Objects     []RoomObject

	// Shop data, present when FlagShop.
	Shop      []*ShopEntry
	BuyFilter []string // item types (or template ids as strings) the shop buys
	SellMod   float64  // room default sell modifier

	Chars map[int32]*Character
	Mobs  map[int64]*Mob
}

// NewRoom builds an empty room shell; the loader fills the content fields.
func NewRoom(id, areaID int32, name, desc string) *Room {
	return &Room{
		ID:          id,
		AreaID:      areaID,
		Name:        name,
		Description: desc,
		Exits:       make(map[string]*Exit),
		Flags:       make(map[string]bool),
		Chars:       make(map[int32]*Character),
		Mobs:        make(map[int64]*Mob),
	}
}

// Flag reports whether the room carries a flag.
func (r *Room) Flag(f string) bool { return r.Flags[f] }

// SetWeather clears all weather flags and applies the given ones.
func (r *Room) SetWeather(flags ...string) {
	for _, f := range WeatherFlags {
		delete(r.Flags, f)
	}
	for _, f := range flags {
		r.Flags[f] = true
	}
}

// AddChar places a character in the room and points it back here.
func (r *Room) AddChar(c *Character) {
	r.Chars[c.ID] = c
	c.InRoom = r
	c.RoomID = r.ID
}

// RemoveChar takes a character out of the occupancy set.
func (r *Room) RemoveChar(c *Character) {
	delete(r.Chars, c.ID)
	if c.InRoom == r {
		c.InRoom = nil
	}
}

// AddMob places a mob in the room.
func (r *Room) AddMob(m *Mob) {
	r.Mobs[m.ID] = m
	m.InRoom = r
}

// RemoveMob takes a mob out of the occupancy set.
func (r *Room) RemoveMob(m *Mob) {
	delete(r.Mobs, m.ID)
	if m.InRoom == r {
		m.InRoom = nil
	}
}

// Broadcast sends a line to every character in the room except the
// excluded ones. Sends are buffered per session; a slow client never
// blocks the room.
func (r *Room) Broadcast(msg string, exclude ...*Character) {
	for _, c := range r.Chars {
		skip := false
		for _, ex := range exclude {
			if c == ex {
				skip = true
				break
			}
		}
		if !skip {
			c.Send(msg)
		}
	}
}

// FindChar locates a character in the room by name prefix.
func (r *Room) FindChar(name string) *Character {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	for _, c := range r.Chars {
		if strings.HasPrefix(strings.ToLower(c.FirstName), name) {
			return c
		}
	}
	return nil
}

// FindMob locates a living, visible mob in the room by keyword. Hidden
// and dead mobs are not addressable.
func (r *Room) FindMob(keyword string) *Mob {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	// Iterate in id order so "kill rat" is deterministic with two rats.
	ids := make([]int64, 0, len(r.Mobs))
	for id := range r.Mobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m := r.Mobs[id]
		if m.Dead || m.Hidden {
			continue
		}
		if m.Matches(keyword) {
			return m
		}
	}
	return nil
}

// FindItem locates a ground item by keyword.
func (r *Room) FindItem(keyword string) *Item {
	for _, it := range r.Items {
		if it.Matches(keyword) {
			return it
		}
	}
	return nil
}

// FindObject locates a descriptive room object by keyword.
func (r *Room) FindObject(keyword string) *RoomObject {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	for i := range r.Objects {
		for _, kw := range r.Objects[i].Keywords {
			if strings.HasPrefix(strings.ToLower(kw), keyword) {
				return &r.Objects[i]
			}
		}
	}
	return nil
}

// AddItem drops an item on the ground.
func (r *Room) AddItem(it *Item) {
	r.Items = append(r.Items, it)
}

// RemoveItem picks an item off the ground; reports whether it was there.
func (r *Room) RemoveItem(it *Item) bool {
	for i, v := range r.Items {
		if v == it {
			r.Items = append(r.Items[:i], r.Items[i+1:]...)
			return true
		}
	}
	return false
}

// MobCount returns how many live instances of a template are present.
func (r *Room) MobCount(templateID int32) int {
	n := 0
	for _, m := range r.Mobs {
		if m.Tmpl.ID == templateID && !m.Dead {
			n++
		}
	}
	return n
}
