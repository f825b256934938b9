package world

import (
	"sort"
	"strings"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
)

// State is the root of the live world. It is owned by the game-loop
// goroutine; nothing outside that goroutine touches it after boot.
type State struct {
	Rooms  map[int32]*Room
	Areas  map[int32]*Area
	Chars  map[int32]*Character
	Mobs   map[int64]*Mob
	Items  map[int64]*Item
	Groups map[int64]*Group

	// Catalog is the immutable content surface hydrated at boot.
	Catalog *data.Catalog

	// Weather is the current global weather flag ("" = clear), mirrored
	// onto every OUTDOORS room when it shifts.
	Weather string

	// DeadItems collects ids of destroyed instances for the next
	// persistence flush to delete.
	DeadItems []int64

	Roller dice.Roller

	charsByName map[string]*Character
	nextItemID  int64
	nextMobID   int64
	nextGroupID int64
}

// NewState builds an empty world.
func NewState(roller dice.Roller) *State {
	return &State{
		Rooms:       make(map[int32]*Room),
		Areas:       make(map[int32]*Area),
		Chars:       make(map[int32]*Character),
		Mobs:        make(map[int64]*Mob),
		Items:       make(map[int64]*Item),
		Groups:      make(map[int64]*Group),
		Roller:      roller,
		charsByName: make(map[string]*Character),
	}
}

// SetItemIDStart seeds the instance id counter above the highest
// persisted id so minted items never collide with loaded rows.
func (s *State) SetItemIDStart(maxID int64) {
	if maxID >= s.nextItemID {
		s.nextItemID = maxID
	}
}

// NextItemID mints a fresh item instance id.
func (s *State) NextItemID() int64 {
	s.nextItemID++
	return s.nextItemID
}

// NextMobID mints a fresh mob instance id.
func (s *State) NextMobID() int64 {
	s.nextMobID++
	return s.nextMobID
}

// Room returns a room by id, nil when absent.
func (s *State) Room(id int32) *Room { return s.Rooms[id] }

// ItemTemplate looks up an item template, nil when the catalog lacks it.
func (s *State) ItemTemplate(id int64) *data.ItemTemplate {
	if s.Catalog == nil || s.Catalog.Items == nil {
		return nil
	}
	return s.Catalog.Items.Get(id)
}

// AddChar registers a logged-in character in the world indexes.
func (s *State) AddChar(c *Character) {
	s.Chars[c.ID] = c
	s.charsByName[strings.ToLower(c.FirstName)] = c
}

// RemoveChar drops a character from the world indexes and its room.
func (s *State) RemoveChar(c *Character) {
	if c.InRoom != nil {
		c.InRoom.RemoveChar(c)
	}
	delete(s.Chars, c.ID)
	delete(s.charsByName, strings.ToLower(c.FirstName))
}

// CharByName finds an online character by exact first name,
// case-insensitive.
func (s *State) CharByName(name string) *Character {
	return s.charsByName[strings.ToLower(strings.TrimSpace(name))]
}

// OnlineChars returns the online characters sorted by first name.
func (s *State) OnlineChars() []*Character {
	out := make([]*Character, 0, len(s.Chars))
	for _, c := range s.Chars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out
}

// RegisterItem indexes a live instance by id.
func (s *State) RegisterItem(it *Item) { s.Items[it.ID] = it }

// DestroyItem unindexes an instance and queues its row for deletion.
// Contained items are destroyed with it.
func (s *State) DestroyItem(it *Item) {
	for _, c := range it.Contents {
		s.DestroyItem(c)
	}
	it.Contents = nil
	delete(s.Items, it.ID)
	if !it.Unsaved {
		s.DeadItems = append(s.DeadItems, it.ID)
	}
}

// RegisterMob indexes a live mob by instance id.
func (s *State) RegisterMob(m *Mob) { s.Mobs[m.ID] = m }

// NewGroup starts a group led by the given character.
func (s *State) NewGroup(leader *Character) *Group {
	s.nextGroupID++
	g := &Group{ID: s.nextGroupID}
	g.Add(leader)
	s.Groups[g.ID] = g
	return g
}

// GroupOf returns the character's group, nil when ungrouped.
func (s *State) GroupOf(c *Character) *Group {
	if c.GroupID == 0 {
		return nil
	}
	return s.Groups[c.GroupID]
}

// Disband dissolves a group, clearing every member's membership.
func (s *State) Disband(g *Group) {
	for _, m := range g.Members {
		m.GroupID = 0
	}
	g.Members = nil
	delete(s.Groups, g.ID)
}

// SetWeather shifts the global weather and mirrors it onto every
// OUTDOORS room ("" clears).
func (s *State) SetWeather(flag string) {
	s.Weather = flag
	for _, r := range s.Rooms {
		if !r.Flag(FlagOutdoors) {
			continue
		}
		if flag == "" {
			r.SetWeather()
		} else {
			r.SetWeather(flag)
		}
	}
}
