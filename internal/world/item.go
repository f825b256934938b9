package world

import (
	"strings"

	"github.com/talonmoor/server/internal/data"
)

// Equipment slot names. This is the canonical set; there are no legacy
// aliases. A two-handed weapon occupies main_hand and off_hand with the
// same instance.
const (
	SlotMainHand = "main_hand"
	SlotOffHand  = "off_hand"
	SlotHead     = "head"
	SlotTorso    = "torso"
	SlotLegs     = "legs"
	SlotFeet     = "feet"
	SlotHands    = "hands"
	SlotAbout    = "about"
	SlotWaist    = "waist"
	SlotNeck     = "neck"
	SlotWrist    = "wrist"
	SlotFinger   = "finger"
	SlotLight    = "light"
	SlotQuiver   = "quiver"
)

// SlotOrder is the display order for equipment listings.
var SlotOrder = []string{
	SlotMainHand, SlotOffHand, SlotHead, SlotNeck, SlotTorso, SlotAbout,
	SlotWaist, SlotWrist, SlotFinger, SlotHands, SlotLegs, SlotFeet,
	SlotLight, SlotQuiver,
}

// MaxCondition is a pristine item's condition.
const MaxCondition = 100

// InstanceStats is the mutable overlay on an item instance. It is stored
// as JSONB so the content editor can read it.
type InstanceStats struct {
	Lit        bool           `json:"lit,omitempty"`
	Locked     bool           `json:"locked,omitempty"`
	Open       bool           `json:"open,omitempty"`
	LootRolled bool           `json:"loot_rolled,omitempty"`
	TrapArmed  bool           `json:"trap_armed,omitempty"`
	TrapDamage int            `json:"trap_damage,omitempty"`
	TrapDC     int            `json:"trap_dc,omitempty"`
	Bonuses    map[string]int `json:"bonuses,omitempty"`
}

// Item is a live item instance. Exactly one owner at a time: a character's
// inventory, an equipment slot, a container, a room, or a bank box. The
// instance graph is a forest; Contents is only populated for containers.
type Item struct {
	ID        int64
	Tmpl      *data.ItemTemplate
	Condition int
	Stats     InstanceStats
	Contents  []*Item

	// Dirty marks the instance for the next persistence flush. Unsaved
	// marks instances minted in memory that have no row yet.
	Dirty   bool
	Unsaved bool
}

// NewItem mints an instance of a template at full condition.
func NewItem(id int64, tmpl *data.ItemTemplate) *Item {
	it := &Item{
		ID:        id,
		Tmpl:      tmpl,
		Condition: MaxCondition,
		Unsaved:   true,
		Dirty:     true,
	}
	if tmpl.Type == data.ItemContainer && tmpl.LockID != "" {
		it.Stats.Locked = true
	}
	return it
}

// Name returns the display name.
func (i *Item) Name() string { return i.Tmpl.Name }

// Matches reports whether a player-typed keyword addresses this item.
func (i *Item) Matches(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	if strings.Contains(strings.ToLower(i.Tmpl.Name), kw) {
		return true
	}
	for _, k := range i.Tmpl.Keywords {
		if strings.EqualFold(k, kw) || strings.HasPrefix(strings.ToLower(k), kw) {
			return true
		}
	}
	return false
}

// TwoHanded reports whether the item needs both hand slots.
func (i *Item) TwoHanded() bool { return i.Tmpl.Type == data.ItemWeapon2H }

// IsWeapon reports whether the item can be wielded for attack.
func (i *Item) IsWeapon() bool {
	switch i.Tmpl.Type {
	case data.ItemWeapon, data.ItemWeapon2H, data.ItemRanged:
		return true
	}
	return false
}

// Weight returns the item's weight including contained items.
func (i *Item) Weight() int {
	w := i.Tmpl.Weight
	for _, c := range i.Contents {
		w += c.Weight()
	}
	return w
}

// ContainedWeight sums the weight of direct and nested contents.
func (i *Item) ContainedWeight() int {
	w := 0
	for _, c := range i.Contents {
		w += c.Weight()
	}
	return w
}

// CanContain reports whether adding it would stay within capacity and not
// create a cycle. A container cannot transitively contain itself.
func (i *Item) CanContain(it *Item) bool {
	if i.Tmpl.Type != data.ItemContainer || it == i {
		return false
	}
	if it.contains(i) {
		return false
	}
	return i.ContainedWeight()+it.Weight() <= i.Tmpl.Capacity
}

func (i *Item) contains(target *Item) bool {
	for _, c := range i.Contents {
		if c == target || c.contains(target) {
			return true
		}
	}
	return false
}

// AddContent places an item inside a container.
func (i *Item) AddContent(it *Item) {
	i.Contents = append(i.Contents, it)
	i.Dirty = true
}

// RemoveContent takes an item out of a container; reports whether it was
// present.
func (i *Item) RemoveContent(it *Item) bool {
	for n, c := range i.Contents {
		if c == it {
			i.Contents = append(i.Contents[:n], i.Contents[n+1:]...)
			i.Dirty = true
			return true
		}
	}
	return false
}

// FindContent locates a contained item by keyword.
func (i *Item) FindContent(keyword string) *Item {
	for _, c := range i.Contents {
		if c.Matches(keyword) {
			return c
		}
	}
	return nil
}

// Bonus returns the instance's bonus on a stat channel (loot rolls and
// enchants write these into the overlay).
func (i *Item) Bonus(channel string) int {
	if i.Stats.Bonuses == nil {
		return 0
	}
	return i.Stats.Bonuses[channel]
}

// Wear wears down condition by n, flooring at 0. Reports whether the item
// is destroyed (condition reached 0).
func (i *Item) Wear(n int) bool {
	i.Condition -= n
	i.Dirty = true
	if i.Condition <= 0 {
		i.Condition = 0
		return true
	}
	return false
}
