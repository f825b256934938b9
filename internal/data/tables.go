package data

import "sort"

// RaceTable holds all races indexed by id and lowercase name.
type RaceTable struct {
	byID   map[int32]*Race
	byName map[string]*Race
	order  []*Race
}

func NewRaceTable(races []Race) *RaceTable {
	t := &RaceTable{
		byID:   make(map[int32]*Race, len(races)),
		byName: make(map[string]*Race, len(races)),
	}
	for i := range races {
		r := &races[i]
		sort.SliceStable(r.Traits, func(a, b int) bool {
			return TraitRank(r.Traits[a].Name) < TraitRank(r.Traits[b].Name)
		})
		t.byID[r.ID] = r
		t.byName[lower(r.Name)] = r
		t.order = append(t.order, r)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i].ID < t.order[j].ID })
	return t
}

func (t *RaceTable) Get(id int32) *Race          { return t.byID[id] }
func (t *RaceTable) GetByName(name string) *Race { return t.byName[lower(name)] }
func (t *RaceTable) All() []*Race                { return t.order }
func (t *RaceTable) Count() int                  { return len(t.byID) }

// ClassTable holds all classes indexed by id and lowercase name.
type ClassTable struct {
	byID   map[int32]*Class
	byName map[string]*Class
	order  []*Class
}

func NewClassTable(classes []Class) *ClassTable {
	t := &ClassTable{
		byID:   make(map[int32]*Class, len(classes)),
		byName: make(map[string]*Class, len(classes)),
	}
	for i := range classes {
		c := &classes[i]
		t.byID[c.ID] = c
		t.byName[lower(c.Name)] = c
		t.order = append(t.order, c)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i].ID < t.order[j].ID })
	return t
}

func (t *ClassTable) Get(id int32) *Class          { return t.byID[id] }
func (t *ClassTable) GetByName(name string) *Class { return t.byName[lower(name)] }
func (t *ClassTable) All() []*Class                { return t.order }
func (t *ClassTable) Count() int                   { return len(t.byID) }

// ItemTable holds all item templates indexed by id.
type ItemTable struct {
	byID map[int64]*ItemTemplate
}

func NewItemTable(tmpls []ItemTemplate) *ItemTable {
	t := &ItemTable{byID: make(map[int64]*ItemTemplate, len(tmpls))}
	for i := range tmpls {
		t.byID[tmpls[i].ID] = &tmpls[i]
	}
	return t
}

func (t *ItemTable) Get(id int64) *ItemTemplate { return t.byID[id] }
func (t *ItemTable) Count() int                 { return len(t.byID) }

// MobTable holds all mob templates indexed by id.
type MobTable struct {
	byID map[int32]*MobTemplate
}

func NewMobTable(tmpls []MobTemplate) *MobTable {
	t := &MobTable{byID: make(map[int32]*MobTemplate, len(tmpls))}
	for i := range tmpls {
		t.byID[tmpls[i].ID] = &tmpls[i]
	}
	return t
}

func (t *MobTable) Get(id int32) *MobTemplate { return t.byID[id] }
func (t *MobTable) Count() int                { return len(t.byID) }

// AbilityTable holds all spells and abilities indexed by key.
type AbilityTable struct {
	byKey map[string]*Ability
}

func NewAbilityTable(abilities []Ability) *AbilityTable {
	t := &AbilityTable{byKey: make(map[string]*Ability, len(abilities))}
	for i := range abilities {
		t.byKey[lower(abilities[i].Key)] = &abilities[i]
	}
	return t
}

func (t *AbilityTable) Get(key string) *Ability { return t.byKey[lower(key)] }
func (t *AbilityTable) Count() int              { return len(t.byKey) }

// Catalog bundles every loaded table for code that needs the whole
// content surface.
type Catalog struct {
	Races     *RaceTable
	Classes   *ClassTable
	Items     *ItemTable
	Mobs      *MobTable
	Abilities *AbilityTable
	Help      *HelpTable
	MOTD      string
}

func lower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
