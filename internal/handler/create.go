package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/net"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// creationState is one step of the character-creation state machine.
type creationState int

const (
	createFirstName creationState = iota
	createLastName
	createSex
	createRace
	createClass
	createRollConfirm
	createAssignStats
	createTraits
	createDescription
	createDone
)

var titleCaser = cases.Title(language.English)

// creationFSM walks a new character through the fixed creation steps.
type creationFSM struct {
	state   creationState
	session *net.Session

	firstName string
	lastName  string
	sex       string
	race      *data.Race
	class     *data.Class

	rolls    []int
	assigned world.Stats
	statIdx  int // next unassigned attribute index in world.StatNames
	used     []bool
	traitIdx int
	traits   []string // chosen answers, aligned with race.Traits

	description string
}

func newCreationFSM(deps *Deps, s *net.Session) *creationFSM {
	return &creationFSM{state: createFirstName, session: s}
}

// promptText renders the prompt for the current state.
func (f *creationFSM) promptText() string {
	switch f.state {
	case createFirstName:
		return "\r\nFirst name: "
	case createLastName:
		return "Last name: "
	case createSex:
		return "Sex (male/female): "
	default:
		return ""
	}
}

// handle advances the FSM on one line. Returns (done, canceled); `quit`
// at any step cancels with nothing persisted.
func (f *creationFSM) handle(deps *Deps, line string) (done, canceled bool) {
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "quit") {
		f.session.SendRaw("Character creation canceled.\r\n")
		return false, true
	}

	switch f.state {
	case createFirstName:
		f.onFirstName(deps, line)
	case createLastName:
		f.onLastName(line)
	case createSex:
		f.onSex(deps, line)
	case createRace:
		f.onRace(deps, line)
	case createClass:
		f.onClass(deps, line)
	case createRollConfirm:
		f.onRollConfirm(deps, line)
	case createAssignStats:
		f.onAssign(deps, line)
	case createTraits:
		f.onTrait(line)
	case createDescription:
		f.onDescription(line)
	}
	return f.state == createDone, false
}

// validName: letters only, 2 to 15 runes.
func validName(name string) bool {
	runes := []rune(name)
	if len(runes) < 2 || len(runes) > 15 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func (f *creationFSM) onFirstName(deps *Deps, line string) {
	if !validName(line) {
		f.session.SendRaw("Names are 2-15 letters, nothing else. First name: ")
		return
	}
	name := titleCaser.String(strings.ToLower(line))
	ctx, cancel := deps.ctx()
	exists, err := deps.Characters.NameExists(ctx, name)
	cancel()
	if err != nil {
		deps.Log.Error("name check", zap.String("name", name), zap.Error(err))
		f.session.SendRaw("An error occurred. First name: ")
		return
	}
	if exists {
		f.session.SendRaw("That name is taken. First name: ")
		return
	}
	f.firstName = name
	f.state = createLastName
	f.session.SendRaw("Last name: ")
}

func (f *creationFSM) onLastName(line string) {
	if !validName(line) {
		f.session.SendRaw("Names are 2-15 letters, nothing else. Last name: ")
		return
	}
	f.lastName = titleCaser.String(strings.ToLower(line))
	f.state = createSex
	f.session.SendRaw("Sex (male/female): ")
}

func (f *creationFSM) onSex(deps *Deps, line string) {
	switch strings.ToLower(line) {
	case "m", "male":
		f.sex = "male"
	case "f", "female":
		f.sex = "female"
	default:
		f.session.SendRaw("Sex (male/female): ")
		return
	}
	f.state = createRace
	var b strings.Builder
	b.WriteString("\r\n")
	for _, r := range deps.State.Catalog.Races.All() {
		fmt.Fprintf(&b, "%-10s %s\r\n", r.Name, r.Description)
	}
	b.WriteString("Choose a race: ")
	f.session.SendRaw(b.String())
}

func (f *creationFSM) onRace(deps *Deps, line string) {
	race := deps.State.Catalog.Races.GetByName(line)
	if race == nil {
		var names []string
		for _, r := range deps.State.Catalog.Races.All() {
			names = append(names, r.Name)
		}
		f.session.SendRaw(fmt.Sprintf("Choose a race (%s): ", strings.Join(names, ", ")))
		return
	}
	f.race = race
	f.state = createClass
	var names []string
	for _, cl := range deps.State.Catalog.Classes.All() {
		names = append(names, cl.Name)
	}
	f.session.SendRaw(fmt.Sprintf("Choose a class (%s): ", strings.Join(names, ", ")))
}

func (f *creationFSM) onClass(deps *Deps, line string) {
	class := deps.State.Catalog.Classes.GetByName(line)
	if class == nil {
		var names []string
		for _, cl := range deps.State.Catalog.Classes.All() {
			names = append(names, cl.Name)
		}
		f.session.SendRaw(fmt.Sprintf("Choose a class (%s): ", strings.Join(names, ", ")))
		return
	}
	f.class = class
	f.rollStats(deps)
}

// rollStats rolls six 4d6 values and asks for confirmation.
func (f *creationFSM) rollStats(deps *Deps) {
	f.rolls = f.rolls[:0]
	for i := 0; i < 6; i++ {
		f.rolls = append(f.rolls, dice.Sum(deps.Roller, 4, 6))
	}
	f.state = createRollConfirm
	parts := make([]string, len(f.rolls))
	for i, v := range f.rolls {
		parts[i] = strconv.Itoa(v)
	}
	f.session.SendRaw(fmt.Sprintf("\r\nYour rolls: %s\r\nKeep these? (accept/reroll): ",
		strings.Join(parts, ", ")))
}

func (f *creationFSM) onRollConfirm(deps *Deps, line string) {
	switch strings.ToLower(line) {
	case "accept", "a", "keep", "yes", "y":
		f.state = createAssignStats
		f.statIdx = 0
		f.used = make([]bool, len(f.rolls))
		f.askAssignment()
	case "reroll", "r", "no", "n":
		f.rollStats(deps)
	default:
		f.session.SendRaw("Keep these? (accept/reroll): ")
	}
}

func (f *creationFSM) askAssignment() {
	var avail []string
	for i, v := range f.rolls {
		if !f.used[i] {
			avail = append(avail, strconv.Itoa(v))
		}
	}
	f.session.SendRaw(fmt.Sprintf("Assign to %s (available: %s): ",
		world.StatNames[f.statIdx], strings.Join(avail, ", ")))
}

func (f *creationFSM) onAssign(deps *Deps, line string) {
	v, err := strconv.Atoi(line)
	if err != nil {
		f.askAssignment()
		return
	}
	picked := -1
	for i, roll := range f.rolls {
		if !f.used[i] && roll == v {
			picked = i
			break
		}
	}
	if picked < 0 {
		f.session.SendRaw("That value is not available. ")
		f.askAssignment()
		return
	}
	f.used[picked] = true
	f.assigned.Set(world.StatNames[f.statIdx], v)
	f.statIdx++
	if f.statIdx < len(world.StatNames) {
		f.askAssignment()
		return
	}

	// Racial modifiers, clamped so no stat drops below 1.
	for stat, mod := range f.race.StatMods {
		nv := f.assigned.Get(stat) + mod
		if nv < 1 {
			nv = 1
		}
		f.assigned.Set(stat, nv)
	}

	f.traitIdx = 0
	f.traits = make([]string, len(f.race.Traits))
	if len(f.race.Traits) > 0 {
		f.state = createTraits
		f.askTrait()
		return
	}
	f.state = createDescription
	f.session.SendRaw("Describe your character in a sentence (or press enter): ")
}

func (f *creationFSM) askTrait() {
	t := f.race.Traits[f.traitIdx]
	var b strings.Builder
	fmt.Fprintf(&b, "\r\n%s:\r\n", t.Name)
	for i, opt := range t.Options {
		fmt.Fprintf(&b, "  %d) %s\r\n", i+1, opt)
	}
	b.WriteString("Choose a number: ")
	f.session.SendRaw(b.String())
}

func (f *creationFSM) onTrait(line string) {
	t := f.race.Traits[f.traitIdx]
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(t.Options) {
		f.askTrait()
		return
	}
	f.traits[f.traitIdx] = t.Options[n-1]
	f.traitIdx++
	if f.traitIdx < len(f.race.Traits) {
		f.askTrait()
		return
	}
	f.state = createDescription
	f.session.SendRaw("Describe your character in a sentence (or press enter): ")
}

func (f *creationFSM) onDescription(line string) {
	var parts []string
	for i, t := range f.race.Traits {
		if f.traits[i] != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(t.Name), f.traits[i]))
		}
	}
	desc := strings.Join(parts, ", ")
	if line != "" {
		if desc != "" {
			desc += ". "
		}
		desc += line
	}
	f.descriptionDone(desc)
}

func (f *creationFSM) descriptionDone(desc string) {
	f.state = createDone
	f.description = desc
}

// persist builds and saves the character row; nil on failure.
func (f *creationFSM) persist(deps *Deps, playerID int32) *persist.CharacterRow {
	maxHP := float64(f.class.HitDie + rules.Mod(f.assigned.Vitality))
	if maxHP < 1 {
		maxHP = 1
	}
	maxEss := float64(f.class.EssenceDie + rules.Mod(f.assigned.Aura))
	if maxEss < 0 {
		maxEss = 0
	}

	stats, _ := json.Marshal(&f.assigned)
	skills, _ := json.Marshal(f.class.StartingSkills)
	spells, _ := json.Marshal(orEmpty(f.class.StartingSpells))
	abilities, _ := json.Marshal(orEmpty(f.class.StartingAbilities))

	row := &persist.CharacterRow{
		PlayerID:  playerID,
		FirstName: f.firstName,
		LastName:  f.lastName,
		Sex:       f.sex,
		RaceID:    f.race.ID,
		ClassID:   f.class.ID,
		Level:     1,
		Tether:    10,
		HP:        maxHP, MaxHP: maxHP,
		Essence: maxEss, MaxEssence: maxEss,
		Status: string(world.StatusAlive),
		Stance: string(world.StanceStanding),
		Stats:  stats, Skills: skills, Spells: spells, Abilities: abilities,
		RoomID:      deps.Cfg.Game.DefaultRoom,
		Hunger:      100,
		Thirst:      100,
		Description: f.description,
	}
	ctx, cancel := deps.ctx()
	defer cancel()
	if err := deps.Characters.Create(ctx, row); err != nil {
		deps.Log.Error("create character",
			zap.String("name", f.firstName), zap.Error(err))
		return nil
	}
	deps.Log.Info("character created",
		zap.String("name", f.firstName+" "+f.lastName),
		zap.String("race", f.race.Name),
		zap.String("class", f.class.Name))
	f.session.SendRaw(fmt.Sprintf("\r\n{GWelcome to the world, %s %s.{x\r\n", f.firstName, f.lastName))
	return row
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
