package world

import (
	"strings"
	"time"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/rules"
)

// Mob is a live NPC instance. Instances are spawned from a template with
// per-instance stat variance; dead instances stay registered until their
// respawn timer resets them in place.
type Mob struct {
	ID   int64
	Tmpl *data.MobTemplate

	Stats Stats
	HP    float64
	MaxHP float64

	InRoom     *Room
	HomeRoomID int32

	Dead        bool
	TimeOfDeath time.Time

	target    Actor
	Fighting  bool
	Hidden    bool
	Roundtime float64
	Effects   map[string]*Effect
}

// SpawnMob mints an instance from a template, rolling the stat variance.
func SpawnMob(id int64, tmpl *data.MobTemplate, homeRoomID int32, roller dice.Roller) *Mob {
	m := &Mob{
		ID:         id,
		Tmpl:       tmpl,
		HomeRoomID: homeRoomID,
		Effects:    make(map[string]*Effect),
	}
	m.Stats = Stats{
		Might:     varied(tmpl.Might, tmpl.StatVariance, roller),
		Vitality:  varied(tmpl.Vitality, tmpl.StatVariance, roller),
		Agility:   varied(tmpl.Agility, tmpl.StatVariance, roller),
		Intellect: varied(tmpl.Intellect, tmpl.StatVariance, roller),
		Aura:      varied(tmpl.Aura, tmpl.StatVariance, roller),
		Persona:   varied(tmpl.Persona, tmpl.StatVariance, roller),
	}
	m.MaxHP = tmpl.HP
	m.HP = m.MaxHP
	return m
}

// varied applies ±variance to a base stat, flooring at 1.
func varied(base, variance int, roller dice.Roller) int {
	if variance > 0 {
		base += dice.Between(roller, -variance, variance)
	}
	if base < 1 {
		base = 1
	}
	return base
}

// Reset restores the mob to its spawned state for a respawn in place.
func (m *Mob) Reset(roller dice.Roller) {
	m.Dead = false
	m.TimeOfDeath = time.Time{}
	m.Fighting = false
	m.Hidden = false
	m.target = nil
	m.Roundtime = 0
	m.Effects = make(map[string]*Effect)
	m.Stats = Stats{
		Might:     varied(m.Tmpl.Might, m.Tmpl.StatVariance, roller),
		Vitality:  varied(m.Tmpl.Vitality, m.Tmpl.StatVariance, roller),
		Agility:   varied(m.Tmpl.Agility, m.Tmpl.StatVariance, roller),
		Intellect: varied(m.Tmpl.Intellect, m.Tmpl.StatVariance, roller),
		Aura:      varied(m.Tmpl.Aura, m.Tmpl.StatVariance, roller),
		Persona:   varied(m.Tmpl.Persona, m.Tmpl.StatVariance, roller),
	}
	m.MaxHP = m.Tmpl.HP
	m.HP = m.MaxHP
}

func (m *Mob) Name() string      { return m.Tmpl.Name }
func (m *Mob) Room() *Room       { return m.InRoom }
func (m *Mob) IsCharacter() bool { return false }
func (m *Mob) Send(string)       {}
func (m *Mob) Alive() bool       { return !m.Dead }

// Matches reports whether a typed keyword addresses this mob.
func (m *Mob) Matches(keyword string) bool {
	kw := strings.ToLower(keyword)
	if strings.Contains(strings.ToLower(m.Tmpl.Name), kw) {
		return true
	}
	for _, k := range m.Tmpl.Keywords {
		if strings.HasPrefix(strings.ToLower(k), kw) {
			return true
		}
	}
	return false
}

// NextAttack picks one of the template attacks at random. A single
// attack needs no roll.
func (m *Mob) NextAttack(roller dice.Roller) data.MobAttack {
	switch n := len(m.Tmpl.Attacks); n {
	case 0:
		return data.MobAttack{Name: "strike", Base: 1, Random: 2, Speed: 2.0, Type: "bludgeon"}
	case 1:
		return m.Tmpl.Attacks[0]
	default:
		return m.Tmpl.Attacks[roller.Die(n)-1]
	}
}

// ── Derived combat attributes ──────────────────────────────────────

func (m *Mob) Mod(stat string) int {
	v := m.Stats.Get(stat) + effectBonus(m.Effects, stat, time.Now())
	if v < 0 {
		v = 0
	}
	return rules.Mod(v)
}

func (m *Mob) ArmorValue() int {
	v := m.Tmpl.ArmorValue + effectBonus(m.Effects, ChannelArmor, time.Now())
	if v < 0 {
		v = 0
	}
	return v
}

func (m *Mob) BarrierValue() int {
	v := effectBonus(m.Effects, ChannelBarrier, time.Now())
	if v < 0 {
		v = 0
	}
	return v
}

// DodgeValue: mobs dodge on agility alone; the armor penalty applies to
// character defenders only.
func (m *Mob) DodgeValue() int {
	return rules.DodgeValue(m.Mod(StatAgility), 0) +
		effectBonus(m.Effects, ChannelDodge, time.Now())
}

func (m *Mob) Resistance(damageType string) float64 {
	pts := effectBonus(m.Effects, ResistChannel(damageType), time.Now())
	res := float64(pts) / 100
	if res < 0 {
		res = 0
	}
	if res > 0.75 {
		res = 0.75
	}
	return res
}

// SkillRank: mobs have no trained skills; their competence is in stats.
func (m *Mob) SkillRank(string) int { return 0 }

// SlowPenalty is the extra attack roundtime from slowing effects.
func (m *Mob) SlowPenalty() float64 {
	return float64(effectBonus(m.Effects, ChannelSlow, time.Now()))
}

// ── Vitals ─────────────────────────────────────────────────────────

func (m *Mob) CurrentHP() float64 { return m.HP }
func (m *Mob) MaximumHP() float64 { return m.MaxHP }

func (m *Mob) Damage(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	m.HP -= amount
	if m.HP < 0 {
		m.HP = 0
	}
	return m.HP
}

func (m *Mob) HealHP(amount float64) {
	if amount <= 0 {
		return
	}
	m.HP += amount
	if m.HP > m.MaxHP {
		m.HP = m.MaxHP
	}
}

func (m *Mob) AdjustMaxHP(delta float64) {
	m.MaxHP += delta
	if m.MaxHP < 1 {
		m.MaxHP = 1
	}
	if delta > 0 {
		m.HP += delta
	}
	if m.HP > m.MaxHP {
		m.HP = m.MaxHP
	}
}

// ── Roundtime and runtime state ────────────────────────────────────

func (m *Mob) RoundtimeLeft() float64 { return m.Roundtime }

func (m *Mob) SetRoundtime(sec float64) {
	if sec < 0 {
		sec = 0
	}
	m.Roundtime = sec
}

func (m *Mob) AddRoundtime(sec float64) {
	m.Roundtime += sec
	if m.Roundtime < 0 {
		m.Roundtime = 0
	}
}

func (m *Mob) EffectsMap() map[string]*Effect { return m.Effects }
func (m *Mob) IsHidden() bool                 { return m.Hidden }
func (m *Mob) SetHidden(h bool)               { m.Hidden = h }
func (m *Mob) IsFighting() bool               { return m.Fighting }
func (m *Mob) SetFighting(f bool)             { m.Fighting = f }
func (m *Mob) Target() Actor                  { return m.target }
func (m *Mob) SetTarget(a Actor)              { m.target = a }
