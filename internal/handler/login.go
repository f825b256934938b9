package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/auth"
	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/net"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/world"
)

// loginState is one step of the connection state machine.
type loginState int

const (
	stateGettingUsername loginState = iota
	stateGettingPassword
	stateAskCreateAccount
	stateGettingNewEmail
	stateGettingNewPassword
	stateConfirmNewPassword
	stateSelectingCharacter
	stateCreatingCharacter
	statePlaying
)

const maxPasswordAttempts = 3

// LoginFSM is the per-connection state bag hung on Session.Handler until
// the character enters the world.
type LoginFSM struct {
	state   loginState
	session *net.Session

	username string
	player   *persist.PlayerRow
	newPass  string
	attempts int
	charRows []*persist.CharacterRow
	creation *creationFSM
	char     *world.Character
}

// Connected greets a new session and starts its FSM.
func Connected(deps *Deps, s *net.Session) {
	fsm := &LoginFSM{state: stateGettingUsername, session: s}
	s.Handler = fsm
	s.SendRaw(fmt.Sprintf("{YWelcome to %s.{x\r\n", deps.Cfg.Server.Name))
	s.SendRaw("Account name (or a new name to create one): ")
}

// Disconnected runs the cleanup path for a torn-down session. Idempotent;
// safe on every exit path including mid-login.
func Disconnected(deps *Deps, s *net.Session) {
	fsm, _ := s.Handler.(*LoginFSM)
	if fsm == nil || fsm.char == nil {
		return
	}
	c := fsm.char
	fsm.char = nil

	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s fades from the world.", c.Name()), c)
	}
	if g := deps.State.GroupOf(c); g != nil {
		leaveGroup(deps, c, g, true)
	}
	delete(deps.GroupInvites, c.ID)
	deps.State.RemoveChar(c)
	event.Emit(deps.Bus, event.CharacterLoggedOut{Char: c})
	deps.Metrics.SetCharactersOnline(len(deps.State.Chars))

	saveCharacter(deps, c)
	c.Session = nil
	deps.Log.Info("character logged out", zap.String("name", c.Name()))
}

// saveCharacter persists a character row, logging failure.
func saveCharacter(deps *Deps, c *world.Character) {
	row, err := persist.RowFromCharacter(c)
	if err != nil {
		deps.Log.Error("snapshot character", zap.String("name", c.Name()), zap.Error(err))
		return
	}
	ctx, cancel := deps.ctx()
	defer cancel()
	if err := deps.Characters.Save(ctx, row); err != nil {
		deps.Log.Error("save character", zap.String("name", c.Name()), zap.Error(err))
	}
}

// Playing returns the in-world character once the FSM reaches the
// playing state, nil before that. Lines for a playing character go to
// the verb dispatcher, not the FSM.
func (f *LoginFSM) Playing() *world.Character {
	if f.state == statePlaying {
		return f.char
	}
	return nil
}

// HandleLine advances the FSM on one input line. Returns whether the
// session stays alive.
func (f *LoginFSM) HandleLine(deps *Deps, line string) bool {
	line = strings.TrimSpace(line)

	// quit in any pre-play state tears the session down with no side
	// effects.
	if f.state != statePlaying && strings.EqualFold(line, "quit") {
		f.session.SendRaw("Farewell.\r\n")
		return false
	}

	switch f.state {
	case stateGettingUsername:
		return f.onUsername(deps, line)
	case stateGettingPassword:
		return f.onPassword(deps, line)
	case stateAskCreateAccount:
		return f.onAskCreate(deps, line)
	case stateGettingNewEmail:
		return f.onNewEmail(deps, line)
	case stateGettingNewPassword:
		return f.onNewPassword(deps, line)
	case stateConfirmNewPassword:
		return f.onConfirmPassword(deps, line)
	case stateSelectingCharacter:
		return f.onSelectCharacter(deps, line)
	case stateCreatingCharacter:
		return f.onCreation(deps, line)
	}
	return true
}

func (f *LoginFSM) onUsername(deps *Deps, line string) bool {
	if line == "" {
		f.session.SendRaw("Account name: ")
		return true
	}
	ctx, cancel := deps.ctx()
	defer cancel()
	player, err := deps.Players.Load(ctx, line)
	if err != nil {
		deps.Log.Error("load player", zap.String("username", line), zap.Error(err))
		f.session.SendRaw("{RAn error occurred. Try again later.{x\r\n")
		return false
	}
	f.username = line
	if player == nil {
		f.state = stateAskCreateAccount
		f.session.SendRaw(fmt.Sprintf("No account named '%s' exists. Create it? (yes/no): ", line))
		return true
	}
	f.player = player
	f.state = stateGettingPassword
	f.session.SendRaw("Password: ")
	return true
}

func (f *LoginFSM) onPassword(deps *Deps, line string) bool {
	matched, needsUpgrade := auth.Verify(f.player.PasswordHash, line)
	if !matched {
		f.attempts++
		if f.attempts >= maxPasswordAttempts {
			f.session.SendRaw("{RToo many failed attempts.{x\r\n")
			return false
		}
		f.session.SendRaw("Wrong password. Password: ")
		return true
	}
	if needsUpgrade {
		// Rehash and persist before success so the legacy digest never
		// survives a successful login.
		if hash, err := auth.Hash(line); err == nil {
			ctx, cancel := deps.ctx()
			if err := deps.Players.UpdatePasswordHash(ctx, f.player.ID, hash); err != nil {
				deps.Log.Error("rehash credential", zap.String("username", f.username), zap.Error(err))
			} else {
				f.player.PasswordHash = hash
			}
			cancel()
		}
	}
	ctx, cancel := deps.ctx()
	deps.Players.TouchLastLogin(ctx, f.player.ID)
	cancel()
	return f.enterCharacterSelect(deps)
}

func (f *LoginFSM) onAskCreate(deps *Deps, line string) bool {
	switch strings.ToLower(line) {
	case "y", "yes":
		f.state = stateGettingNewEmail
		f.session.SendRaw("Email address (optional, enter to skip): ")
	case "n", "no":
		f.state = stateGettingUsername
		f.session.SendRaw("Account name: ")
	default:
		f.session.SendRaw("Please answer yes or no: ")
	}
	return true
}

func (f *LoginFSM) onNewEmail(deps *Deps, line string) bool {
	f.player = &persist.PlayerRow{Username: f.username, Email: line}
	f.state = stateGettingNewPassword
	f.session.SendRaw("Choose a password: ")
	return true
}

func (f *LoginFSM) onNewPassword(deps *Deps, line string) bool {
	if len(line) < 6 {
		f.session.SendRaw("Passwords need at least 6 characters. Choose a password: ")
		return true
	}
	f.newPass = line
	f.state = stateConfirmNewPassword
	f.session.SendRaw("Confirm password: ")
	return true
}

func (f *LoginFSM) onConfirmPassword(deps *Deps, line string) bool {
	if line != f.newPass {
		f.newPass = ""
		f.state = stateGettingNewPassword
		f.session.SendRaw("Passwords do not match. Choose a password: ")
		return true
	}
	hash, err := auth.Hash(f.newPass)
	f.newPass = ""
	if err != nil {
		deps.Log.Error("hash password", zap.Error(err))
		f.session.SendRaw("{RAn error occurred. Try again later.{x\r\n")
		return false
	}
	ctx, cancel := deps.ctx()
	defer cancel()
	player, err := deps.Players.Create(ctx, f.username, hash, f.player.Email)
	if err != nil {
		deps.Log.Error("create player", zap.String("username", f.username), zap.Error(err))
		f.session.SendRaw("{RAn error occurred. Try again later.{x\r\n")
		return false
	}
	f.player = player
	f.session.SendRaw("{GAccount created.{x\r\n")
	return f.enterCharacterSelect(deps)
}

func (f *LoginFSM) enterCharacterSelect(deps *Deps) bool {
	ctx, cancel := deps.ctx()
	defer cancel()
	rows, err := deps.Characters.LoadByPlayer(ctx, f.player.ID)
	if err != nil {
		deps.Log.Error("load characters", zap.String("username", f.username), zap.Error(err))
		f.session.SendRaw("{RAn error occurred. Try again later.{x\r\n")
		return false
	}
	f.charRows = rows
	f.state = stateSelectingCharacter
	if len(rows) == 0 {
		f.session.SendRaw("You have no characters yet. Type 'new' to create one: ")
		return true
	}
	var b strings.Builder
	b.WriteString("Your characters:\r\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "  %d) %s %s (level %d)\r\n", i+1, row.FirstName, row.LastName, row.Level)
	}
	b.WriteString("Choose a number, or 'new' to create a character: ")
	f.session.SendRaw(b.String())
	return true
}

func (f *LoginFSM) onSelectCharacter(deps *Deps, line string) bool {
	if strings.EqualFold(line, "new") {
		f.creation = newCreationFSM(deps, f.session)
		f.state = stateCreatingCharacter
		f.session.SendRaw(f.creation.promptText())
		return true
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(f.charRows) {
		f.session.SendRaw("Choose a number from the list, or 'new': ")
		return true
	}
	return f.enterWorld(deps, f.charRows[n-1])
}

func (f *LoginFSM) onCreation(deps *Deps, line string) bool {
	done, canceled := f.creation.handle(deps, line)
	if canceled {
		f.creation = nil
		return f.enterCharacterSelect(deps)
	}
	if !done {
		return true
	}
	row := f.creation.persist(deps, f.player.ID)
	f.creation = nil
	if row == nil {
		f.session.SendRaw("{RAn error occurred creating your character.{x\r\n")
		return f.enterCharacterSelect(deps)
	}
	return f.enterWorld(deps, row)
}

// enterWorld hydrates the character and drops it into the game.
func (f *LoginFSM) enterWorld(deps *Deps, row *persist.CharacterRow) bool {
	if deps.State.CharByName(row.FirstName) != nil {
		f.session.SendRaw("That character is already in the world.\r\n")
		return f.enterCharacterSelect(deps)
	}
	c, err := row.ToCharacter(deps.State.Catalog, f.player.Admin)
	if err != nil {
		deps.Log.Error("hydrate character", zap.Int32("id", row.ID), zap.Error(err))
		f.session.SendRaw("{RAn error occurred. Try again later.{x\r\n")
		return false
	}
	loadBelongings(deps, c)

	room := deps.State.Room(c.RoomID)
	if room == nil {
		room = deps.State.Room(deps.Cfg.Game.DefaultRoom)
	}
	if room == nil {
		deps.Log.Error("no room for login", zap.Int32("character", c.ID), zap.Int32("room", c.RoomID))
		f.session.SendRaw("{RThe world is broken. Try again later.{x\r\n")
		return false
	}

	c.Session = f.session
	c.LoginAt = time.Now()
	f.char = c
	f.state = statePlaying
	f.session.Prompt = c.Prompt

	deps.State.AddChar(c)
	room.AddChar(c)
	event.Emit(deps.Bus, event.CharacterLoggedIn{Char: c})
	deps.Metrics.SetCharactersOnline(len(deps.State.Chars))

	for _, ln := range strings.Split(deps.State.Catalog.MOTD, "\n") {
		c.Send(ln)
	}
	c.Send("")
	sendLook(c, room)
	room.Broadcast(fmt.Sprintf("%s has entered the world.", c.Name()), c)
	deps.Log.Info("character logged in",
		zap.String("name", c.Name()),
		zap.Int32("room", room.ID))
	return true
}

// loadBelongings hydrates the character's item rows (held, worn, and
// nested in carried containers) into live instances. Bank-box rows stay
// rows; they materialize on withdraw.
func loadBelongings(deps *Deps, c *world.Character) {
	ctx, cancel := deps.ctx()
	defer cancel()
	rows, err := deps.Items.LoadForCharacter(ctx, c.ID)
	if err != nil {
		deps.Log.Error("load items", zap.Int32("character", c.ID), zap.Error(err))
		return
	}

	built := make(map[int64]*world.Item)
	item := func(row *persist.ItemRow) *world.Item {
		if it, ok := built[row.ID]; ok {
			return it
		}
		tmpl := deps.State.ItemTemplate(row.TemplateID)
		if tmpl == nil {
			deps.Log.Warn("item row references missing template",
				zap.Int64("item", row.ID), zap.Int64("template", row.TemplateID))
			return nil
		}
		it, err := row.ToItem(tmpl)
		if err != nil {
			deps.Log.Warn("rebuild item", zap.Int64("item", row.ID), zap.Error(err))
			return nil
		}
		built[row.ID] = it
		deps.State.RegisterItem(it)
		return it
	}

	for _, row := range rows {
		switch row.OwnerKind {
		case persist.OwnerInventory:
			if it := item(row); it != nil {
				c.Inventory = append(c.Inventory, it)
			}
		case persist.OwnerEquipment:
			if it := item(row); it != nil && c.Equipment[row.Slot] == nil {
				c.Equip(row.Slot, it)
			}
		}
	}
	// Containers resolve after their parents exist; loop until stable to
	// cover nesting depth.
	for changed := true; changed; {
		changed = false
		for _, row := range rows {
			if row.OwnerKind != persist.OwnerContainer || built[row.ID] != nil {
				continue
			}
			parent, ok := built[row.OwnerID]
			if !ok {
				continue
			}
			if it := item(row); it != nil {
				parent.Contents = append(parent.Contents, it)
				changed = true
			}
		}
	}
	c.Dirty = false
}
