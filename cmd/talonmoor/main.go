// Command talonmoor runs the MUD server: one game-loop goroutine
// ticking the world, a TCP listener feeding it player input, and a
// PostgreSQL database holding everything durable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/config"
	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/game"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/metrics"
	"github.com/talonmoor/server/internal/net"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// Input is polled between full ticks so commands echo promptly.
const inputPollInterval = 50 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "talonmoor:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to server.toml")
	flag.Parse()
	path := *cfgPath
	if path == "" {
		path = os.Getenv("TALONMOOR_CONFIG")
	}
	if path == "" {
		path = "config/server.toml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("booting", zap.String("name", cfg.Server.Name), zap.String("config", path))

	ctx := context.Background()
	db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	state, err := buildWorld(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	curve := rules.Curve{Base: cfg.Game.XPBase, Exponent: cfg.Game.XPExponent, MaxLevel: cfg.Game.MaxLevel}
	bus := event.NewBus()
	effects := effect.NewEngine(bus, log.Named("effect"))
	engine := combat.NewEngine(state, effects, bus, state.Roller, curve, log.Named("combat"))
	m := metrics.New(log)
	server := net.NewServer(cfg, log)

	deps := &handler.Deps{
		Cfg:     cfg,
		Log:     log,
		State:   state,
		Server:  server,
		Bus:     bus,
		Combat:  engine,
		Effects: effects,
		Roller:  state.Roller,
		Curve:   curve,
		Metrics: m,

		DB:         db,
		Players:    persist.NewPlayerRepo(db),
		Characters: persist.NewCharacterRepo(db),
		Items:      persist.NewItemRepo(db),
		Bank:       persist.NewBankRepo(db),
		World:      persist.NewWorldRepo(db),
	}
	shutdownCh := make(chan string, 1)
	deps.Shutdown = func(notice string) {
		select {
		case shutdownCh <- notice:
		default:
		}
	}

	dispatcher := handler.NewDispatcher(deps)
	runner := system.NewRunner()
	game.RegisterSystems(runner, deps, dispatcher)

	m.Serve(cfg.Metrics)
	if err := server.Start(); err != nil {
		return err
	}
	log.Info("world is live",
		zap.Int("rooms", len(state.Rooms)),
		zap.Duration("tick", cfg.Game.TickInterval))

	notice := loop(cfg, runner, m, shutdownCh)
	shutdown(cfg, deps, runner, server, m, notice)
	log.Info("goodnight")
	return nil
}

// loop drives the world until a signal or an admin shutdown arrives.
// Returns the shutdown notice to broadcast.
func loop(cfg *config.Config, runner *system.Runner, m *metrics.Metrics, shutdownCh <-chan string) string {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	tick := time.NewTicker(cfg.Game.TickInterval)
	defer tick.Stop()
	poll := time.NewTicker(inputPollInterval)
	defer poll.Stop()

	last := time.Now()
	for {
		select {
		case now := <-tick.C:
			dt := now.Sub(last)
			last = now
			start := time.Now()
			runner.Tick(dt)
			m.ObserveTick(time.Since(start))
		case <-poll.C:
			runner.TickPhase(system.PhaseInput, 0)
		case <-sig:
			return "The world is being put to rest. You will be saved."
		case notice := <-shutdownCh:
			return notice
		}
	}
}

// shutdown drains the server: stop accepting, warn everyone, give slow
// clients the grace period, save, close.
func shutdown(cfg *config.Config, deps *handler.Deps, runner *system.Runner, server *net.Server, m *metrics.Metrics, notice string) {
	deps.Log.Info("shutting down", zap.String("notice", notice))
	server.StopAccepting()
	server.Broadcast("{R" + notice + "{x")
	server.FlushAll()
	time.Sleep(cfg.Network.GracePeriod)

	runner.Tick(cfg.Game.TickInterval)
	for _, c := range deps.State.Chars {
		c.Dirty = true
	}
	game.SaveWorld(deps)

	server.CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	m.Stop(ctx)
	cancel()
}

// buildWorld hydrates the catalogs concurrently, then topology and the
// persisted room items.
func buildWorld(ctx context.Context, cfg *config.Config, db *persist.DB, log *zap.Logger) (*world.State, error) {
	templates := persist.NewTemplateRepo(db)
	catalog := &data.Catalog{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := templates.LoadRaces(gctx)
		catalog.Races = t
		return err
	})
	g.Go(func() error {
		t, err := templates.LoadClasses(gctx)
		catalog.Classes = t
		return err
	})
	g.Go(func() error {
		t, err := templates.LoadItems(gctx)
		catalog.Items = t
		return err
	})
	g.Go(func() error {
		t, err := templates.LoadMobs(gctx)
		catalog.Mobs = t
		return err
	})
	g.Go(func() error {
		t, err := templates.LoadAbilities(gctx)
		catalog.Abilities = t
		return err
	})
	g.Go(func() error {
		help, motd, err := data.LoadHelp()
		catalog.Help = help
		catalog.MOTD = motd
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	worldRepo := persist.NewWorldRepo(db)
	areas, err := worldRepo.LoadAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("load areas: %w", err)
	}
	rooms, err := worldRepo.LoadRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	state := world.NewState(dice.NewTimeRoller())
	state.Catalog = catalog
	state.Areas = areas
	state.Rooms = rooms
	if state.Room(cfg.Game.DefaultRoom) == nil {
		return nil, fmt.Errorf("default room %d does not exist", cfg.Game.DefaultRoom)
	}

	if err := placeItems(ctx, state, persist.NewItemRepo(db), log); err != nil {
		return nil, err
	}

	log.Info("world built",
		zap.Int("areas", len(areas)),
		zap.Int("rooms", len(rooms)),
		zap.Int("item_templates", catalog.Items.Count()),
		zap.Int("mob_templates", catalog.Mobs.Count()),
		zap.Int("help_topics", catalog.Help.Count()))
	return state, nil
}

// placeItems restores persisted ground and container items. Inventory,
// equipment, and banked rows belong to offline characters and load at
// login.
func placeItems(ctx context.Context, state *world.State, items *persist.ItemRepo, log *zap.Logger) error {
	rows, err := items.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	maxID, err := items.MaxID(ctx)
	if err != nil {
		return fmt.Errorf("max item id: %w", err)
	}
	state.SetItemIDStart(maxID)

	built := make(map[int64]*world.Item, len(rows))
	for _, row := range rows {
		tmpl := state.ItemTemplate(row.TemplateID)
		if tmpl == nil {
			log.Warn("item row references missing template",
				zap.Int64("item", row.ID), zap.Int64("template", row.TemplateID))
			continue
		}
		it, err := row.ToItem(tmpl)
		if err != nil {
			log.Warn("item row corrupt", zap.Int64("item", row.ID), zap.Error(err))
			continue
		}
		built[row.ID] = it
	}

	// Attach container contents first, then place the roots; items only
	// enter the registry once their whole chain resolved to a room.
	for _, row := range rows {
		it := built[row.ID]
		if it == nil || row.OwnerKind != persist.OwnerContainer {
			continue
		}
		if parent := built[row.OwnerID]; parent != nil {
			parent.Contents = append(parent.Contents, it)
		}
	}
	placed := 0
	for _, row := range rows {
		it := built[row.ID]
		if it == nil || row.OwnerKind != persist.OwnerRoom {
			continue
		}
		room := state.Room(int32(row.OwnerID))
		if room == nil {
			log.Warn("item row references missing room",
				zap.Int64("item", row.ID), zap.Int64("room", row.OwnerID))
			continue
		}
		room.AddItem(it)
		placed += registerTree(state, it)
	}
	log.Info("items placed", zap.Int("count", placed))
	return nil
}

func registerTree(state *world.State, it *world.Item) int {
	state.RegisterItem(it)
	n := 1
	for _, inner := range it.Contents {
		n += registerTree(state, inner)
	}
	return n
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
