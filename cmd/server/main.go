package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"strayfinder/internal/api"
	"strayfinder/internal/appconfig"
	"strayfinder/internal/engine"
	"strayfinder/internal/players"
	"strayfinder/internal/snapshot"
	"strayfinder/internal/staticfiles"
	"strayfinder/internal/store"
	"strayfinder/internal/store/migrations"
	"strayfinder/internal/strand"
	"strayfinder/internal/tick"
	"strayfinder/internal/version"
	"strayfinder/internal/world"
	"strayfinder/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	var (
		tickPeriodMs      int64
		configFile        string
		wwwRoot           string
		randomizeSpawn    bool
		stateFile         string
		saveStatePeriodMs int64
		addr              string
	)
	flag.Int64Var(&tickPeriodMs, "tick-period", 0, "tick interval in ms; absent means external ticks via the API")
	flag.StringVar(&configFile, "config-file", "", "path to the map configuration JSON file (required)")
	flag.StringVar(&wwwRoot, "www-root", "", "directory of static client assets to serve (required)")
	flag.BoolVar(&randomizeSpawn, "randomize-spawn-points", false, "spawn new dogs at a random road position instead of the first road's start")
	flag.StringVar(&stateFile, "state-file", "", "path to the snapshot state file to restore from and save to")
	flag.Int64Var(&saveStatePeriodMs, "save-state-period", 0, "periodic snapshot interval in ms; 0 disables periodic saves")
	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Log.WithError(err).Warn("failed to load .env file")
	}

	logger.Log.Info(version.String())

	if configFile == "" || wwwRoot == "" {
		fmt.Fprintln(os.Stderr, "--config-file and --www-root are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(runOptions{
		tickPeriod:      time.Duration(tickPeriodMs) * time.Millisecond,
		configFile:      configFile,
		wwwRoot:         wwwRoot,
		randomizeSpawn:  randomizeSpawn,
		stateFile:       stateFile,
		saveStatePeriod: time.Duration(saveStatePeriodMs) * time.Millisecond,
		addr:            addr,
	}); err != nil {
		logger.Log.WithError(err).Fatal("server exited with error")
	}

	logger.Log.Info("done")
}

type runOptions struct {
	tickPeriod      time.Duration
	configFile      string
	wwwRoot         string
	randomizeSpawn  bool
	stateFile       string
	saveStatePeriod time.Duration
	addr            string
}

func run(opts runOptions) error {
	cfg, err := appconfig.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	worldRegistry, err := world.NewRegistry(cfg.Maps)
	if err != nil {
		return fmt.Errorf("building world registry: %w", err)
	}

	// A nil spawnRNG makes the registry seed its own stream from OS
	// entropy, per the distinct-RNG-streams design note in spec.md §9.
	playerRegistry := players.NewRegistry(worldRegistry, opts.randomizeSpawn, world.LootConfig{
		BaseInterval: cfg.LootBaseInterval,
		Probability:  cfg.LootProbability,
	}, nil)

	if opts.stateFile != "" {
		if err := snapshot.Restore(opts.stateFile, worldRegistry, playerRegistry); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
	}

	pipeline := tick.New(worldRegistry, playerRegistry, cfg.RetirementThreshold)

	ctx := context.Background()
	dsn := os.Getenv("GAME_DB_URL")
	if dsn == "" {
		dsn = "file:state.db"
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	leaderboard := store.New(db)

	strandExec := strand.New(64)
	static := staticfiles.New(opts.wwwRoot)

	autoTick := opts.tickPeriod > 0

	apiServer := api.New(opts.addr, &api.Server{
		World:           worldRegistry,
		Players:         playerRegistry,
		Pipeline:        pipeline,
		Leaderboard:     leaderboard,
		Strand:          strandExec,
		Static:          static,
		AutoTickEnabled: autoTick,
	})

	eng := engine.New(engine.Config{
		World:           worldRegistry,
		Players:         playerRegistry,
		Pipeline:        pipeline,
		Leaderboard:     leaderboard,
		Strand:          strandExec,
		API:             apiServer,
		TickPeriod:      opts.tickPeriod,
		StateFile:       opts.stateFile,
		SaveStatePeriod: opts.saveStatePeriod,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.WithField("addr", opts.addr).Info("listening")
	return eng.Run(runCtx)
}
