// cmd/regpoll/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/tamzrod/modbus-regpoll/internal/config"
	"github.com/tamzrod/modbus-regpoll/internal/logger"
	"github.com/tamzrod/modbus-regpoll/internal/poller"
	"github.com/tamzrod/modbus-regpoll/internal/supervisor"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: regpoll <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "regpoll: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.Regpoll.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// One supervised poller per unit
	// --------------------

	group := supervisor.NewGroup()
	out := make(chan poller.Reading)

	for _, unit := range cfg.Regpoll.Units {
		sup, err := poller.Build(unit, log.With("unit", unit.ID), out)
		if err != nil {
			stop()
			group.Wait()
			return fmt.Errorf("poller build failed (unit=%s): %w", unit.ID, err)
		}
		if err := group.Go(ctx, sup); err != nil {
			stop()
			group.Wait()
			return err
		}
	}

	log.Info("regpoll started", "units", len(cfg.Regpoll.Units))

	// --------------------
	// Sink: readings are logged until shutdown
	// --------------------

	for {
		select {
		case <-ctx.Done():
			group.Wait()
			logShutdown(log, group)
			return nil

		case r := <-out:
			kv := make([]any, 0, 2*len(r.Values)+2)
			kv = append(kv, "unit", r.UnitID)
			for _, name := range sortedKeys(r.Values) {
				kv = append(kv, name, r.Values[name])
			}
			log.Info("reading", kv...)
		}
	}
}

func logShutdown(log logger.Logger, group *supervisor.Group) {
	for name, st := range group.Snapshot() {
		log.Info("supervisor stopped",
			"unit", name,
			"state", st.State.String(),
			"setup_attempts", st.Stats.SetupAttempts,
			"setup_failures", st.Stats.SetupFailures,
			"loop_failures", st.Stats.LoopFailures,
			"teardown_failures", st.Stats.TeardownFailures,
		)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
