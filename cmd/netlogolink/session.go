package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/richinsley/netlogolink"
	"github.com/richinsley/netlogolink/internal/config"
	"github.com/richinsley/netlogolink/internal/journal"
	"github.com/richinsley/netlogolink/internal/logging"
	"github.com/spf13/cobra"
)

// session is one engine workspace opened for a command.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	link    *netlogolink.Link
	sim     netlogolink.Simulator
	journal *journal.Journal
	id      string
}

// loadConfig resolves configuration: defaults, config file, environment,
// then command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("home") {
		cfg.NetLogo.Home, _ = flags.GetString("home")
	}
	if flags.Changed("link-jar") {
		cfg.NetLogo.LinkJar, _ = flags.GetString("link-jar")
	}
	if flags.Changed("gui") {
		cfg.NetLogo.GUI, _ = flags.GetBool("gui")
	}
	if flags.Changed("3d") {
		cfg.NetLogo.ThreeD, _ = flags.GetBool("3d")
	}
	if flags.Changed("max-heap") {
		cfg.JVM.MaxHeap, _ = flags.GetString("max-heap")
	}
	if flags.Changed("timeout") {
		cfg.JVM.CallTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("journal") {
		cfg.Journal.Path, _ = flags.GetString("journal")
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Logging.Format == "json" {
		return logging.NewJSONLogger(cfg.Logging.Level, os.Stderr)
	}
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

func environment(cfg *config.Config) (*netlogolink.Environment, error) {
	if cfg.NetLogo.Home == "" {
		return nil, fmt.Errorf("NetLogo home not set: use --home, NETLOGO_HOME or netlogo.home in the config file")
	}
	return netlogolink.CreateEnvironment(netlogolink.EnvironmentOptions{
		Home:        cfg.NetLogo.Home,
		LinkArchive: cfg.NetLogo.LinkJar,
		JavaHome:    cfg.JVM.JavaHome,
	})
}

// openSession starts the managed runtime, opens a workspace and, when a
// model path is given, loads it.
func openSession(ctx context.Context, cmd *cobra.Command, model string) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	env, err := environment(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("engine environment",
		"home", env.Home,
		"layout", env.Layout.String(),
		"version", env.NetLogoVersion.String(),
		"java", env.JavaPath)

	link, err := netlogolink.Initialize(ctx, env, netlogolink.Options{
		GUI:        cfg.NetLogo.GUI,
		ThreeD:     cfg.NetLogo.ThreeD,
		MaxHeap:    cfg.JVM.MaxHeap,
		JVMOptions: cfg.JVM.Options,
		Logger:     logger,
	})
	if err != nil {
		// the runtime may have started before opening the workspace failed
		if rt := netlogolink.CurrentRuntime(); rt != nil {
			rt.Terminate()
		}
		return nil, fmt.Errorf("failed to start NetLogo: %w", err)
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		link:   link,
		sim:    link,
		id:     uuid.NewString(),
	}

	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			s.close()
			return nil, err
		}
		s.journal = j
		s.sim = journal.Wrap(link, j, s.id, logger)
		logger.Debug("journaling", "path", cfg.Journal.Path, "session", s.id)
	}

	if model != "" {
		path, err := resolveModelPath(model)
		if err != nil {
			s.close()
			return nil, err
		}
		ctx, cancel := s.callContext(ctx)
		defer cancel()
		if err := s.sim.LoadModel(ctx, path); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

// resolveModelPath makes path absolute against the current directory. The
// engine runs in its install directory and would resolve a relative path
// there.
func resolveModelPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid model path %q: %w", path, err)
	}
	return abs, nil
}

// callContext bounds one engine call by the configured timeout.
func (s *session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.JVM.CallTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.JVM.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// newREPL returns a REPL on the session's workspace bounded by the
// per-call timeout.
func (s *session) newREPL() *netlogolink.REPL {
	repl := netlogolink.NewREPL(s.sim)
	repl.Timeout = s.cfg.JVM.CallTimeout
	return repl
}

// close stops the runtime. The process exits right after, so the JVM is
// not needed any more.
func (s *session) close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("failed to close journal", "error", err)
		}
	}
	start := time.Now()
	if err := s.link.Runtime().Terminate(); err != nil {
		s.logger.Debug("runtime terminate", "error", err)
	}
	s.logger.Debug("runtime stopped", "took", time.Since(start))
}
