package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"dorm-admin/internal/config"
	"dorm-admin/internal/logger"
	"dorm-admin/internal/repository"
	"dorm-admin/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		// bare errUsage: the usage text was already printed
		if !errors.Is(err, pflag.ErrHelp) && err != errUsage {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode: 0 ok, 1 data-entry conflict or bad usage, 2 storage/runtime fault.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case service.IsUserError(err), errors.Is(err, errUsage), errors.Is(err, errNotFound), errors.Is(err, errDrift):
		return 1
	default:
		return 2
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("dorm-admin", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	configPath := flagSet.String("config", "", "YAML config file (default $"+config.ConfigPathEnv+")")
	passwordFile := flagSet.String("password-file", "", "read the password from this file instead of prompting")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }
	if err := flagSet.Parse(args); err != nil {
		return usageError(err)
	}

	rest := flagSet.Args()
	if len(rest) == 0 || rest[0] == "help" {
		printUsage(stdout, flagSet)
		if len(rest) == 0 {
			return errUsage
		}
		return nil
	}
	cmd, ok := findCommand(rest[0])
	if !ok {
		printUsage(stderr, flagSet)
		return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "dorm-admin")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	kv, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	repo := repository.NewKVDormRepo(kv, cfg.Storage.Namespace)
	a := &app{
		occupancy:    service.NewOccupancyService(repo, log),
		auth:         service.NewAuthService(repo, hasherFromConfig(cfg.Auth), log),
		logger:       log,
		in:           stdin,
		out:          stdout,
		errOut:       stderr,
		passwordFile: *passwordFile,
	}

	// seed reports its own outcome
	if cfg.Seed.Enabled && cmd.name != "seed" {
		if _, err := a.occupancy.InitializeIfEmpty(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	log.Debug("running command", zap.String("command", cmd.name), zap.String("backend", cfg.Storage.Backend))
	return cmd.run(ctx, a, rest[1:])
}

// usageError marks a flag parse failure as bad usage; ErrHelp passes through.
func usageError(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", errUsage, err)
}

func hasherFromConfig(c config.AuthConfig) service.PasswordHasher {
	h := service.DefaultPasswordHasher()
	if c.Argon2MemoryKiB > 0 {
		h.Memory = c.Argon2MemoryKiB
	}
	if c.Argon2Time > 0 {
		h.Time = c.Argon2Time
	}
	if c.Argon2Threads > 0 {
		h.Threads = c.Argon2Threads
	}
	return h
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: dorm-admin [global flags] <command> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-52s %s\n", c.usage, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	fmt.Fprint(w, flagSet.FlagUsages())
	fmt.Fprintf(w, "\nEnvironment variables override the config file, e.g. %sSTORAGE_BACKEND=sqlite.\n", config.EnvPrefix)
}
