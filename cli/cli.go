// Package cli is the application entry point: it parses the command line,
// loads the environment's configuration, builds the logger and the application
// context, and runs the start command until the process is signalled.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/kyrelabs/keel/app"
	"github.com/kyrelabs/keel/config"
	"github.com/kyrelabs/keel/logging"
)

// StartFunc runs the application until ctx is cancelled. The context is
// cancelled on SIGINT or SIGTERM; implementations should return once their
// shutdown completes.
type StartFunc[T any] func(ctx context.Context, actx *app.Context[T], logger *zap.Logger) error

// Run parses os.Args and executes the selected command. See RunArgs.
func Run[T any](name, usage string, init app.InitFunc[T], start StartFunc[T]) error {
	return RunArgs(name, usage, os.Args[1:], init, start)
}

// RunArgs drives one application run: dotenv, environment resolution (the
// global --environment flag wins over KEEL_ENV), configuration loading,
// logger construction, and the `start` command. Configuration errors are
// fatal; nothing is running yet that could serve requests without one.
func RunArgs[T any](name, usage string, args []string, init app.InitFunc[T], start StartFunc[T]) error {
	cliApp := kingpin.New(name, usage)
	envFlag := cliApp.Flag("environment",
		fmt.Sprintf("Deployment environment [default: %s]", config.DefaultEnvironment)).
		Short('e').String()
	startCmd := cliApp.Command("start", "Start the application")

	command, err := cliApp.Parse(args)
	if err != nil {
		return err
	}

	config.LoadDotenv()
	env := config.ResolveEnvironment(*envFlag)

	doc, err := env.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case startCmd.FullCommand():
		return runStart(env, doc, init, start, logger)
	default:
		return nil
	}
}

func runStart[T any](env config.Environment, doc *config.Document, init app.InitFunc[T], start StartFunc[T], logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting application", zap.String("environment", env.String()))

	actx, err := app.Create(ctx, init, doc, env)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return err
	}

	if err := start(ctx, actx, logger); err != nil {
		logger.Error("application terminated", zap.Error(err))
		return err
	}

	logger.Info("application stopped")
	return nil
}
