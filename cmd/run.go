package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/webhookd/internal/config"
	"firestige.xyz/webhookd/internal/log"
	"firestige.xyz/webhookd/pkg/pipeline"

	// Blank-imported so every trigger/target plugin self-registers via
	// init() before any definition is loaded.
	_ "firestige.xyz/webhookd/plugins"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load event definitions and run the daemon until SIGTERM",
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

func runDaemon() {
	settings := resolveSettings()

	cfg := &log.LoggerConfig{
		Pattern: "%time [%level] %msg",
		Time:    "2006-01-02T15:04:05.000Z07:00",
		Level:   settings.LogLevel,
	}
	if settings.LogFile != "" {
		cfg.FileAppender = &log.FileAppenderOpt{
			Filename:   settings.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
	}
	log.Init(cfg)
	logger := log.GetLogger()

	defs, err := config.LoadDefinitions(settings.EventsDir)
	if err != nil {
		exitWithError("loading event definitions", err)
	}
	if len(defs) == 0 {
		exitWithError("no event definitions found in "+settings.EventsDir, nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	executor := pipeline.NewExecutor()
	done, drain, err := executor.Start(ctx, defs)
	if err != nil {
		exitWithError("starting pipelines", err)
	}
	defer drain()

	logger.Infof("webhookd running with %d pipeline(s)", len(defs))

	<-ctx.Done()
	logger.Info("received stop signal, draining pipelines")
	drain()
	<-done

	logger.Info("webhookd stopped")
	os.Exit(0)
}
