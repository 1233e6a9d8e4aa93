package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/pkg/logger"
)

type workerKey struct{}

func initWorker(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(cfg.Server.Mode, firstNonEmpty(c.String("log-level"), cfg.Server.LogLevel))

	w, err := newWorker(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize worker: %w", err)
	}
	c.Context = context.WithValue(c.Context, workerKey{}, w)

	if c.Bool("migrate") {
		if err := w.db.Migrate(c.Context); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func closeWorker(c *cli.Context) error {
	if w, ok := c.Context.Value(workerKey{}).(*worker); ok && w != nil {
		return w.Close()
	}
	return nil
}

func workerFrom(c *cli.Context) *worker {
	return c.Context.Value(workerKey{}).(*worker)
}

func main() {
	migrateFlag := &cli.BoolFlag{
		Name:    "migrate",
		Usage:   "Create missing tables before running",
		Value:   true,
		EnvVars: []string{"WORKER_MIGRATE"},
	}

	app := &cli.App{
		Name:  "worker",
		Usage: "Run the ERP and supplier sync jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "schedule",
				Usage: "Run every job on its cron schedule and serve the ops endpoints",
				Flags: []cli.Flag{
					migrateFlag,
					&cli.BoolFlag{
						Name:    "run-on-start",
						Usage:   "Run every job once right after start",
						EnvVars: []string{"SCHEDULE_RUN_ON_START"},
					},
				},
				Before: initWorker,
				After:  closeWorker,
				Action: runSchedule,
			},
			{
				Name:      "run",
				Usage:     "Run the named jobs once, in order",
				ArgsUsage: "<job> [job...]",
				Flags:     []cli.Flag{migrateFlag},
				Before:    initWorker,
				After:     closeWorker,
				Action:    runOnce,
			},
			{
				Name:   "jobs",
				Usage:  "List the jobs and their schedules",
				Before: initWorker,
				After:  closeWorker,
				Action: listJobs,
			},
			{
				Name:   "migrate",
				Usage:  "Create missing tables and exit",
				Before: initWorker,
				After:  closeWorker,
				Action: func(c *cli.Context) error {
					if err := workerFrom(c).db.Migrate(c.Context); err != nil {
						return err
					}
					log.Info().Msg("schema up to date")
					return nil
				},
			},
			{
				Name:  "exports",
				Usage: "List the exported workbooks in object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Value: "suggestions/", Usage: "Key prefix to list"},
				},
				Before: initWorker,
				After:  closeWorker,
				Action: listExports,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
}

func runSchedule(c *cli.Context) error {
	w := workerFrom(c)
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := pipeline.NewScheduler(w.runner, w.cfg.Schedule.Location())
	for _, name := range w.jobs.Names() {
		spec := w.cfg.Schedule.Jobs[name]
		if spec == "" || spec == "off" {
			log.Info().Str("job", name).Msg("job not scheduled")
			continue
		}
		job, _ := w.jobs.Get(name)
		if err := scheduler.Add(job, spec); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", name, err)
		}
	}

	scheduler.Start(ctx, c.Bool("run-on-start") || w.cfg.Schedule.RunOnStart)

	ops := &http.Server{
		Addr:              ":" + w.cfg.Server.OpsPort,
		Handler:           newOpsRouter(w.jobs, scheduler, scheduler.Schedule(), w.registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", w.cfg.Server.OpsPort).Msg("Starting ops server")
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ops server forced to shutdown")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("jobs still running at shutdown: %w", err)
	}
	return nil
}

func runOnce(c *cli.Context) error {
	w := workerFrom(c)
	if c.NArg() == 0 {
		return cli.Exit("at least one job name is required, see `worker jobs`", 2)
	}

	var failed []string
	for _, name := range c.Args().Slice() {
		job, err := w.jobs.Get(name)
		if err != nil {
			return cli.Exit(fmt.Sprintf("%s: %v", name, err), 2)
		}
		if _, err := w.runner.Run(c.Context, job); err != nil {
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("failed jobs: %v", failed), 1)
	}
	return nil
}

func listJobs(c *cli.Context) error {
	w := workerFrom(c)
	names := w.jobs.Names()
	sort.Strings(names)
	for _, name := range names {
		spec := w.cfg.Schedule.Jobs[name]
		if spec == "" {
			spec = "-"
		}
		fmt.Fprintf(c.App.Writer, "%-22s %s\n", name, spec)
	}
	return nil
}

func listExports(c *cli.Context) error {
	w := workerFrom(c)
	objects, err := w.storage.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Fprintf(c.App.Writer, "%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format(time.RFC3339))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
