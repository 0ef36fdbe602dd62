package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"LeverageLens/internal/analysis"
	"LeverageLens/internal/config"
	"LeverageLens/internal/export"
	"LeverageLens/internal/model"
	"LeverageLens/internal/notifier"
	"LeverageLens/internal/recorder"
	"LeverageLens/internal/scheduler"
	"LeverageLens/internal/server"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "download both series, print the report and optionally export it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "variant", Usage: "prices | quadrant | crossing | correlation | drawdown | full"},
			&cli.StringFlag{Name: "start", Usage: "first date, YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Usage: "last date, YYYY-MM-DD (default today)"},
			&cli.IntFlag{Name: "window", Usage: "SMA window in trading days"},
			&cli.IntFlag{Name: "min-lag", Usage: "smallest lag of the correlation scan"},
			&cli.IntFlag{Name: "max-lag", Usage: "largest lag of the correlation scan"},
			&cli.Float64Flag{Name: "drop", Usage: "large-drop threshold in percent"},
			&cli.StringFlag{Name: "align", Usage: "event alignment window, e.g. 5d or 1w"},
			&cli.StringFlag{Name: "convention", Usage: "consistent | flip-downward"},
			&cli.StringFlag{Name: "export", Usage: "write per-day rows to this file"},
			&cli.StringFlag{Name: "format", Usage: "export format: csv | json | parquet (default export.format)"},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	e, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer e.Close()

	req, err := requestFromFlags(c, e.cfg, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := e.source.Load(ctx, req.Start, req.End)
	if err != nil {
		return err
	}
	res, err := analysis.Compute(req, table)
	if err != nil {
		return err
	}
	if _, err := e.recorder.RecordRun(&recorder.RunRecord{Trigger: recorder.TriggerCLI, Result: res}); err != nil {
		log.Errorf("record run: %v", err)
	}

	fmt.Fprintln(c.App.Writer, notifier.FormatPlain(res))

	if path := c.String("export"); path != "" {
		format := c.String("format")
		if format == "" {
			format = e.cfg.Export.Format
		}
		saver := export.NewSaver(format)
		if saver == nil {
			return fmt.Errorf("unsupported export format %q", format)
		}
		if filepath.Ext(path) == "" {
			path += "." + saver.Extension()
		}
		if err := saver.Save(export.Rows(res), path); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log.Infof("exported %d rows to %s", len(res.Dates), path)
	}
	return nil
}

// requestFromFlags layers command-line flags over the config file's analysis section.
func requestFromFlags(c *cli.Context, cfg *config.Config, today time.Time) (model.Request, error) {
	an := &cfg.Analysis
	if c.IsSet("variant") {
		an.Variant = c.String("variant")
	}
	if c.IsSet("start") {
		an.Start = c.String("start")
	}
	if c.IsSet("window") {
		an.SMAWindow = c.Int("window")
	}
	if c.IsSet("min-lag") {
		v := c.Int("min-lag")
		an.MinLag = &v
	}
	if c.IsSet("max-lag") {
		v := c.Int("max-lag")
		an.MaxLag = &v
	}
	if c.IsSet("drop") {
		an.DropThresholdPct = c.Float64("drop")
	}
	if c.IsSet("align") {
		an.AlignmentWindow = c.String("align")
	}
	if c.IsSet("convention") {
		an.SignConvention = c.String("convention")
	}

	req, err := cfg.Request(today)
	if err != nil {
		return model.Request{}, err
	}
	if c.IsSet("end") {
		if req.End, err = model.ParseDate(c.String("end")); err != nil {
			return model.Request{}, err
		}
	}
	return req, req.Validate()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "listen address (default server.listen)"},
		},
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer e.Close()

			addr := e.cfg.Server.Listen
			if c.IsSet("listen") {
				addr = c.String("listen")
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(e.source, e.cfg.Request, e.recorder).ListenAndServe(ctx, addr)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "send the daily report to Telegram and answer chat commands",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "run-now", EnvVars: []string{"RUN_ON_START"}, Usage: "send a report immediately on start"},
			&cli.BoolFlag{Name: "dashboard", Usage: "also serve the HTTP dashboard"},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	e, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.cfg.ValidateTelegram(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	tn := notifier.NewTelegramNotifier(e.cfg.Telegram.BotToken, e.cfg.Telegram.ChatID, e.cfg.Proxy)
	sched := scheduler.NewScheduler(ctx, e.source, e.cfg.Request, tn, e.recorder)
	if err := sched.RegisterDaily(e.cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info("telegram polling started")

	if c.Bool("dashboard") {
		srv := server.New(e.source, e.cfg.Request, e.recorder)
		go func() {
			if err := srv.ListenAndServe(ctx, e.cfg.Server.Listen); err != nil {
				log.Errorf("dashboard: %v", err)
			}
		}()
	}

	if c.Bool("run-now") {
		log.Info("run-now enabled, sending report")
		go sched.RunNow()
	}

	log.Infof("LeverageLens is watching %s / %s (cron %q). Press Ctrl+C to stop.",
		e.cfg.Pair.Base, e.cfg.Pair.Leveraged, e.cfg.Schedule.DailyCron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	return nil
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(c *cli.Context) error {
			e, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.cfg.Database.SQLitePath == "" {
				return fmt.Errorf("database.sqlite_path is not configured")
			}

			runs, err := e.recorder.RecentRuns(c.Int("limit"))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTRIGGER\tVARIANT\tRANGE\tDAYS\tUP\tDOWN\tCORR")
			for _, r := range runs {
				corr := "n/a"
				if r.Correlation != nil {
					corr = fmt.Sprintf("%.3f", *r.Correlation)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s~%s\t%d\t%d\t%d\t%s\n",
					r.Timestamp.Format("2006-01-02 15:04"), r.Trigger, r.Variant, r.From, r.To,
					r.TradingDays, r.UpMatched, r.DownMatched, corr)
			}
			return w.Flush()
		},
	}
}
