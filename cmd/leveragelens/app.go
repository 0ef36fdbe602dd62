package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"LeverageLens/internal/collector"
	"LeverageLens/internal/config"
	"LeverageLens/internal/logger"
	"LeverageLens/internal/recorder"
)

// env is the wiring shared by every command.
type env struct {
	cfg      *config.Config
	source   *collector.PairSource
	recorder recorder.Recorder
	logFile  io.Closer
}

func bootstrap(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logFile, err := logger.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("config validation: %w", err)
	}

	fetcher := newFetcher(cfg)
	log.Infof("data source: %s, pair %s / %s", fetcher.Name(), cfg.Pair.Base, cfg.Pair.Leveraged)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	return &env{
		cfg:      cfg,
		source:   collector.NewPairSource(fetcher, cfg.Pair.Base, cfg.Pair.Leveraged),
		recorder: rec,
		logFile:  logFile,
	}, nil
}

func (e *env) Close() {
	if err := e.recorder.Close(); err != nil {
		log.Warnf("close recorder: %v", err)
	}
	e.logFile.Close()
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Multiples: map[string]float64{cfg.Pair.Leveraged: 2}}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}
