package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"LeverageLens/internal/analysis"
	"LeverageLens/internal/collector"
	"LeverageLens/internal/model"
	"LeverageLens/internal/notifier"
	"LeverageLens/internal/recorder"
)

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// RequestFunc builds the configured default request ending at today.
type RequestFunc func(today time.Time) (model.Request, error)

// Scheduler runs the daily report and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Source   *collector.PairSource
	Defaults RequestFunc
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context
	Now      func() time.Time
}

// NewScheduler creates a new Scheduler. Overlapping daily runs are skipped.
func NewScheduler(ctx context.Context, src *collector.PairSource, defaults RequestFunc, sender Sender, rec recorder.Recorder) *Scheduler {
	cronLog := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		Source:   src,
		Defaults: defaults,
		Notifier: sender,
		Recorder: rec,
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// RegisterDaily registers the daily report task.
func (s *Scheduler) RegisterDaily(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunNow executes the daily task immediately.
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

// Run loads [start, today] and computes the report. An empty variant keeps the configured one.
func (s *Scheduler) Run(ctx context.Context, variant model.Variant, trigger recorder.Trigger) (*model.Result, error) {
	today := s.Now()
	req, err := s.Defaults(today)
	if err != nil {
		return nil, err
	}
	if variant != "" && variant != req.Variant {
		base := req
		req = model.DefaultRequest(variant, today)
		req.Start = base.Start
		req.Convention = base.Convention
	}

	table, err := s.Source.Load(ctx, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	res, err := analysis.Compute(req, table)
	if err != nil {
		return nil, err
	}

	if id, err := s.Recorder.RecordRun(&recorder.RunRecord{Trigger: trigger, Result: res}); err != nil {
		log.Errorf("record run: %v", err)
	} else if id != "" {
		log.Debugf("recorded run %s", id)
	}
	return res, nil
}

func (s *Scheduler) dailyTask() {
	log.Info("running daily report")
	res, err := s.Run(s.Ctx, "", recorder.TriggerSchedule)
	if err != nil {
		log.Errorf("daily report: %v", err)
		s.trySend(notifier.FormatError("daily report failed", err))
		return
	}
	s.trySend(notifier.FormatReport(res))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := fields[0]
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}

	switch strings.ToLower(name) {
	case "/report", "/start":
		var variant model.Variant
		if len(fields) > 1 {
			v, err := model.ParseVariant(fields[1])
			if err != nil {
				return notifier.FormatError("report", err)
			}
			variant = v
		}
		res, err := s.Run(ctx, variant, recorder.TriggerCommand)
		if err != nil {
			log.Errorf("command report: %v", err)
			return notifier.FormatError("report failed", err)
		}
		return notifier.FormatReport(res)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}
