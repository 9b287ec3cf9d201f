package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/alarm-clock/pkg/audio"
	"github.com/borgmon/alarm-clock/pkg/background"
	"github.com/borgmon/alarm-clock/pkg/config"
	"github.com/borgmon/alarm-clock/pkg/controller"
	"github.com/borgmon/alarm-clock/pkg/countdown"
	"github.com/borgmon/alarm-clock/pkg/logger"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/notify"
	"github.com/borgmon/alarm-clock/pkg/platform"
	"github.com/borgmon/alarm-clock/pkg/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	appID         = "com.borgmon.alarm-clock"
	reconcileTask = "alarm-reconcile"
)

type AlarmClock struct {
	app        fyne.App
	cfg        *config.Config
	log        *zap.Logger
	store      store.Store
	host       *notify.LocalHost
	scheduler  *notify.Scheduler
	controller *controller.Controller
	countdown  *countdown.Presenter
	ringer     *audio.Ringer
	registry   *background.Registry
	reconciler *background.Reconciler

	mu           sync.Mutex
	ctx          context.Context
	tray         *trayMenu
	ringWindow   *RingWindow
	alarmsWindow *AlarmsWindow
	notice       string
}

func main() {
	configPath := flag.String(config.FlagConfigPathName, "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ac, err := newAlarmClock(app.NewWithID(appID), cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize", zap.Error(err))
	}
	ac.run()
}

func newAlarmClock(a fyne.App, cfg *config.Config, zl *zap.Logger) (*AlarmClock, error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path, a.Preferences(), zl)
	if err != nil {
		return nil, err
	}

	ac := &AlarmClock{app: a, cfg: cfg, log: zl, store: st, ctx: context.Background()}

	ac.ringer = audio.NewRinger(loadSound(cfg.Ringing.SoundPath, zl), cfg.Ringing.Timeout, zl,
		audio.OnTimeout(ac.onRingTimeout))
	ac.host = notify.NewLocalHost(cfg.Notifications.Enabled, zl,
		notify.WithPresenter(notify.FynePresenter(a)))
	ac.scheduler = notify.NewScheduler(ac.host, zl)
	ac.countdown = countdown.New(zl,
		countdown.WithTick(cfg.Countdown.Tick),
		countdown.OnChange(ac.onCountdown))
	ac.controller = controller.New(st, ac.scheduler, zl,
		controller.WithCountdown(ac.countdown),
		controller.WithRinger(ac.ringer),
		controller.OnChange(ac.onAlarmsChanged))
	ac.host.OnReceived(ac.onDelivery)

	ac.reconciler = background.NewReconciler(st, ac.scheduler, zl,
		background.WithLookback(cfg.Background.Interval))

	var boot background.BootRegistrar
	if item, err := background.NewLoginItem("alarm-clock", "Alarm Clock"); err != nil {
		zl.Warn("start on boot unavailable", zap.Error(err))
	} else {
		boot = item
	}
	ac.registry = background.NewRegistry(boot, zl)
	err = ac.registry.Register(reconcileTask, background.Options{
		MinimumInterval: cfg.Background.Interval,
		StartOnBoot:     cfg.Background.StartOnBoot,
	}, ac.reconcile)
	if err != nil {
		// the task is registered even when the login item could not be changed
		zl.Warn("failed to sync start on boot", zap.Error(err))
	}

	return ac, nil
}

func (ac *AlarmClock) run() {
	ctx, cancel := context.WithCancel(context.Background())
	ac.mu.Lock()
	ac.ctx = ctx
	ac.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ac.registry.Run(gctx) })
	g.Go(func() error {
		ac.start(gctx)
		return nil
	})

	lc := ac.app.Lifecycle()
	lc.SetOnStarted(func() {
		platform.HideFromDock()
		ac.setupSystemTray()
	})
	lc.SetOnEnteredForeground(func() {
		go ac.resume(ctx)
	})

	ac.app.Run()

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		ac.log.Error("background loop stopped", zap.Error(err))
	}
	ac.shutdown()
}

// start catches up on alarms missed while the app was not running, then arms the rest
func (ac *AlarmClock) start(ctx context.Context) {
	if _, err := ac.registry.Trigger(ctx, reconcileTask); err != nil {
		ac.log.Error("initial reconciliation failed", zap.Error(err))
		ac.reportPermission(ac.controller.Start(ctx))
	}
}

func (ac *AlarmClock) resume(ctx context.Context) {
	if _, err := ac.registry.Trigger(ctx, reconcileTask); err != nil {
		ac.log.Error("reconciliation on resume failed", zap.Error(err))
		ac.reportPermission(ac.controller.Resume(ctx))
	}
}

// reconcile is the registered background task. Every pass, periodic or triggered, runs
// with controller edits held off and leaves the controller with the list it saved.
func (ac *AlarmClock) reconcile(ctx context.Context) background.Result {
	var res background.Result
	err := ac.controller.Reconcile(ctx, func(ctx context.Context) {
		res = ac.reconciler.Task(ctx)
	})
	ac.reportPermission(err)
	return res
}

func (ac *AlarmClock) runContext() context.Context {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	return ac.ctx
}

func (ac *AlarmClock) reportPermission(err error) {
	notice := ""
	if errors.Is(err, notify.ErrPermissionDenied) {
		notice = "Notifications are off, alarms may not fire"
		ac.log.Warn("notifications not permitted, alarms stay enabled but cannot fire")
	}
	ac.mu.Lock()
	ac.notice = notice
	ac.mu.Unlock()
	ac.refreshTray()
}

func (ac *AlarmClock) onDelivery(d notify.Delivery) {
	if err := ac.controller.HandleDelivery(ac.runContext(), d); err != nil {
		ac.log.Error("handle delivery failed", zap.String("alarm_id", d.Payload.AlarmID), zap.Error(err))
	}
	if id, ringing := ac.ringer.Ringing(); ringing && id == d.Payload.AlarmID {
		ac.showRingWindow(d.Payload)
	}
}

func (ac *AlarmClock) onRingTimeout(alarmID string) {
	ac.closeRingWindow()
}

func (ac *AlarmClock) onCountdown(text string) {
	ac.mu.Lock()
	tray, win := ac.tray, ac.alarmsWindow
	ac.mu.Unlock()
	fyne.Do(func() {
		if tray != nil {
			tray.setHeader(text)
		}
		if win != nil {
			win.countdown.SetText(text)
		}
	})
}

func (ac *AlarmClock) onAlarmsChanged(alarms []models.Alarm) {
	ac.mu.Lock()
	tray, win := ac.tray, ac.alarmsWindow
	ac.mu.Unlock()
	fyne.Do(func() {
		if tray != nil {
			tray.setAlarms(alarms)
		}
		if win != nil {
			win.setAlarms(alarms)
		}
	})
}

func (ac *AlarmClock) shutdown() {
	ac.countdown.Close()
	ac.ringer.Stop()
	ac.host.Close()
	if err := ac.store.Close(); err != nil {
		ac.log.Error("close store failed", zap.Error(err))
	}
	ac.log.Info("alarm clock stopped")
}

func (ac *AlarmClock) quit() {
	ac.app.Quit()
}

func loadSound(path string, zl *zap.Logger) []byte {
	if path == "" {
		return audio.DefaultSound()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		zl.Warn("custom alarm sound unreadable, using default", zap.String("path", path), zap.Error(err))
		return audio.DefaultSound()
	}
	return data
}
