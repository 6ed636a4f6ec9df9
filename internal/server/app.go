// Package server assembles the lifecycle service: storage, remote clients,
// the reconciliation jobs and the HTTP and gRPC transports.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/retryx"
	"github.com/dmitrijs2005/lifecycle/internal/server/auth"
	"github.com/dmitrijs2005/lifecycle/internal/server/blobs"
	"github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/dmitrijs2005/lifecycle/internal/server/jobs"
	"github.com/dmitrijs2005/lifecycle/internal/server/queue"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lifecycle/internal/server/rest"
	"github.com/dmitrijs2005/lifecycle/internal/server/scheduler"
	"github.com/dmitrijs2005/lifecycle/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	gs "github.com/dmitrijs2005/lifecycle/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db          *sql.DB
	repomanager repomanager.RepositoryManager
	closers     []io.Closer

	accounts *services.AccountService
	contents *services.ContentService
	profiles *services.ProfileService
	calendar *services.CalendarService

	scheduler *scheduler.Scheduler
}

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

var newBlobStore = func(ctx context.Context, c *config.Config, policy retryx.Policy) (blobs.Store, error) {
	return blobs.NewS3Store(ctx, c, policy)
}

// NewApp opens the database, the bucket and the Redis client and wires the
// services, jobs and transports on top of them.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	policy := remotePolicy(c)

	store, err := newBlobStore(ctx, c, policy)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{c.RedisAddr},
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	app, err := newApp(c, logger, db, repomanager.NewPostgresRepositoryManager(), store, rdb)
	if err != nil {
		_ = multierr.Combine(rdb.Close(), db.Close())
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, store blobs.Store, rdb redis.UniversalClient) (*App, error) {
	policy := remotePolicy(c)

	am := services.NewAttachmentManager(db, rm, store, services.NewCaps(c.AttachmentCaps, c.DefaultAttachmentCap), logger)
	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		closers:     []io.Closer{rdb, db},
		accounts:    services.NewAccountService(db, rm, logger),
		contents:    services.NewContentService(db, rm, am, logger),
		profiles:    services.NewProfileService(db, rm, am, logger),
		calendar:    services.NewCalendarService(db, rm, logger),
	}

	purger, err := app.newPurger(policy)
	if err != nil {
		return nil, err
	}

	cascade := jobs.NewCascadeDeleter(db, rm, store, purger, jobs.CascadeOptions{
		GracePeriod:     c.GracePeriod,
		PageSize:        c.CascadePageSize,
		Concurrency:     c.CascadeConcurrency,
		MaxStepAttempts: c.PurgeStepMaxAttempts,
	}, logger)
	alarms := jobs.NewAlarmDispatcher(db, rm, queue.NewStreamPublisher(rdb, c.AlarmStream, policy), logger)

	app.scheduler = scheduler.New(scheduler.Options{
		PoolSize:   c.WorkerPoolSize,
		JobTimeout: c.JobTimeout,
		Parser:     config.CronParser,
	}, logger)
	if err := app.scheduler.Register(common.JobCascadeDelete, c.CascadeSchedule, cascade.Run); err != nil {
		return nil, err
	}
	if err := app.scheduler.Register(common.JobAlarmDispatch, c.AlarmSchedule, alarms.Run); err != nil {
		return nil, err
	}

	return app, nil
}

func remotePolicy(c *config.Config) retryx.Policy {
	return retryx.Policy{
		Attempts:    c.RemoteCallAttempts,
		BaseDelay:   c.RemoteCallBackoff,
		CallTimeout: c.RemoteCallTimeout,
	}
}

// newPurger calls the profile service over gRPC when its address is set and
// purges in process otherwise.
func (app *App) newPurger(policy retryx.Policy) (jobs.OwnerPurger, error) {
	if app.config.ProfileServiceAddr == "" {
		return jobs.OwnerPurgerFunc(func(ctx context.Context, ownerID string) error {
			_, err := app.profiles.PurgeOwner(ctx, ownerID)
			return err
		}), nil
	}

	client, err := gs.NewProfileClient(app.config.ProfileServiceAddr, common.JobCascadeDelete, app.config.SecretKey, policy)
	if err != nil {
		return nil, fmt.Errorf("profile client init error: %w", err)
	}
	app.closers = append(app.closers, client)
	return client, nil
}

func (app *App) router() http.Handler {
	return rest.NewRouter(rest.Deps{
		Resolver: auth.NewJWTResolver([]byte(app.config.SecretKey)),
		Contents: app.contents,
		Accounts: app.accounts,
		Calendar: app.calendar,
	}, app.logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.GRPCAddr == "" {
		return
	}

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.profiles, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run migrates the schema, serves HTTP and gRPC and runs the scheduled jobs
// until ctx is done or a termination signal arrives. On shutdown the jobs in
// flight get up to ShutdownTimeout to finish.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	app.scheduler.Start(ctx)
	<-ctx.Done()

	app.logger.Info(ctx, "Stopping app...")
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	err := app.scheduler.Stop(stopCtx)

	wg.Wait()
	return err
}

// RunJob runs one registered job synchronously. force makes the alarm job
// ignore its once-per-day watermark.
func (app *App) RunJob(ctx context.Context, name string, force bool) error {
	if force {
		ctx = jobs.WithForce(ctx)
	}
	return app.scheduler.RunNow(ctx, name)
}

func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) Close() error {
	var err error
	for _, c := range app.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
