// Package server wires the session server together: configuration, key
// material, account and refresh token stores, the session service, and the
// gRPC and metrics endpoints. It handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	signer   *auth.Signer
	sessions *services.SessionService
	closers  []func() error
}

// NewApp builds every collaborator. A key that cannot be loaded is reported
// as common.ErrSigningUnavailable and is fatal.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logging.NewJSON(os.Stdout, c.LogLevel),
		metrics: metrics.New(),
	}

	keys, err := loadKeySet(ctx, c)
	if err != nil {
		return nil, err
	}
	app.signer, err = auth.NewSigner(keys, c.Issuer, c.AccessTokenTTL, c.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(c.BcryptCost, c.MaxConcurrentHashes)
	if err != nil {
		return nil, err
	}
	hasher.ObserveWith(app.metrics.ObserveHash)

	repo, err := app.openAccounts(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	rdb, err := refreshtokens.NewRedisClient(c.RedisURL)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, rdb.Close)
	store := refreshtokens.NewRedisStore(rdb, c.StoreTimeout)
	if err := store.Ping(ctx); err != nil {
		app.logger.Warn(ctx, "refresh store not reachable at start-up", "error", err)
	}

	app.sessions = services.NewSessionService(repo, hasher, app.signer, store, app.metrics, app.logger,
		services.Options{LoginBy: c.LoginBy, StoreTTL: c.EffectiveRefreshStoreTTL()})

	return app, nil
}

func loadKeySet(ctx context.Context, c *config.Config) (*auth.KeySet, error) {
	var getter auth.ObjectGetter
	if auth.IsS3Location(c.AccessPrivateKey) || auth.IsS3Location(c.AccessPublicKey) {
		client, err := auth.NewS3Client(ctx, auth.S3Options{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		getter = client
	}
	loader := auth.NewKeyLoader(getter)

	private, err := loader.Load(ctx, c.AccessPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", common.ErrSigningUnavailable, err)
	}
	public, err := loader.Load(ctx, c.AccessPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", common.ErrSigningUnavailable, err)
	}

	return auth.NewKeySet(private, public, []byte(c.RefreshSecret))
}

func (app *App) openAccounts(ctx context.Context) (accounts.Repository, error) {
	m, err := repomanager.New(repomanager.Settings{
		Driver:        app.config.StorageDriver,
		PostgresDSN:   app.config.DatabaseDSN,
		MongoURI:      app.config.MongoURI,
		MongoDatabase: app.config.MongoDatabase,
	})
	if err != nil {
		return nil, err
	}

	repo, err := m.Open(ctx)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { return m.Close(context.Background()) })
	return repo, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions, app.signer)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           app.metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or ctx is done, then releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases stores in reverse order of opening.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
