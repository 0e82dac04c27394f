package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"spark-client/pkg/api"
	"spark-client/pkg/config"
	"spark-client/pkg/db"
	"spark-client/pkg/db/kv"
	"spark-client/pkg/logger"
	"spark-client/pkg/metrics"
	"spark-client/pkg/push"
	"spark-client/pkg/screens"
	"spark-client/pkg/session"
	"spark-client/pkg/sockets/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime is everything a command needs, wired once per invocation.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	conn    *sqlx.DB
	session *session.Store
	api     *api.Client
	channel *websocket.Channel
	push    *push.Service
	app     *screens.App

	metricsSrv *http.Server
}

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	rt.conn, err = db.Open(cfg.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	key, err := cfg.StoreKeyBytes()
	if err != nil {
		rt.Close()
		return nil, err
	}
	store, err := kv.New(rt.conn, kv.WithKey(key))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = session.Open(cmd.Context(), store, log)

	rt.api, err = api.New(cfg.APIBaseURL, rt.session, log, api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.channel = websocket.NewChannel(cfg.SocketURL, rt.session, log)
	rt.push = push.NewService(rt.session, rt.api, nil, log)
	rt.app = screens.NewApp(rt.session, rt.channel, log)

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		rt.serveMetrics(addr)
	}
	return rt, nil
}

func (rt *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	rt.metricsSrv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		rt.log.Info("serving metrics", zap.String("addr", addr))
		if err := rt.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// requireLogin fails commands that need a signed-in user.
func (rt *runtime) requireLogin() error {
	if !rt.session.LoggedIn() {
		return fmt.Errorf("%w: run 'spark login' first", screens.ErrNotLoggedIn)
	}
	return nil
}

func (rt *runtime) Close() {
	if rt.app != nil {
		rt.app.Close()
	}
	if rt.channel != nil {
		rt.channel.Disconnect()
	}
	if rt.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.metricsSrv.Shutdown(ctx); err != nil {
			rt.log.Warn("metrics server forced to shutdown", zap.Error(err))
		}
	}
	if err := db.Close(rt.conn, rt.log); err != nil {
		rt.log.Warn("error closing local store", zap.Error(err))
	}
	rt.log.Sync()
}

// withRuntime adapts a command body that needs the wired runtime.
func withRuntime(fn func(cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt, args)
	}
}

// stateErr prefers the screen's user-facing message.
func stateErr[T any](st screens.UIState[T], err error) error {
	if err == nil {
		return nil
	}
	if st.Status == screens.Error && st.Err != nil {
		return errors.New(st.Message())
	}
	return err
}
