package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-matches/internal/config"
	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/repository"
	"github.com/rocketscienceinc/tictactoe-matches/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-matches/internal/service"
	"github.com/rocketscienceinc/tictactoe-matches/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-matches/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
	"github.com/rocketscienceinc/tictactoe-matches/transport/rest"
	"github.com/rocketscienceinc/tictactoe-matches/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}
	defer closeStorage(log, "sqlite", sqliteStorage)

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	catalog := entity.NewCatalog(entity.RandomCoin).Register(entity.TicTacToe, tictactoe.Game{})
	codec := wire.NewCodec(catalog)

	matchRepo, closer, err := newMatchRepository(ctx, conf, sqliteStorage, codec)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closeStorage(log, conf.Storage.Driver, closer)
	}

	userUseCase := usecase.NewUserUseCase(repository.NewUserRepository(sqliteStorage.Connection))
	matchManager := usecase.NewMatchManager(logger, matchRepo, userUseCase, catalog)
	authService := service.NewAuthService(conf.JWTSecretKey, conf.JWTTTL)

	restServer := rest.New(logger, matchManager, userUseCase, authService)
	wsServer := websocket.New(logger, matchManager, authService)

	group, groupCtx := errgroup.WithContext(ctx)

	// run HTTP server
	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := restServer.Start(groupCtx, conf.HTTPPort); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// run Websocket server
	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if err := wsServer.Start(groupCtx, conf.SocketPort); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shut down")

	return nil
}

// newMatchRepository builds the match store selected by storage.driver. The returned closer is nil
// when the store shares the sqlite connection or lives in memory.
func newMatchRepository(ctx context.Context, conf *config.Config, sqliteStorage *storage.Storage, codec *wire.Codec) (repository.MatchRepository, io.Closer, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisMatchRepository(redisStorage.Connection, codec), redisStorage, nil
	case config.DriverSQLite:
		return repository.NewSQLiteMatchRepository(sqliteStorage.Connection, codec), nil, nil
	case config.DriverMemory:
		return repository.NewMemoryMatchRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

func closeStorage(log *slog.Logger, name string, closer io.Closer) {
	if err := closer.Close(); err != nil {
		log.Error("could not close storage", "storage", name, "error", err)
	}
}
