package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"netquiz/auth"
	"netquiz/contract"
	"netquiz/domain"
	grpcserver "netquiz/infrastructure/grpc/server"
	"netquiz/infrastructure/storage"
	"netquiz/moderation"
	"netquiz/protocol"
	"netquiz/runtime"
	"netquiz/runtime/workers"
	"netquiz/services"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const startupNotice = "NetQuiz server online"

// App holds every long-lived component of a NetQuiz server.
type App struct {
	cfg Config
	log *slog.Logger

	Registry *runtime.Registry
	Quizzes  *services.QuizService
	Files    *services.FileService
	Notifier *workers.Notifier

	server     *runtime.Server
	supervisor *workers.Supervisor
	admin      *grpcserver.AdminServer

	listener      net.Listener
	adminListener net.Listener
	errChan       chan error
	cancel        context.CancelFunc
	workersDone   chan struct{}
	stopOnce      sync.Once
}

// NewApp wires the server on top of an opened badger database. Nothing listens yet.
func NewApp(cfg Config, log *slog.Logger, db *badger.DB) (*App, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("notification socket: %w", err)
	}
	broadcast := &net.UDPAddr{IP: net.ParseIP(cfg.BroadcastAddress), Port: cfg.NotificationPort}
	notifier := workers.NewNotifier(log, conn, broadcast, cfg.NotifyQueueSize)

	quizzes := services.NewQuizService(log, storage.NewQuizRepository(db, log), notifier)
	if err := seedQuizzes(log, quizzes, cfg.QuizzesFile); err != nil {
		_ = conn.Close()
		return nil, err
	}

	files, err := services.NewFileService(log, storage.NewFileRepository(db, log), notifier,
		cfg.FilesDirectory, cfg.MaxUploadSize)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	censor, err := newCensor(log, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	var authenticator contract.Authenticator = auth.AcceptAll{}
	if cfg.AccountsEnabled {
		authenticator = auth.NewAccountAuthenticator(log, storage.NewAccountRepository(db))
	}

	registry := runtime.NewRegistry()
	hub := runtime.NewHub(log, registry)
	interpreter := runtime.NewInterpreter(log, hub, registry, censor)
	lobby := runtime.NewLobby(log, registry, hub, interpreter, notifier, authenticator,
		cfg.SessionIdleTimeout, cfg.WriteTimeout)

	router := runtime.NewRouter(log, cfg.TagTimeout).
		Register(lobby, protocol.TagChat, protocol.TagUser).
		Register(quizzes, protocol.TagQuiz).
		Register(files, protocol.TagFile)

	supervisor := workers.NewSupervisor(log, cfg.RestartInterval)
	supervisor.Add(
		notifier,
		workers.NewHeartbeatWorker(log, cfg.HeartbeatInterval, registry.Len, notifier),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{notifier.Queue()},
			cfg.CapacityInterval, cfg.LowCapacity),
	)

	return &App{
		cfg:         cfg,
		log:         log,
		Registry:    registry,
		Quizzes:     quizzes,
		Files:       files,
		Notifier:    notifier,
		server:      runtime.NewServer(log, router, lobby, cfg.ShutdownTimeout),
		supervisor:  supervisor,
		admin:       grpcserver.NewAdminServer(log),
		errChan:     make(chan error, 2),
		workersDone: make(chan struct{}),
	}, nil
}

// newCensor returns nil when moderation is disabled.
func newCensor(log *slog.Logger, cfg Config) (runtime.Censor, error) {
	if !cfg.ModerationEnabled {
		return nil, nil
	}
	char, err := CharacterRune(cfg.CharReplacement)
	if err != nil {
		return nil, err
	}
	data, err := moderation.NewEmbeddedLoader().LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("load censored words: %w", err)
	}
	moderator, err := moderation.NewModerator(data.Words, char, log)
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(data.Words), "languages", data.Languages)
	return moderator, nil
}

func seedQuizzes(log *slog.Logger, quizzes *services.QuizService, path string) error {
	seed := domain.DefaultQuizzes()
	if path != "" {
		extra, err := services.LoadQuizzesFile(path)
		if err != nil {
			return err
		}
		seed = append(seed, extra...)
	}
	added, err := quizzes.Seed(seed)
	if err != nil {
		return fmt.Errorf("seed quizzes: %w", err)
	}
	log.Info("Quiz catalogue ready", "added", added)
	return nil
}

// Start binds the chat and admin listeners and runs everything in the background.
func (a *App) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenAddr(), err)
	}
	adminLn, err := net.Listen("tcp", a.cfg.AdminAddr())
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.AdminAddr(), err)
	}
	a.listener, a.adminListener = ln, adminLn
	ctx, a.cancel = context.WithCancel(ctx)

	go func() {
		a.supervisor.Run(ctx)
		close(a.workersDone)
	}()
	go func() {
		if err := a.admin.Serve(adminLn); err != nil {
			a.errChan <- err
		}
	}()

	a.Notifier.Announce(domain.SystemNotice(startupNotice))
	go func() {
		if err := a.server.Serve(ctx, ln); err != nil {
			a.errChan <- err
		}
	}()
	a.admin.SetServing(true)
	return nil
}

// Run starts the app and blocks until ctx is canceled or a server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
	case runErr = <-a.errChan:
		a.log.Error("Server failed", "error", runErr)
	}

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Addr is the chat listener address, nil before Start.
func (a *App) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

func (a *App) AdminAddr() net.Addr {
	if a.adminListener == nil {
		return nil
	}
	return a.adminListener.Addr()
}

// Shutdown stops the admin endpoint, drains the chat server then the workers.
// Calling it more than once is a no-op.
func (a *App) Shutdown() error {
	var err error
	a.stopOnce.Do(func() {
		a.admin.SetServing(false)
		a.admin.Stop()
		err = a.server.Shutdown()
		if a.cancel != nil {
			a.cancel()
			<-a.workersDone
		}
		_ = a.Notifier.Close()
		a.log.Info("Program stopped cleanly")
	})
	return err
}
