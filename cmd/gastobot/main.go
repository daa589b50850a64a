package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jdelaire/gastobot/adapters/backend"
	"github.com/jdelaire/gastobot/adapters/telegram_notifier"
	"github.com/jdelaire/gastobot/adapters/telegram_receiver"
	"github.com/jdelaire/gastobot/adapters/whatsapp_bridge"
	"github.com/jdelaire/gastobot/core"
	"github.com/jdelaire/gastobot/core/ops"
	"github.com/jdelaire/gastobot/core/policy"
	"github.com/jdelaire/gastobot/internal/config"
	"github.com/jdelaire/gastobot/internal/keychain"
	"github.com/jdelaire/gastobot/internal/logging"
)

const usage = `usage:
  gastobot                       run the bot
  gastobot secret set <account>  store a secret read from stdin (accounts: backend-token, telegram-token)`

func main() {
	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("gastobot exited", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("gastobot stopped")
}

func runCommand(args []string) error {
	if len(args) == 3 && args[0] == "secret" && args[1] == "set" {
		account := args[2]
		if account != keychain.AccountBackendToken && account != keychain.AccountTelegramToken {
			return fmt.Errorf("unknown account %q\n%s", account, usage)
		}
		fmt.Fprintf(os.Stderr, "value for %s: ", account)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read secret: %w", err)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			return errors.New("empty secret")
		}
		if err := keychain.Set(account, value); err != nil {
			return fmt.Errorf("store secret: %w", err)
		}
		fmt.Fprintln(os.Stderr, "stored")
		return nil
	}
	return errors.New(usage)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	pol, err := policy.Load(cfg.AuthorizedUsersFile)
	if err != nil {
		return fmt.Errorf("load authorized users: %w", err)
	}
	if pol.Len() == 0 {
		logger.Warn("no authorized users configured, every sender will be rejected", "path", cfg.AuthorizedUsersFile)
	}
	logger.Info("authorized users loaded", "count", pol.Len(), "path", cfg.AuthorizedUsersFile)

	backendToken, err := keychain.Resolve(cfg.BackendToken, keychain.AccountBackendToken)
	if err != nil {
		logger.Warn("keychain lookup failed", "account", keychain.AccountBackendToken, "error", err)
	}
	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger.With("component", "backend")).
		WithToken(backendToken)

	reg := ops.NewRegistry()
	if err := ops.RegisterDefaults(reg, client); err != nil {
		return fmt.Errorf("register ops: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := core.NewQueue(cfg.QueueSize)

	receiver, notifier, err := newTransport(ctx, cfg, queue.Handler(ctx), logger)
	if err != nil {
		return err
	}

	router := core.NewRouter(pol, reg, notifier, logger.With("component", "router")).
		WithReplyTimeout(cfg.ReplyTimeout)

	var push *core.Server
	if cfg.PushSocket != "" {
		push = core.NewServer(cfg.PushSocket, pol, notifier, logger.With("component", "push"))
		if err := push.Start(ctx); err != nil {
			return fmt.Errorf("start push socket: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := receiver.Start(gctx)
		// Stop intake; the consumer drains what is already queued.
		queue.Close()
		return err
	})
	g.Go(func() error {
		queue.Run(gctx, router.Handle)
		return nil
	})

	logger.Info("gastobot started",
		"transport", notifier.Name(),
		"backend", cfg.BackendURL,
		"backend_timeout", cfg.BackendTimeout)

	err = g.Wait()
	if push != nil {
		push.Shutdown()
	}
	if c, ok := notifier.(io.Closer); ok {
		c.Close()
	}
	return err
}

// newTransport builds the receiver and notifier for the configured chat
// transport. Failing to reach the transport is fatal.
func newTransport(ctx context.Context, cfg *config.Config, handler core.MessageHandler, logger *slog.Logger) (core.Receiver, core.Notifier, error) {
	switch cfg.Transport {
	case config.TransportTelegram:
		token, err := keychain.Resolve(cfg.TelegramBotToken, keychain.AccountTelegramToken)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve telegram token: %w", err)
		}
		if token == "" {
			return nil, nil, errors.New("telegram transport requires TELEGRAM_BOT_TOKEN or a keychain entry")
		}
		recv := telegram_receiver.New(token, handler, logger.With("component", "telegram"))
		return recv, telegram_notifier.New(token), nil

	default:
		bridge := whatsapp_bridge.New(cfg.WhatsAppURL, handler, logger.With("component", "whatsapp"))
		if err := bridge.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return bridge, bridge, nil
	}
}
