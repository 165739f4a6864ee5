package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opsgate/internal/audit"
	"opsgate/internal/config"
	"opsgate/internal/confirm"
	"opsgate/internal/dispatch"
	"opsgate/internal/gateway/handler"
	"opsgate/internal/gateway/server"
	"opsgate/internal/interpret"
	"opsgate/internal/llm"
	"opsgate/internal/transcript"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the opsgate HTTP gateway",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides OPSGATE_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); strings.TrimSpace(addr) != "" {
		cfg.Addr = strings.TrimSpace(addr)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := buildLLMClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	var model *interpret.Model
	if client != nil {
		client = llm.Wrap(client, llm.WithLogging(logger))
		defer client.Close()

		archive := transcript.NewFromEnv(logger)
		model = interpret.NewModel(client, cfg.LLM.Timeout, logger)
		model.OnExchange = transcript.Recorder(archive, logger)
		logger.Info("model interpreter enabled",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model))
	} else {
		logger.Info("model interpreter disabled, rules only")
	}
	parser := interpret.NewParser(model, logger)

	trail := audit.NewFromEnv(logger)
	defer trail.Close()

	var dispatcher confirm.Dispatcher
	if cfg.NATSURL != "" {
		nd, err := dispatch.NewNATS(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nd.Close()
		dispatcher = nd
		logger.Info("dispatching confirmed commands to nats",
			zap.String("url", cfg.NATSURL), zap.String("subject", dispatch.Subject))
	} else {
		dispatcher = dispatch.NewLogged(logger)
	}

	flow := confirm.NewWorkflow(confirm.Config{
		TTL:        cfg.Confirm.TTL,
		Retention:  cfg.Confirm.Retention,
		Dispatcher: dispatcher,
		Audit:      trail,
		Logger:     logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go flow.RunSweeper(runCtx, cfg.Confirm.SweepInterval)

	mux := server.NewMux(
		handler.NewInterpretHandler(parser, flow, model != nil, logger),
		handler.NewConfirmHandler(flow, trail, logger),
		cfg.AllowedOrigins,
	)
	srv := server.New(cfg.Addr, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown initiated", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

func buildLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "off", "":
		return nil, nil
	case "fake":
		return llm.NewFakeClient(), nil
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return llm.NewOpenAIClient(cfg.Endpoint, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
