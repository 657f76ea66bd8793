// Command deskmesh runs the customer support desk. It has four modes:
//
//	deskmesh demo       run canned inquiries through the crew and save results
//	deskmesh chat       interactive chat on stdin
//	deskmesh scenarios  run the simulated-customer scenario suite
//	deskmesh serve      expose the desk over HTTP
//
// Configuration comes from the environment (and an optional .env file); see
// the config package for the variable names.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/deskmesh/deskmesh"
	"github.com/deskmesh/deskmesh/config"
	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/logging"
	"github.com/deskmesh/deskmesh/model"
	"github.com/deskmesh/deskmesh/model/anthropic"
	"github.com/deskmesh/deskmesh/model/openai"
	"github.com/deskmesh/deskmesh/scenario"
	"github.com/deskmesh/deskmesh/server"
	"github.com/deskmesh/deskmesh/session"
	"github.com/deskmesh/deskmesh/session/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "deskmesh:", err)
		os.Exit(1)
	}
	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	var runErr error
	switch os.Args[1] {
	case "demo":
		runErr = runDemo(cfg, logger)
	case "chat":
		runErr = runChat(cfg, logger)
	case "scenarios":
		runErr = runScenarios(cfg, logger)
	case "serve":
		runErr = runServe(cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "deskmesh:", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: deskmesh <demo|chat|scenarios|serve>")
}

// buildModel constructs the configured backend. The name parameter overrides
// cfg.Model, used for the scenario simulator and judge.
func buildModel(cfg *config.Config, name string) model.Model {
	if name == "" {
		name = cfg.Model
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if name != "" {
				o.Model = name
			}
		})
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if name != "" {
				o.Model = anthropicsdk.Model(name)
			}
		})
	default:
		return scriptedMock(name)
	}
}

// scriptedMock makes offline runs useful: canned replies for the demo
// inquiries rather than a generic echo.
func scriptedMock(name string) model.Model {
	if name == "" {
		name = "mock"
	}
	m := model.NewMockModel(name, config.ProviderMock)
	m.AddResponse("I can't log into my account",
		"Let's get you back in. First, try resetting your password from the login page. If the reset email doesn't arrive within a few minutes, check your spam folder and I'll open a ticket for you.")
	m.AddResponse("I was charged twice for my subscription",
		"I'm sorry about the duplicate charge. I've flagged it with our billing team and the extra charge will be refunded to your original payment method within 5-7 business days.")
	m.AddResponse("How do I integrate your API with my application?",
		"Start by generating an API key in your dashboard, then follow the quickstart guide at docs.example.com/api. Authentication uses a Bearer token header on every request.")
	m.AddResponse("I want to cancel my subscription",
		"I can help with that. Before I process the cancellation, would a downgrade or a pause work for you? If not, I'll cancel effective at the end of the current billing period.")
	return m
}

func buildStore(cfg *config.Config) (core.SessionStore, func() error, error) {
	if cfg.DBPath == "" {
		return session.NewInMemoryStore(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create db directory: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open session db: %w", err)
	}
	return store, store.Close, nil
}

func buildDesk(cfg *config.Config, logger logging.Logger) (*deskmesh.Desk, func() error, error) {
	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	desk, err := deskmesh.New(buildModel(cfg, ""), func(o *deskmesh.Options) {
		o.SessionStore = store
		o.Logger = logger
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return desk, closeStore, nil
}

// saveResults writes v as indented JSON to a timestamped file under the
// results directory and returns the path.
func saveResults(cfg *config.Config, prefix string, v any) (string, error) {
	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}
	path := filepath.Join(cfg.ResultsDir, fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405")))
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

func runDemo(cfg *config.Config, logger logging.Logger) error {
	desk, closeStore, err := buildDesk(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	inquiries := []string{
		"I can't log into my account",
		"I was charged twice for my subscription",
		"How do I integrate your API with my application?",
		"I want to cancel my subscription",
	}

	type demoResult struct {
		Inquiry    string `json:"inquiry"`
		Response   string `json:"response,omitempty"`
		Agent      string `json:"agent,omitempty"`
		Error      string `json:"error,omitempty"`
		CustomerID string `json:"customer_id"`
		Timestamp  string `json:"timestamp"`
	}

	ctx := context.Background()
	results := make([]demoResult, 0, len(inquiries))
	for i, inquiry := range inquiries {
		customerID := fmt.Sprintf("CUST%03d", i+1)
		fmt.Printf("\n--- Inquiry %d/%d ---\n", i+1, len(inquiries))
		fmt.Println("Customer:", inquiry)

		res := demoResult{
			Inquiry:    inquiry,
			CustomerID: customerID,
			Timestamp:  time.Now().Format(time.RFC3339),
		}
		reply, err := desk.Handle(ctx, "demo-"+customerID, fmt.Sprintf("Customer ID %s: %s", customerID, inquiry))
		if err != nil {
			res.Error = err.Error()
			fmt.Println("Error:", err)
		} else {
			res.Response = reply.Text
			res.Agent = reply.Agent
			fmt.Printf("%s: %s\n", reply.Agent, reply.Text)
		}
		results = append(results, res)
	}

	path, err := saveResults(cfg, "basic_demo", results)
	if err != nil {
		return err
	}
	fmt.Println("\nDemo completed. Results saved to:", path)
	return nil
}

func runChat(cfg *config.Config, logger logging.Logger) error {
	desk, closeStore, err := buildDesk(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionKey := "chat-" + core.NewID()
	fmt.Println("Interactive mode. Type your message; quit/exit/q to leave.")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return saveChatHistory(cfg, desk, sessionKey)
		}

		reply, err := desk.Handle(ctx, sessionKey, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Printf("%s: %s\n", reply.Agent, reply.Text)
	}
	return saveChatHistory(cfg, desk, sessionKey)
}

func saveChatHistory(cfg *config.Config, desk *deskmesh.Desk, sessionKey string) error {
	sess, err := desk.Session(sessionKey)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if sess.Len() == 0 {
		return nil
	}
	path, err := saveResults(cfg, "interactive_session", sess.Transcript())
	if err != nil {
		return err
	}
	fmt.Println("Conversation saved to:", path)
	return nil
}

func runScenarios(cfg *config.Config, logger logging.Logger) error {
	desk, closeStore, err := buildDesk(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	target := scenario.TargetFunc(func(ctx context.Context, sessionKey, message string) (string, error) {
		reply, err := desk.Handle(ctx, sessionKey, message)
		if err != nil {
			return "", err
		}
		return reply.Text, nil
	})

	sim := scenario.NewUserSimulator(buildModel(cfg, cfg.SimulatorModel))
	judge := scenario.NewJudge(buildModel(cfg, cfg.JudgeModel))
	h := scenario.NewHarness(target, sim, judge, func(o *scenario.HarnessOptions) {
		o.Logger = logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := h.RunSuite(ctx, scenario.DefaultSuite())
	fmt.Print(scenario.Summarize(results))

	path, err := saveResults(cfg, "scenarios", results)
	if err != nil {
		return err
	}
	fmt.Println("Results saved to:", path)
	return nil
}

func runServe(cfg *config.Config, logger logging.Logger) error {
	desk, closeStore, err := buildDesk(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := server.NewHandler(desk.Adapter(), func(o *server.Options) {
		o.Logger = logger
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	stop()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
