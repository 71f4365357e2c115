package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizreport/internal/handler"
	appI18n "github.com/pavelanni/quizreport/internal/i18n"
	"github.com/pavelanni/quizreport/internal/llm"
	"github.com/pavelanni/quizreport/internal/model"
	"github.com/pavelanni/quizreport/internal/notify"
	"github.com/pavelanni/quizreport/internal/report"
	"github.com/pavelanni/quizreport/internal/store"
)

//go:generate templ generate

const shutdownTimeout = 30 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizreport",
		Short: "Format quiz results as bounded chat reports and deliver them",
	}

	serve := serveCmd()
	root.AddCommand(serve, formatCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP report service",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizreport.db", "SQLite database path")
	f.StringSlice("cors-origins", []string{"*"}, "Origins allowed to post results from a browser")
	f.String("api-key", "", "Key required on API requests as a Bearer token and on the results page as the Basic auth password, at most 72 bytes (empty disables auth)")
	f.String("llm-url", "", "OpenAI-compatible API base URL for study advice (empty disables advice)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	addReportFlags(f)
	addTelegramFlags(f)
	addLogFlags(f)
	return cmd
}

func formatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format a result record JSON file and print the report",
		RunE:  runFormat,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Result record JSON file (- for stdin)")
	f.Bool("send", false, "Also deliver the report to the configured chat")
	addReportFlags(f)
	addTelegramFlags(f)
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "quizreport.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func addReportFlags(f *pflag.FlagSet) {
	def := model.DefaultLimits()
	f.StringP("lang", "l", "vi", "Report language (vi, en)")
	f.Int("max-message-length", def.MaxMessageLength, "Hard ceiling on report length in UTF-16 code units (at least 256)")
	f.Int("reserve-margin", def.ReserveMargin, "Headroom kept after the question blocks")
	f.Int("max-questions-shown", def.MaxQuestionsShown, "Maximum number of question blocks")
	f.Int("max-question-text-length", def.MaxQuestionTextLength, "Question text truncation length in characters")
}

func addTelegramFlags(f *pflag.FlagSet) {
	f.String("telegram-token", "", "Telegram bot token (or set QUIZREPORT_TELEGRAM_TOKEN)")
	f.String("telegram-chat-id", "", "Telegram chat ID receiving reports")
	f.String("telegram-url", notify.DefaultBaseURL, "Telegram Bot API base URL")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizreport")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizreport")
	v.AddConfigPath("/etc/quizreport")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func limitsFrom(v *viper.Viper) (model.Limits, error) {
	lim := model.Limits{
		MaxMessageLength:      v.GetInt("max-message-length"),
		ReserveMargin:         v.GetInt("reserve-margin"),
		MaxQuestionsShown:     v.GetInt("max-questions-shown"),
		MaxQuestionTextLength: v.GetInt("max-question-text-length"),
	}
	return lim, lim.Validate()
}

func telegramFrom(v *viper.Viper) *notify.Client {
	return notify.New(notify.Config{
		BaseURL: v.GetString("telegram-url"),
		Token:   v.GetString("telegram-token"),
		ChatID:  v.GetString("telegram-chat-id"),
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lim, err := limitsFrom(v)
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sender := telegramFrom(v)
	if !sender.Configured() {
		slog.Warn("telegram token or chat ID missing, reports will be stored but not sent")
	}

	// A nil *llm.Client must not end up inside the interface.
	var advisor handler.Advisor
	if llmURL := v.GetString("llm-url"); llmURL != "" {
		client := llm.New(llmURL, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := client.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", llmURL, "model", v.GetString("llm-model"))
		advisor = client
	}

	h, err := handler.New(db, sender, advisor, model.ServiceConfig{
		Lang:   lang,
		Limits: lim,
		APIKey: v.GetString("api-key"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Quiz pages are static files served from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"lang", lang,
			"max_message_length", lim.MaxMessageLength,
			"max_questions_shown", lim.MaxQuestionsShown,
			"telegram", sender.Configured(),
			"advice", advisor != nil,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	h.Wait(shutdownCtx)
	return nil
}

func runFormat(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lim, err := limitsFrom(v)
	if err != nil {
		return err
	}
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	in := cmd.InOrStdin()
	if path := v.GetString("input"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	text, err := formatRecord(cmd.Context(), in, lang, lim)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Debug("formatted report", "length", report.Length(text))

	if !v.GetBool("send") {
		return nil
	}
	sent, err := telegramFrom(v).Send(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	slog.Info("report delivered", "sent", sent)
	return nil
}

// formatRecord decodes and validates one ResultRecord and renders it in lang.
func formatRecord(ctx context.Context, r io.Reader, lang string, lim model.Limits) (string, error) {
	var rec model.ResultRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return "", fmt.Errorf("parse result record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}
	labels := appI18n.ReportLabels(appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang)))
	return report.Format(rec, lim, labels), nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported results", "count", export.Count)
	return nil
}
