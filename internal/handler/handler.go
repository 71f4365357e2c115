package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizreport/internal/handler/views"
	appI18n "github.com/pavelanni/quizreport/internal/i18n"
	"github.com/pavelanni/quizreport/internal/model"
	"github.com/pavelanni/quizreport/internal/report"
	"github.com/pavelanni/quizreport/internal/store"
)

const (
	maxBodyBytes    = 8 << 20 // student photos arrive as data URLs
	deliveryTimeout = 15 * time.Second
	adviceTimeout   = 90 * time.Second
)

// Sender delivers a formatted report to the chat.
type Sender interface {
	Send(ctx context.Context, text string) (bool, error)
}

// Advisor drafts a study recommendation for a result.
type Advisor interface {
	Advise(ctx context.Context, rec model.ResultRecord, lang string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	sender     Sender
	advisor    Advisor
	config     model.ServiceConfig
	apiKeyHash []byte

	// slots held by in-flight advice deliveries
	pending chan struct{}
}

// New creates a new Handler. advisor may be nil.
func New(s *store.Store, sender Sender, advisor Advisor, cfg model.ServiceConfig) (*Handler, error) {
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	h := &Handler{
		store:   s,
		sender:  sender,
		advisor: advisor,
		config:  cfg,
		pending: make(chan struct{}, 32),
	}
	if cfg.APIKey != "" {
		hash, err := hashAPIKey(cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("hash API key: %w", err)
		}
		h.apiKeyHash = hash
	}
	return h, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.With(h.requireKey(basicChallenge)).Get("/", h.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireKey(bearerChallenge))
		r.Post("/report/preview", h.handlePreview)
		r.Post("/results", h.handleSubmit)
		r.Get("/results", h.handleListResults)
		r.Get("/results/{resultID}", h.handleGetResult)
		r.Post("/results/{resultID}/resend", h.handleResend)
		r.Get("/student", h.handleGetStudent)
		r.Put("/student", h.handlePutStudent)
		r.Delete("/student", h.handleDeleteStudent)
	})
}

// Wait blocks until background advice deliveries finish or ctx is done.
// It is meant for shutdown: afterwards no new advice is started.
func (h *Handler) Wait(ctx context.Context) {
	for i := 0; i < cap(h.pending); i++ {
		select {
		case h.pending <- struct{}{}:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	labels := views.ResultsLabels{
		Title:    appI18n.T(ctx, "ResultsTitle"),
		Empty:    appI18n.T(ctx, "ResultsEmpty"),
		Student:  appI18n.T(ctx, "ResultsStudent"),
		Unit:     appI18n.T(ctx, "ResultsUnit"),
		Score:    appI18n.T(ctx, "ResultsScore"),
		Percent:  appI18n.T(ctx, "ResultsPercent"),
		Status:   appI18n.T(ctx, "ResultsStatus"),
		Received: appI18n.T(ctx, "ResultsReceived"),
	}
	page := views.ResultsPage(labels, results)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(ctx, w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	text := report.Format(rec, h.config.Limits, appI18n.ReportLabels(r.Context()))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

type submitResponse struct {
	ID     string `json:"id"`
	Sent   bool   `json:"sent"`
	Length int    `json:"length"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	text := report.Format(rec, h.config.Limits, appI18n.ReportLabels(r.Context()))
	id, err := h.store.InsertResult(rec, text)
	if err != nil {
		slog.Error("failed to store result", "error", err)
		writeError(w, http.StatusInternalServerError, "store result")
		return
	}
	slog.Info("received result",
		"id", id,
		"student", rec.StudentName,
		"unit", rec.UnitTitle,
		"correct", rec.CorrectAnswers,
		"total", rec.TotalQuestions,
		"length", report.Length(text),
	)

	sent := h.deliver(r.Context(), id, text)
	if sent && h.advisor != nil && rec.IncorrectCount() > 0 {
		h.sendAdvice(r.Context(), id, rec)
	}

	writeJSON(w, http.StatusCreated, submitResponse{ID: id, Sent: sent, Length: report.Length(text)})
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []model.ResultSummary{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.GetResult(chi.URLParam(r, "resultID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.GetResult(chi.URLParam(r, "resultID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	sent := h.deliver(r.Context(), res.ID, res.Report)
	writeJSON(w, http.StatusOK, submitResponse{ID: res.ID, Sent: sent, Length: report.Length(res.Report)})
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetStudentInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "no student info saved")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type studentRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

func (h *Handler) handlePutStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	info, err := h.store.SaveStudentInfo(req.Name, req.Photo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearStudentInfo(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord reads and validates a ResultRecord body. On failure it has
// already written the response.
func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (model.ResultRecord, bool) {
	var rec model.ResultRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return rec, false
	}
	if err := rec.Validate(); err != nil {
		slog.Warn("rejected result record", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return rec, false
	}
	return rec, true
}

// deliver sends the report and records the outcome. Delivery failures are
// logged, never returned: the report is already stored and can be resent.
func (h *Handler) deliver(ctx context.Context, id, text string) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	sent, err := h.sender.Send(ctx, text)
	if err != nil {
		slog.Warn("report delivery failed", "id", id, "error", err)
	}
	status := model.DeliveryFailed
	if sent {
		status = model.DeliverySent
	}
	if err := h.store.UpdateResultStatus(id, status); err != nil {
		slog.Error("failed to record delivery status", "id", id, "error", err)
	}
	return sent
}

// sendAdvice asks the advisor for study advice and posts it as a follow-up
// message in the background. Labels are resolved before the request ends.
func (h *Handler) sendAdvice(ctx context.Context, id string, rec model.ResultRecord) {
	heading := appI18n.T(ctx, "AdviceHeading")
	lang := h.langFor(ctx)

	select {
	case h.pending <- struct{}{}:
	default:
		slog.Warn("advice queue full, skipping", "id", id)
		return
	}
	go func() {
		defer func() { <-h.pending }()
		ctx, cancel := context.WithTimeout(context.Background(), adviceTimeout)
		defer cancel()

		advice, err := h.advisor.Advise(ctx, rec, lang)
		if err != nil {
			slog.Warn("study advice failed", "id", id, "error", err)
			return
		}
		if _, err := h.sender.Send(ctx, report.FormatAdvice(heading, advice, h.config.Limits)); err != nil {
			slog.Warn("advice delivery failed", "id", id, "error", err)
			return
		}
		slog.Info("study advice delivered", "id", id)
	}()
}

// langFor returns the language i18n.Middleware resolved for the request.
func (h *Handler) langFor(ctx context.Context) string {
	if l := appI18n.Lang(ctx); l != "" {
		return l
	}
	return h.config.Lang
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
