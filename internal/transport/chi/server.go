package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/domain"
	"github.com/kailas-cloud/voicematch/internal/domain/match"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
	speakeruc "github.com/kailas-cloud/voicematch/internal/usecase/speaker"
	verificationuc "github.com/kailas-cloud/voicematch/internal/usecase/verification"
)

const maxBodyBytes = 4 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Pagination bounds GET /speakers page sizes.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// Server serves the speaker matching HTTP API.
type Server struct {
	enrollment     *enrollmentuc.Service
	identification *identificationuc.Service
	verification   *verificationuc.Service
	speakers       *speakeruc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	page           Pagination
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	enrollment *enrollmentuc.Service,
	identification *identificationuc.Service,
	verification *verificationuc.Service,
	speakers *speakeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		enrollment:     enrollment,
		identification: identification,
		verification:   verification,
		speakers:       speakers,
		health:         health,
		logger:         logger,
		page:           Pagination{DefaultLimit: 20, MaxLimit: 100},
	}
	// Order matters: dimension errors also match ErrValidation.
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrDimensionMismatch, ErrorCodeDimensionMismatch),
		validationHandler(domain.ErrValidation, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrDuplicateName, http.StatusConflict, ErrorCodeSpeakerAlreadyExists),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeSpeakerNotFound),
	}
	return s
}

// WithPagination sets the GET /speakers page sizes.
func (s *Server) WithPagination(defaultLimit, maxLimit int) *Server {
	if defaultLimit > 0 {
		s.page.DefaultLimit = defaultLimit
	}
	if maxLimit >= s.page.DefaultLimit {
		s.page.MaxLimit = maxLimit
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/speakers", func(r chi.Router) {
		r.Post("/", s.Enroll)
		r.Get("/", s.ListSpeakers)
		r.Get("/{name}", s.GetSpeaker)
		r.Delete("/{name}", s.DeleteSpeaker)
		r.Put("/{name}/samples", s.UpdateSamples)
	})
	r.Post("/identify", s.Identify)
	r.Post("/verify", s.Verify)
}

// Enroll handles POST /speakers.
func (s *Server) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.enrollment.Enroll(r.Context(), req.Name, req.Embeddings)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, enrollResultToAPI(res))
}

// UpdateSamples handles PUT /speakers/{name}/samples.
func (s *Server) UpdateSamples(w http.ResponseWriter, r *http.Request) {
	var req UpdateSamplesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mode, err := enrollmentuc.ParseMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.enrollment.Update(r.Context(), chi.URLParam(r, "name"), req.Embeddings, mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, enrollResultToAPI(res))
}

// ListSpeakers handles GET /speakers.
func (s *Server) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid limit parameter")
		return
	}
	var cursor *string
	if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &cursor); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid cursor parameter")
		return
	}

	speakers, err := s.speakers.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Speaker, len(speakers))
	for i, spk := range speakers {
		items[i] = speakerToAPI(spk)
	}

	writeJSON(w, http.StatusOK, s.paginateSpeakers(items, cursor, limit))
}

func (s *Server) paginateSpeakers(items []Speaker, cursor *string, limitPtr *int) SpeakerListResponse {
	limit := s.page.DefaultLimit
	if limitPtr != nil && *limitPtr > 0 {
		limit = min(*limitPtr, s.page.MaxLimit)
	}

	startIdx := 0
	if cursor != nil && *cursor != "" {
		for i, item := range items {
			if item.Name == *cursor {
				startIdx = i + 1
				break
			}
		}
	}

	end := min(startIdx+limit, len(items))
	page := items[startIdx:end]
	hasMore := end < len(items)

	resp := SpeakerListResponse{
		Speakers: page,
		Total:    len(items),
		HasMore:  hasMore,
	}
	if hasMore && len(page) > 0 {
		c := page[len(page)-1].Name
		resp.NextCursor = &c
	}
	return resp
}

// GetSpeaker handles GET /speakers/{name}.
func (s *Server) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	spk, err := s.speakers.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, speakerToAPI(spk))
}

// DeleteSpeaker handles DELETE /speakers/{name}.
func (s *Server) DeleteSpeaker(w http.ResponseWriter, r *http.Request) {
	if err := s.speakers.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Identify handles POST /identify.
func (s *Server) Identify(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	opts := s.identification.Defaults()
	if req.UnknownThreshold != nil {
		opts.UnknownThreshold = *req.UnknownThreshold
	}
	if req.HighThreshold != nil {
		opts.HighThreshold = *req.HighThreshold
	}
	if req.TopN != nil {
		opts.TopN = *req.TopN
	}

	res, err := s.identification.Identify(r.Context(),
		match.Query{Embedding: req.Embedding, NoVoice: req.NoVoice}, opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, identificationToAPI(res))
}

// Verify handles POST /verify.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	threshold := s.verification.DefaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	res, err := s.verification.Verify(r.Context(),
		match.Query{Embedding: req.Embedding, NoVoice: req.NoVoice}, req.ClaimedName, threshold)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verificationToAPI(res))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Speakers: report.Speakers,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler answers 400 with the field and reason of a ValidationError.
func validationHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp := ErrorResponse{Code: code, Message: sentinel.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Field = ve.Field
			resp.Message = ve.Field + ": " + ve.Reason
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Debug("request rejected", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
