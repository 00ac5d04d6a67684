package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ape-stjoseph/tombola-api/internal/config"
	"github.com/ape-stjoseph/tombola-api/internal/handlers"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
	"github.com/ape-stjoseph/tombola-api/internal/routes"
	"github.com/ape-stjoseph/tombola-api/internal/services"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// CapturingEmailService records outgoing mail instead of sending it.
type CapturingEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

func (m *CapturingEmailService) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *CapturingEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with the full dependency graph
// over a real database and a captured email transport.
type TestServer struct {
	Server       *httptest.Server
	DB           *TestDB
	EmailService *CapturingEmailService
	Config       *config.Config
}

// NewTestServer wires the API the same way cmd/api does, minus the
// edge limiter; the storage-backed limiter stays off outside
// production.
func NewTestServer(db *TestDB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Auth.SessionTTL = 7 * 24 * time.Hour
	cfg.RateLimit.GenericMaxRequests = 60
	cfg.RateLimit.GenericWindow = 60 * time.Second
	cfg.Email.SiteBaseURL = "http://localhost:3000"
	cfg.Email.UnsubscribeSecret = "integration-test-unsubscribe-secret"
	cfg.Email.ConfirmTokenExpiry = 48 * time.Hour

	userRepo := repositories.NewUserRepository(db.DB)
	sessionRepo := repositories.NewSessionRepository(db.DB)
	roleRepo := repositories.NewRoleRepository(db.DB)
	participantRepo := repositories.NewParticipantRepository(db.DB)
	lotRepo := repositories.NewLotRepository(db.DB)
	rateLimitRepo := repositories.NewRateLimitRepository(db.DB)
	auditLogRepo := repositories.NewAuditLogRepository(db.DB)
	newsletterRepo := repositories.NewNewsletterRepository(db.DB)

	emailService := &CapturingEmailService{}

	auditService := services.NewAuditService(auditLogRepo, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, roleRepo, auditService, cfg.Auth.SessionTTL, logger)
	rateLimitService := services.NewRateLimitService(rateLimitRepo, logger)
	participantService := services.NewParticipantService(participantRepo, auditService, logger)
	lotService := services.NewLotService(lotRepo, participantRepo, auditService, logger)
	newsletterService := services.NewNewsletterService(
		newsletterRepo,
		emailService,
		auditService,
		logger,
		cfg.Email.SiteBaseURL,
		cfg.Email.UnsubscribeSecret,
		cfg.Email.ConfirmTokenExpiry,
	)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(r, routes.Handlers{
			Auth:        handlers.NewAuthHandler(authService),
			Participant: handlers.NewParticipantHandler(participantService),
			Lot:         handlers.NewLotHandler(lotService),
			Newsletter:  handlers.NewNewsletterHandler(newsletterService),
			Audit:       handlers.NewAuditHandler(auditService),
		}, authService, rateLimitService, cfg, logger)
	})

	return &TestServer{
		Server:       httptest.NewServer(router),
		DB:           db,
		EmailService: emailService,
		Config:       cfg,
	}
}

// Close shuts the HTTP server down.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// APIResponse mirrors the response envelope for assertions.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// DoJSON issues a JSON request against the test server.
func (ts *TestServer) DoJSON(method, path, token string, body interface{}) (*http.Response, *APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}

	var envelope APIResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return resp, nil, fmt.Errorf("failed to decode response %q: %w", raw, err)
		}
	}

	return resp, &envelope, nil
}

// Login authenticates a seeded account and returns the bearer token.
func (ts *TestServer) Login(email, password string) (string, error) {
	resp, envelope, err := ts.DoJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode login data: %w", err)
	}
	return data.Token, nil
}
