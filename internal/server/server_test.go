package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/v0xg/hatter/internal/command"
	"github.com/v0xg/hatter/internal/compiler"
	"github.com/v0xg/hatter/internal/config"
	"github.com/v0xg/hatter/internal/engine"
	"github.com/v0xg/hatter/internal/executor"
	"github.com/v0xg/hatter/internal/observability"
	"github.com/v0xg/hatter/internal/scraper"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) Run(ctx context.Context, p *command.Plan) (*engine.RunResult, error) {
	args := m.Called(ctx, p)
	res, _ := args.Get(0).(*engine.RunResult)
	return res, args.Error(1)
}

func (m *mockService) Compile(p *command.Plan, target compiler.Target) (string, error) {
	args := m.Called(p, target)
	return args.String(0), args.Error(1)
}

func (m *mockService) Scrape(ctx context.Context, url string) (*scraper.Result, error) {
	args := m.Called(ctx, url)
	res, _ := args.Get(0).(*scraper.Result)
	return res, args.Error(1)
}

func serverConfig() config.ServerConfig {
	return config.NewDefaultConfig().Server
}

func newServer(t *testing.T, svc Service, cfg config.ServerConfig) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(svc, cfg, reg, zaptest.NewLogger(t)), reg
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t, &mockService{}, serverConfig())
	w := do(s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"hatter API is running"}`, w.Body.String())
}

const runBody = `{"testName":"Smoke","commands":[{"action":"navigate","url":"https://example.com"}]}`

func TestRunTest(t *testing.T) {
	svc := &mockService{}
	svc.On("Run", mock.Anything, mock.MatchedBy(func(p *command.Plan) bool {
		return p.TestName == "Smoke" && len(p.Commands) == 1
	})).Return(&engine.RunResult{
		Report: &executor.Report{RunID: "r1", Success: false, Error: "step 1 (navigate): boom", ExecutionTime: 12, Screenshots: []executor.Screenshot{}},
		Script: "package main",
	}, nil)

	s, _ := newServer(t, svc, serverConfig())
	w := do(s, http.MethodPost, "/api/run-test", runBody)

	// a failed run is still a completed request
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"runId":"r1","success":false,"error":"step 1 (navigate): boom",
		"executionTime":12,"screenshots":[],"script":"package main"
	}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestRunTest_Validation(t *testing.T) {
	s, _ := newServer(t, &mockService{}, serverConfig())

	for name, body := range map[string]string{
		"empty list":     `{"commands":[]}`,
		"not a list":     `{"commands":"navigate"}`,
		"malformed":      `{"commands":[`,
		"missing action": `[{"url":"x"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/api/run-test", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestRunTest_InternalError(t *testing.T) {
	svc := &mockService{}
	svc.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	s, _ := newServer(t, svc, serverConfig())
	w := do(s, http.MethodPost, "/api/run-test", runBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunTest_BodyLimit(t *testing.T) {
	cfg := serverConfig()
	cfg.BodyLimitMB = 1
	s, _ := newServer(t, &mockService{}, cfg)

	big := fmt.Sprintf(`[{"action":"type","selector":"#q","text":%q}]`, strings.Repeat("a", 2<<20))
	w := do(s, http.MethodPost, "/api/run-test", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestScrapeForm(t *testing.T) {
	svc := &mockService{}
	svc.On("Scrape", mock.Anything, "https://example.com").Return(&scraper.Result{
		URL:    "https://example.com",
		Fields: []scraper.FormField{{TagName: "input", Type: "text", Selector: "#q"}},
	}, nil)

	s, _ := newServer(t, svc, serverConfig())
	w := do(s, http.MethodPost, "/api/scrape-form", `{"url":"https://example.com"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success":true,"url":"https://example.com","totalFields":1,
		"fields":[{"tagName":"input","type":"text","required":false,"selector":"#q"}]
	}`, w.Body.String())
}

func TestScrapeForm_Errors(t *testing.T) {
	svc := &mockService{}
	svc.On("Scrape", mock.Anything, "").Return(nil, scraper.ErrNoURL)
	svc.On("Scrape", mock.Anything, "http://nowhere.invalid").Return(nil,
		&scraper.ScrapeError{URL: "http://nowhere.invalid", Op: "navigate", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")})

	s, _ := newServer(t, svc, serverConfig())

	w := do(s, http.MethodPost, "/api/scrape-form", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No URL provided")

	w = do(s, http.MethodPost, "/api/scrape-form", `{"url":"http://nowhere.invalid"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to scrape form")
	assert.Contains(t, w.Body.String(), "ERR_NAME_NOT_RESOLVED")

	w = do(s, http.MethodPost, "/api/scrape-form", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateScript(t *testing.T) {
	svc := &mockService{}
	svc.On("Compile", mock.Anything, compiler.TargetPuppeteer).Return("// script", nil)
	svc.On("Compile", mock.Anything, compiler.Target("cobol")).Return("", fmt.Errorf("%w: %q", compiler.ErrUnknownTarget, "cobol"))

	s, _ := newServer(t, svc, serverConfig())

	w := do(s, http.MethodPost, "/api/generate-script",
		`{"target":"puppeteer","commands":[{"action":"wait"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"script":"// script"}`, w.Body.String())

	w = do(s, http.MethodPost, "/api/generate-script", `{"target":"cobol","commands":[{"action":"wait"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/api/generate-script", `{"commands":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmission(t *testing.T) {
	cfg := serverConfig()
	cfg.MaxSessions = 1
	s, _ := newServer(t, &mockService{}, cfg)

	require.NoError(t, s.sessions.Acquire(context.Background(), 1))
	defer s.sessions.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/run-test", strings.NewReader(runBody)).WithContext(ctx)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORS(t *testing.T) {
	cfg := serverConfig()
	cfg.CORSOrigin = "https://app.example.com"
	s, _ := newServer(t, &mockService{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	svc := &mockService{}
	s, reg := newServer(t, svc, serverConfig())
	observability.MustNewMetrics(reg).ObserveRun(true, time.Second)

	w := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hatter_executor_")
}
