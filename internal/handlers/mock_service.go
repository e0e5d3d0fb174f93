package handlers

import (
	"context"
	"net/http"

	"heating_scheduler/internal/ledger"
	"heating_scheduler/internal/models"
	"heating_scheduler/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseName     string
	parseErr      error

	lastGenName     string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) SyncOperators(context.Context, map[string]string) error { return nil }

func (m *mockAuth) GenerateToken(_ context.Context, name, password string) (string, error) {
	m.lastGenName = name
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseName, m.parseErr
}

type mockHeaters struct {
	report    *service.RunReport
	runErr    error
	ledger    ledger.Entry
	ledgerErr error

	runCalls int
	lastOpts service.RunOptions
}

func (m *mockHeaters) Run(_ context.Context, opts service.RunOptions) (*service.RunReport, error) {
	m.runCalls++
	m.lastOpts = opts
	return m.report, m.runErr
}

func (m *mockHeaters) Ledger(context.Context) (ledger.Entry, error) {
	return m.ledger, m.ledgerErr
}

type mockSchedules struct {
	count int
	err   error
}

func (m *mockSchedules) Fetch(context.Context) (int, error) { return m.count, m.err }

type mockEventLog struct {
	resp       []models.ReconcileEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.ReconcileEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request) *http.Request {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
