package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evoforge/backend/internal/auth"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/repository"
	"evoforge/backend/internal/services"
	"evoforge/backend/pkg/models"
)

type stubNotebookStore struct {
	problems  map[string]*models.Problem  // keyed problem id
	notebooks map[string]*models.Notebook // keyed notebook id
	owners    map[string]string           // notebook id -> user id
	contexts  map[string]*models.ProblemContext
}

func newStubNotebookStore() *stubNotebookStore {
	return &stubNotebookStore{
		problems:  make(map[string]*models.Problem),
		notebooks: make(map[string]*models.Notebook),
		owners:    make(map[string]string),
		contexts:  make(map[string]*models.ProblemContext),
	}
}

func (s *stubNotebookStore) addNotebook(userID string, pc *models.ProblemContext) string {
	id := uuid.New().String()
	s.owners[id] = userID
	s.contexts[id] = pc
	return id
}

func (s *stubNotebookStore) CreateProblem(_ context.Context, p *models.Problem) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.problems[p.ID] = p
	return nil
}

func (s *stubNotebookStore) CreateNotebook(_ context.Context, n *models.Notebook) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	s.notebooks[n.ID] = n
	return nil
}

func (s *stubNotebookStore) GetNotebook(_ context.Context, id string) (*models.Notebook, error) {
	if n, ok := s.notebooks[id]; ok {
		return n, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubNotebookStore) GetProblemContext(_ context.Context, notebookID, userID string) (*models.ProblemContext, error) {
	if s.owners[notebookID] != userID {
		return nil, repository.ErrNotFound
	}
	return s.contexts[notebookID], nil
}

type memCellStore struct {
	cells map[string]*models.Cell
	seq   int
}

func newMemCellStore() *memCellStore {
	return &memCellStore{cells: make(map[string]*models.Cell)}
}

func (s *memCellStore) Upsert(_ context.Context, notebookID string, cellType models.CellType, code, agentID string, position int) (*models.CellWriteResult, error) {
	key := notebookID + "/" + string(cellType)
	if cell, ok := s.cells[key]; ok {
		cell.Code = code
		cell.Version++
		return &models.CellWriteResult{CellID: cell.ID, Version: cell.Version, Action: "updated"}, nil
	}
	s.seq++
	cell := &models.Cell{
		ID:         uuid.New().String(),
		NotebookID: notebookID,
		CellType:   cellType,
		Code:       code,
		AgentID:    agentID,
		Version:    1,
		Position:   position,
		IsActive:   true,
		CreatedAt:  time.Now().UTC().Add(time.Duration(s.seq) * time.Millisecond),
	}
	s.cells[key] = cell
	return &models.CellWriteResult{CellID: cell.ID, Version: 1, Action: "created"}, nil
}

func (s *memCellStore) ListActive(_ context.Context, notebookID string) ([]*models.Cell, error) {
	var cells []*models.Cell
	for _, cell := range s.cells {
		if cell.NotebookID == notebookID {
			cells = append(cells, cell)
		}
	}
	for i := 0; i < len(cells); i++ {
		for j := i + 1; j < len(cells); j++ {
			if cells[j].Position < cells[i].Position {
				cells[i], cells[j] = cells[j], cells[i]
			}
		}
	}
	return cells, nil
}

func (s *memCellStore) GetActiveByType(_ context.Context, notebookID string, cellType models.CellType) (*models.Cell, error) {
	if cell, ok := s.cells[notebookID+"/"+string(cellType)]; ok {
		return cell, nil
	}
	return nil, repository.ErrNotFound
}

type memChatStore struct {
	messages []*models.ChatMessage
}

func (s *memChatStore) Append(_ context.Context, msg *models.ChatMessage) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memChatStore) History(_ context.Context, _ string, limit, offset int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for i := len(s.messages) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

type stubGenerator struct {
	calls int
	fail  bool
}

func (g *stubGenerator) Complete(_ context.Context, _ services.CompletionRequest) (string, error) {
	g.calls++
	if g.fail {
		return "", &services.GenerationError{Reason: "backend down"}
	}
	return fmt.Sprintf("generated-%d", g.calls), nil
}

type testServer struct {
	echo      *echo.Echo
	notebooks *stubNotebookStore
	cells     *memCellStore
	chat      *memChatStore
	gen       *stubGenerator
}

func newTestServer() *testServer {
	notebooks := newStubNotebookStore()
	cells := newMemCellStore()
	chat := &memChatStore{}
	gen := &stubGenerator{}
	logger := logging.NewLogger()

	h := NewHandler(notebooks, services.NewCellService(cells), services.NewChatService(chat), gen, logger)

	e := echo.New()
	e.GET("/health", HandleHealth)
	g := e.Group("/api/v1", auth.RequireAuth(auth.NewStaticVerifier("", "")))
	RegisterHandlers(g, h)

	return &testServer{echo: e, notebooks: notebooks, cells: cells, chat: chat, gen: gen}
}

func (s *testServer) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func testContext() *models.ProblemContext {
	return &models.ProblemContext{
		Title:       "Knapsack",
		Description: "Pick items maximizing value under a weight limit",
		ProblemType: "combinatorial",
		Objectives:  []string{"maximize total value"},
	}
}

type responseEnvelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer()

	rec := srv.request(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var status models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "evoforge", status.Service)
}

func TestAuthRejectsBadToken(t *testing.T) {
	notebooks := newStubNotebookStore()
	cells := newMemCellStore()
	h := NewHandler(notebooks, services.NewCellService(cells), services.NewChatService(&memChatStore{}), &stubGenerator{}, logging.NewLogger())

	e := echo.New()
	g := e.Group("/api/v1", auth.RequireAuth(auth.NewStaticVerifier("secret", "alice")))
	RegisterHandlers(g, h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+uuid.New().String()+"/cells", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	notebookID := notebooks.addNotebook("alice", testContext())
	req = httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+notebookID+"/cells", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCoordinateAgentsEndpoint(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/coordinate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)

	results := env.Data["results"].(map[string]interface{})
	assert.Len(t, results, 7)
	assert.Equal(t, 7, srv.gen.calls)
	assert.Len(t, srv.cells.cells, 7)
}

func TestCoordinateUnknownNotebook(t *testing.T) {
	srv := newTestServer()

	rec := srv.request(http.MethodPost, "/api/v1/agents/"+uuid.New().String()+"/coordinate", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Notebook not found", env.Message)
	assert.Equal(t, 0, srv.gen.calls, "no generation before ownership check")
}

func TestCoordinateFailureReturnsPartialResults(t *testing.T) {
	srv := newTestServer()
	srv.gen.fail = true
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/coordinate", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "coordination failed")
}

func TestRegenerateCellEndpoint(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())
	require.Equal(t, http.StatusOK,
		srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/coordinate", "").Code)

	rec := srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/regenerate/fitness", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "fitness", env.Data["cell_type"])
	assert.Equal(t, "updated", env.Data["action"])
	assert.Equal(t, float64(2), env.Data["version"])
}

func TestRegenerateCellRejectsUnknownType(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/regenerate/bogus", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Message, "Invalid cell type")
}

func TestCompleteCodeEndpoint(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())
	require.Equal(t, http.StatusOK,
		srv.request(http.MethodPost, "/api/v1/agents/"+notebookID+"/coordinate", "").Code)

	rec := srv.request(http.MethodGet, "/api/v1/agents/"+notebookID+"/complete-code", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	code := env.Data["complete_code"].(string)
	assert.Contains(t, code, "Complete DEAP Algorithm Generated by Multi-Agent System")
	assert.Contains(t, code, "# PROBLEM_ANALYSIS - Generated by problem_analyser")
}

func TestSendChatMessage(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/chat/"+notebookID+"/messages", `{"message":"explain the fitness cell"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	require.Len(t, srv.chat.messages, 2)
	assert.Equal(t, "user", srv.chat.messages[0].Sender)
	assert.Equal(t, "assistant", srv.chat.messages[1].Sender)
	assert.Equal(t, "generated-1", srv.chat.messages[1].Message)
}

func TestSendChatMessageKeepsUserMessageOnAIFailure(t *testing.T) {
	srv := newTestServer()
	srv.gen.fail = true
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/chat/"+notebookID+"/messages", `{"message":"hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, env.Message, "AI response failed")
	assert.Contains(t, env.Data, "ai_error")
	require.Len(t, srv.chat.messages, 1, "user message survives")
	assert.Equal(t, "user", srv.chat.messages[0].Sender)
}

func TestSendChatMessageValidation(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())

	rec := srv.request(http.MethodPost, "/api/v1/chat/"+notebookID+"/messages", `{"message":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProblemDefaultsAndValidation(t *testing.T) {
	srv := newTestServer()

	rec := srv.request(http.MethodPost, "/api/v1/problems", `{"title":"TSP"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "description required")

	rec = srv.request(http.MethodPost, "/api/v1/problems", `{"title":"TSP","description":"shortest tour"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "optimization", env.Data["problem_type"])
	assert.Equal(t, "local-dev", env.Data["user_id"])
}

func TestCreateNotebookRequiresProblem(t *testing.T) {
	srv := newTestServer()

	rec := srv.request(http.MethodPost, "/api/v1/notebooks", `{"name":"nb"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.request(http.MethodPost, "/api/v1/notebooks", `{"problem_id":"`+uuid.New().String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Untitled notebook", env.Data["name"])
}

func TestChatHistoryPaging(t *testing.T) {
	srv := newTestServer()
	notebookID := srv.notebooks.addNotebook("local-dev", testContext())
	for i := 1; i <= 5; i++ {
		srv.chat.messages = append(srv.chat.messages, &models.ChatMessage{
			NotebookID: notebookID,
			Message:    fmt.Sprintf("msg %d", i),
			Sender:     "user",
		})
	}

	rec := srv.request(http.MethodGet, "/api/v1/chat/"+notebookID+"/history?page=2&size=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	messages := env.Data["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, float64(2), env.Data["page"])
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "msg 3", first["message"])
}
