package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"prajavaradhi-be/controllers"
	"prajavaradhi-be/middlewares"
	"prajavaradhi-be/store/storetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newStubCounter() *stubCounter {
	return &stubCounter{counts: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (s *stubCounter) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func (s *stubCounter) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[key] = ttl
	return nil
}

func (s *stubCounter) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key], nil
}

// setupApp registers the real route tree against in-memory stores and a
// stub quota counter.
func setupApp(t *testing.T, issueLimit int) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit")

	users := storetest.NewUsers()
	issues := storetest.NewIssues()
	controllers.Init(users, issues)
	middlewares.Init(users)

	r := gin.New()
	AuthRoutes(r)
	IssueRoutes(r, newStubCounter(), issueLimit)
	return r
}

func request(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, r *gin.Engine, email, phone string) string {
	t.Helper()

	w := request(t, r, "POST", "/api/auth/signup", "", gin.H{
		"name":     "Ravi Kumar",
		"email":    email,
		"phone":    phone,
		"password": "secret123",
		"district": "Guntur",
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["token"].(string)
}

func reportIssue(t *testing.T, r *gin.Engine, token string) *httptest.ResponseRecorder {
	t.Helper()
	return request(t, r, "POST", "/api/issues", token, gin.H{
		"district": "Guntur",
		"category": "Roads",
		"title":    "Pothole near the bus stand",
		"location": "Main road, Guntur",
		"details":  "Deep pothole causing accidents during rains.",
	})
}

func TestIssueCreationEnforcesDailyLimit(t *testing.T) {
	r := setupApp(t, 2)
	token := signup(t, r, "ravi@example.com", "9876543210")

	for i := 0; i < 2; i++ {
		w := reportIssue(t, r, token)
		require.Equal(t, 201, w.Code, w.Body.String())
	}

	w := reportIssue(t, r, token)
	require.Equal(t, 429, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Daily issue limit reached", body["message"])
	assert.Contains(t, body, "retry_after")
}

func TestIssueCreationLimitIsPerUser(t *testing.T) {
	r := setupApp(t, 1)
	first := signup(t, r, "ravi@example.com", "9876543210")
	second := signup(t, r, "sita@example.com", "9876543211")

	require.Equal(t, 201, reportIssue(t, r, first).Code)
	require.Equal(t, 429, reportIssue(t, r, first).Code)

	// the second user's quota is untouched
	require.Equal(t, 201, reportIssue(t, r, second).Code)
}

func TestIssueCreationRequiresToken(t *testing.T) {
	r := setupApp(t, 5)

	w := reportIssue(t, r, "")
	assert.Equal(t, 401, w.Code)
}
