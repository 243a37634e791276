package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/ingest/:queue", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func ingestRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ingest/text_club", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(10, 10))

	w := ingestRequest(router, "192.168.1.1")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 2))

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = ingestRequest(router, "10.0.0.1")
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, last.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("expected an error message in the response, got %q", last.Body.String())
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 1))

	// First client uses up its burst.
	if w := ingestRequest(router, "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("first client: expected %d, got %d", http.StatusOK, w.Code)
	}

	// A different client still has its own budget.
	if w := ingestRequest(router, "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("second client: expected %d, got %d", http.StatusOK, w.Code)
	}
}
