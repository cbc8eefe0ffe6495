package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/si451/creatorconnect/backend/pkg/logger"
)

func requestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/whoami", func(c *gin.Context) {
		ctxID, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.JSON(http.StatusOK, gin.H{
			"request_id": GetRequestID(c),
			"context_id": ctxID,
		})
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	router := requestIDRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/whoami", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	headerID := w.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("Expected X-Request-ID header to be set")
	}

	// The same id is visible to the handler and threaded into the request
	// context for the logger
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["request_id"] != headerID {
		t.Errorf("Handler saw id %q, header carries %q", body["request_id"], headerID)
	}
	if body["context_id"] != headerID {
		t.Errorf("Context carries id %q, header carries %q", body["context_id"], headerID)
	}
}

func TestRequestIDDistinctAcrossRequests(t *testing.T) {
	router := requestIDRouter()

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, httptest.NewRequest("GET", "/whoami", nil))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest("GET", "/whoami", nil))

	id1 := w1.Header().Get("X-Request-ID")
	id2 := w2.Header().Get("X-Request-ID")
	if id1 == "" || id1 == id2 {
		t.Errorf("Expected distinct generated ids, got %q and %q", id1, id2)
	}
}

func TestRequestIDReusesClientID(t *testing.T) {
	router := requestIDRouter()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Request-ID", "client-supplied-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-supplied-42" {
		t.Errorf("Expected client id echoed back, got %q", got)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["context_id"] != "client-supplied-42" {
		t.Errorf("Expected client id in request context, got %q", body["context_id"])
	}
}

func TestGetRequestIDUnset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetRequestID(c); id != "" {
		t.Errorf("Expected empty string without middleware, got %q", id)
	}
}
