package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(rate int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RateLimit(rate, time.Minute))
	router.GET("/deals", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"deals": []string{}})
	})
	return router
}

// authedRouter sets the tenant claim before the limiter runs, the way
// AuthMiddleware does on protected routes.
func authedRouter(rate int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(func(c *gin.Context) {
		if tenant := c.GetHeader("X-Test-Tenant"); tenant != "" {
			c.Set("tenant", tenant)
		}
		c.Next()
	})
	router.Use(RateLimit(rate, time.Minute))
	router.GET("/deals", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"deals": []string{}})
	})
	return router
}

func TestRateLimitPerTenant(t *testing.T) {
	router := authedRouter(3)

	// The tenant's budget is shared across client addresses
	addrs := []string{"10.0.0.1:1000", "10.0.0.2:1000", "10.0.0.3:1000"}
	for i, addr := range addrs {
		req := httptest.NewRequest("GET", "/deals", nil)
		req.Header.Set("X-Test-Tenant", "tenant-brandco")
		req.RemoteAddr = addr
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/deals", nil)
	req.Header.Set("X-Test-Tenant", "tenant-brandco")
	req.RemoteAddr = "10.0.0.4:1000"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 from a new address on an exhausted tenant, got %d", w.Code)
	}
}

func TestRateLimitTenantsIndependent(t *testing.T) {
	router := authedRouter(2)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/deals", nil)
		req.Header.Set("X-Test-Tenant", "tenant-brandco")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	// A different tenant from the same address still has budget
	req := httptest.NewRequest("GET", "/deals", nil)
	req.Header.Set("X-Test-Tenant", "tenant-nichefits")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Other tenant should not be rate limited, got %d", w.Code)
	}
}

func TestRateLimitAnonymousFallsBackToIP(t *testing.T) {
	router := rateLimitedRouter(2)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/deals", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	// Exhausted IP is limited, a new IP is not
	req := httptest.NewRequest("GET", "/deals", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 for exhausted IP, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/deals", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Different IP should not be rate limited, got %d", w.Code)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)

	if !limiter.Allow("tenant-brandco") || !limiter.Allow("tenant-brandco") {
		t.Error("Expected first two requests allowed")
	}
	if limiter.Allow("tenant-brandco") {
		t.Error("Expected third request denied")
	}
	if !limiter.Allow("tenant-nichefits") {
		t.Error("Expected a fresh key to be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("tenant-brandco") {
		t.Fatal("Expected first request allowed")
	}
	if limiter.Allow("tenant-brandco") {
		t.Fatal("Expected second request denied within window")
	}

	time.Sleep(20 * time.Millisecond)

	if !limiter.Allow("tenant-brandco") {
		t.Error("Expected budget restored after window reset")
	}
}
