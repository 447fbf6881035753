package middlewares

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	r := gin.New()
	r.Use(handlers...)
	return r
}

func TestRateLimiterPerIP(t *testing.T) {
	r := newEngine(NewRateLimiter(1, 1).RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestValidateBillStatus(t *testing.T) {
	r := newEngine()
	var seen services.UpdateBillStatusInput
	r.PATCH("/bills/:bill_id/status", ValidateBillStatus(), func(c *gin.Context) {
		seen = c.MustGet(BillStatusInputKey).(services.UpdateBillStatusInput)
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"paid lower case", `{"status":"paid"}`, http.StatusNoContent},
		{"due with customer", `{"status":"DUE","customer_id":3}`, http.StatusNoContent},
		{"missing status", `{}`, http.StatusBadRequest},
		{"pending is not a target", `{"status":"PENDING"}`, http.StatusBadRequest},
		{"negative correction", `{"status":"PAID","corrected_amount":"-1"}`, http.StatusBadRequest},
		{"three decimals", `{"status":"PAID","corrected_amount":"10.005"}`, http.StatusBadRequest},
		{"two decimals", `{"status":"PAID","corrected_amount":"10.05"}`, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("PATCH", "/bills/1/status", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, "PAID", seen.Status)
}

func TestSecurityHeadersAndTimeout(t *testing.T) {
	r := newEngine(SecurityHeaders(), RequestTimeout(time.Second))
	var hasDeadline bool
	r.GET("/x", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.True(t, hasDeadline)
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"http://counter.local"})

	req := httptest.NewRequest("GET", "/ws/floor", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://counter.local")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, OriginChecker(nil)(req))
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORSMiddlewares([]string{"http://counter.local"}))
	r.GET("/devices", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/devices", nil)
	req.Header.Set("Origin", "http://counter.local")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://counter.local", w.Header().Get("Access-Control-Allow-Origin"))
}
