package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type outcome struct {
	Status string `json:"status"`
}

func TestErrorWithDataKeepsDataShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		c.Set("request_id", "req-9")
		ErrorWithData(c, CodeForbidden, "blocked", outcome{Status: "blocked"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int     `json:"status_code"`
		RequestID  string  `json:"request_id"`
		Data       outcome `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.StatusCode != CodeForbidden || resp.RequestID != "req-9" || resp.Data.Status != "blocked" {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
}

func TestSuccessWithPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		SuccessWithPage(c, []string{"a"}, NewPagination(2, 20, 41))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp struct {
		StatusCode int        `json:"status_code"`
		Pagination Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.StatusCode != CodeOK || resp.Pagination.TotalPage != 3 || resp.Pagination.Page != 2 {
		t.Fatalf("unexpected page response: %s", w.Body.String())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := WrapError(CodeInternal, "error.internal", "internal error", cause)
	if !errors.Is(err, cause) || err.Error() != "internal error: db down" {
		t.Fatalf("unexpected app error: %v", err)
	}
	if NewPagination(1, 0, 5).TotalPage != 0 {
		t.Fatalf("zero page size should not divide")
	}
}
