package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBindPageQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query      string
		page, size int
	}{
		{query: "", page: 1, size: 20},
		{query: "page=3&page_size=50", page: 3, size: 50},
		{query: "page=0&page_size=1000", page: 1, size: 100},
		{query: "page=abc&page_size=-1", page: 1, size: 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		page, size := BindPageQuery(c)
		if page != tc.page || size != tc.size {
			t.Fatalf("query %q want (%d,%d) got (%d,%d)", tc.query, tc.page, tc.size, page, size)
		}
	}
}
