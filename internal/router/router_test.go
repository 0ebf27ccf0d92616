package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type stubAdminRepo struct {
	admin *models.Admin
}

func (r *stubAdminRepo) GetByUsername(username string) (*models.Admin, error) {
	if r.admin != nil && r.admin.Username == username {
		return r.admin, nil
	}
	return nil, nil
}

func (r *stubAdminRepo) GetByID(id uint) (*models.Admin, error) {
	if r.admin != nil && r.admin.ID == id {
		return r.admin, nil
	}
	return nil, nil
}

func (r *stubAdminRepo) List() ([]models.Admin, error) {
	if r.admin == nil {
		return nil, nil
	}
	return []models.Admin{*r.admin}, nil
}

func (r *stubAdminRepo) Create(admin *models.Admin) error {
	r.admin = admin
	return nil
}

func (r *stubAdminRepo) UpdateLastLogin(id uint, at time.Time) error {
	return nil
}

func (r *stubAdminRepo) BumpTokenVersion(id uint) (uint64, error) {
	if r.admin == nil || r.admin.ID != id {
		return 0, nil
	}
	r.admin.TokenVersion++
	return r.admin.TokenVersion, nil
}

func (r *stubAdminRepo) UpdatePassword(id uint, hash string) error {
	if r.admin != nil && r.admin.ID == id {
		r.admin.PasswordHash = hash
		r.admin.TokenVersion++
	}
	return nil
}

func signAdminToken(t *testing.T, secret string, adminID uint, version uint64) string {
	t.Helper()
	token, _, err := service.IssueAdminToken(secret, time.Hour, &models.Admin{ID: adminID, Username: "ops", TokenVersion: version})
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func serveWithToken(r *gin.Engine, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return -1
	}
	return resp.StatusCode
}

func TestJWTAuthMiddlewareTokenVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &stubAdminRepo{admin: &models.Admin{ID: 7, Username: "ops", TokenVersion: 3}}
	r := gin.New()
	r.Use(JWTAuthMiddleware("secret", repo))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "admin_id": c.GetUint("admin_id")})
	})

	if code := serveWithToken(r, signAdminToken(t, "secret", 7, 3)); code != 0 {
		t.Fatalf("current token should pass, got %d", code)
	}
	if code := serveWithToken(r, signAdminToken(t, "secret", 7, 2)); code != 401 {
		t.Fatalf("stale token version should be rejected, got %d", code)
	}
	if code := serveWithToken(r, signAdminToken(t, "other", 7, 3)); code != 401 {
		t.Fatalf("foreign signature should be rejected, got %d", code)
	}
	if code := serveWithToken(r, signAdminToken(t, "secret", 99, 0)); code != 401 {
		t.Fatalf("unknown admin should be rejected, got %d", code)
	}
	if code := serveWithToken(r, ""); code != 401 {
		t.Fatalf("missing header should be rejected, got %d", code)
	}

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.JWTClaims{
		AdminID:      7,
		TokenVersion: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign foreign token failed: %v", err)
	}
	if code := serveWithToken(r, foreign); code != 401 {
		t.Fatalf("token without issuer and audience should be rejected, got %d", code)
	}

	if _, err := repo.BumpTokenVersion(7); err != nil {
		t.Fatalf("bump token version failed: %v", err)
	}
	if code := serveWithToken(r, signAdminToken(t, "secret", 7, 3)); code != 401 {
		t.Fatalf("token issued before logout should be rejected, got %d", code)
	}
}

func TestBuildAdminPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	noop := func(c *gin.Context) {}
	r := gin.New()
	r.POST("/api/v1/admin/login", noop)
	r.POST("/api/v1/admin/logout", noop)
	r.PUT("/api/v1/admin/password", noop)
	r.GET("/api/v1/admin/license-keys/stats", noop)
	r.POST("/api/v1/admin/license-keys", noop)
	r.POST("/api/v1/admin/appeals/:id/review", noop)
	r.GET("/api/v1/admin/authz/roles", noop)
	r.POST("/api/v1/public/redemptions", noop)

	items := buildAdminPermissionCatalog(r)
	if len(items) != 4 {
		t.Fatalf("catalog size want 4 got %d: %+v", len(items), items)
	}
	modules := map[string]int{}
	for _, item := range items {
		modules[item.Module]++
		if item.Object == "/admin/login" || item.Object == "/admin/logout" || item.Object == "/admin/password" {
			t.Fatalf("session routes should be excluded: %s", item.Object)
		}
	}
	if modules["license-keys"] != 2 || modules["appeals"] != 1 || modules["authz"] != 1 {
		t.Fatalf("unexpected module grouping: %+v", modules)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Module > items[i].Module {
			t.Fatalf("catalog should be sorted by module: %+v", items)
		}
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                            "system",
		"/admin":                      "admin",
		"/admin/contact-requests/:id": "contact-requests",
		"/admin/authz/roles/:role":    "authz",
		"/health":                     "health",
		"/admin/delivery-delays":      "delivery-delays",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module for %q want %s got %s", object, want, got)
		}
	}
}
