package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/licensedesk/internal/authz"
	"github.com/licensedesk/internal/cache"
	"github.com/licensedesk/internal/config"
	adminhandlers "github.com/licensedesk/internal/http/handlers/admin"
	publichandlers "github.com/licensedesk/internal/http/handlers/public"
	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lk"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_rate_limited",
	}
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		MessageKey:    "error.redeem_rate_limited",
	}
	activationRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:activation", redisPrefix),
		WindowSeconds: cfg.Security.ActivationRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ActivationRateLimit.MaxAttempts,
		MessageKey:    "error.activation_rate_limited",
	}
	redeemLimit := RateLimitMiddleware(redisClient, redeemRule, KeyByIP)
	activationLimit := RateLimitMiddleware(redisClient, activationRule, KeyByIPAndIdentifier("identifier"))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（顾客兑换与激活）
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", redeemLimit, publicHandler.GetImageCaptcha)
			public.POST("/redemptions/verify", redeemLimit, publicHandler.VerifyRedemption)
			public.POST("/redemptions", redeemLimit, publicHandler.Redeem)
			public.POST("/redemptions/contact", redeemLimit, publicHandler.RecordContact)
			public.POST("/activations/confirmation", activationLimit, publicHandler.RequestConfirmation)
			public.POST("/activations/replacement", activationLimit, publicHandler.IssueReplacement)
			public.POST("/appeals", redeemLimit, publicHandler.SubmitAppeal)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 会话接口：仅需登录，不参与 RBAC
			session := admin.Group("", JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				session.POST("/logout", adminHandler.AdminLogout)
				session.PUT("/password", adminHandler.ChangeAdminPassword)
			}

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/profile", adminHandler.GetAdminProfile)

				// 密钥库存
				authorized.POST("/license-keys", adminHandler.ImportLicenseKeys)
				authorized.GET("/license-keys/stats", adminHandler.GetLicenseKeyStats)

				// 订单标记
				authorized.PATCH("/orders/:order_id/flags", adminHandler.UpdateOrderFlags)

				// 提前送达申诉
				authorized.POST("/appeals/:id/review", adminHandler.ReviewAppeal)

				// 人工补发
				authorized.GET("/contact-requests", adminHandler.GetContactRequests)
				authorized.POST("/contact-requests/:id/fulfill", adminHandler.FulfillContactRequest)

				// 送达延迟
				authorized.GET("/delivery-delays", adminHandler.GetDeliveryDelays)
				authorized.PUT("/delivery-delays", adminHandler.UpsertDeliveryDelay)

				// getcid 令牌池
				authorized.GET("/getcid-tokens", adminHandler.GetGetcidTokens)
				authorized.POST("/getcid-tokens", adminHandler.AddGetcidToken)
				authorized.PATCH("/getcid-tokens/:id", adminHandler.UpdateGetcidToken)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", healthHandler())

	return r
}

// sessionOnlyAdminRoutes 不受 RBAC 约束的后台路由
var sessionOnlyAdminRoutes = map[string]struct{}{
	"/api/v1/admin/login":    {},
	"/api/v1/admin/logout":   {},
	"/api/v1/admin/password": {},
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if _, skip := sessionOnlyAdminRoutes[item.Path]; skip {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
