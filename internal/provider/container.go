package provider

import (
	"time"

	"github.com/licensedesk/internal/activation"
	"github.com/licensedesk/internal/activation/getcid"
	"github.com/licensedesk/internal/authz"
	"github.com/licensedesk/internal/cache"
	"github.com/licensedesk/internal/config"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/queue"
	"github.com/licensedesk/internal/repository"
	"github.com/licensedesk/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Exchangers  *activation.Registry

	// Repositories
	AdminRepo              repository.AdminRepository
	OrderRepo              repository.OrderRepository
	ProductRepo            repository.ProductRepository
	LicenseKeyRepo         repository.LicenseKeyRepository
	ActivationAttemptRepo  repository.ActivationAttemptRepository
	ReplacementRequestRepo repository.ReplacementRequestRepository
	ContactRequestRepo     repository.ContactRequestRepository
	DeliveryDelayRepo      repository.DeliveryDelayRepository
	EarlyAppealRepo        repository.EarlyAppealRepository
	GetcidTokenRepo        repository.GetcidTokenRepository

	// Services
	AuthzService         *authz.Service
	AuthService          *service.AuthService
	CatalogService       *service.CatalogService
	DeliveryDelayService *service.DeliveryDelayService
	EligibilityService   *service.EligibilityService
	AllocationService    *service.AllocationService
	RedemptionService    *service.RedemptionService
	ActivationService    *service.ActivationService
	ContactService       *service.ContactService
	AppealService        *service.AppealService
	OrderService         *service.OrderService
	LicenseKeyService    *service.LicenseKeyService
	GetcidTokenService   *service.GetcidTokenService
	CaptchaService       *service.CaptchaService

	getcidClient *getcid.Client
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化激活通道
	c.initExchangers()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.LicenseKeyRepo = repository.NewLicenseKeyRepository(db)
	c.ActivationAttemptRepo = repository.NewActivationAttemptRepository(db)
	c.ReplacementRequestRepo = repository.NewReplacementRequestRepository(db)
	c.ContactRequestRepo = repository.NewContactRequestRepository(db)
	c.DeliveryDelayRepo = repository.NewDeliveryDelayRepository(db)
	c.EarlyAppealRepo = repository.NewEarlyAppealRepository(db)
	c.GetcidTokenRepo = repository.NewGetcidTokenRepository(db)
}

func (c *Container) initExchangers() {
	c.Exchangers = activation.NewRegistry(nil)
	cidCfg := c.Config.Activation.GetCID
	if !cidCfg.Enabled {
		logger.Warnw("provider_getcid_disabled")
		return
	}
	client, err := getcid.New(getcid.Options{
		BaseURL:       cidCfg.BaseURL,
		Token:         cidCfg.Token,
		Tokens:        service.NewGetcidTokenPool(c.GetcidTokenRepo),
		Timeout:       time.Duration(cidCfg.TimeoutSeconds) * time.Second,
		RatePerSecond: cidCfg.RatePerSecond,
		Burst:         cidCfg.Burst,
	})
	if err != nil {
		logger.Errorw("provider_init_getcid_failed", "error", err)
		return
	}
	c.Exchangers.Register("", client)
	c.getcidClient = client
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	redemptionCfg := c.Config.Redemption
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo)
	c.DeliveryDelayService = service.NewDeliveryDelayService(
		c.DeliveryDelayRepo,
		redemptionCfg.DefaultDeliveryDelayHours,
		time.Duration(redemptionCfg.DeliveryDelayCacheSeconds)*time.Second,
	)
	c.EligibilityService = service.NewEligibilityService(c.OrderRepo, c.CatalogService, c.DeliveryDelayService)
	c.AllocationService = service.NewAllocationService(c.OrderRepo, c.LicenseKeyRepo, c.CatalogService, redemptionCfg.ClaimRetries)
	c.RedemptionService = service.NewRedemptionService(c.EligibilityService, c.AllocationService)
	c.ActivationService = service.NewActivationService(
		c.OrderRepo,
		c.LicenseKeyRepo,
		c.ActivationAttemptRepo,
		c.ReplacementRequestRepo,
		c.EligibilityService,
		c.CatalogService,
		c.Exchangers,
	)
	c.ContactService = service.NewContactService(c.OrderRepo, c.ContactRequestRepo, c.EligibilityService, c.AllocationService, c.ActivationService, c.QueueClient)
	c.AppealService = service.NewAppealService(c.OrderRepo, c.EarlyAppealRepo, c.EligibilityService)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.LicenseKeyService = service.NewLicenseKeyService(c.LicenseKeyRepo, c.ProductRepo)

	var verifier service.GetcidTokenVerifier
	if c.getcidClient != nil {
		verifier = c.getcidClient
	}
	c.GetcidTokenService = service.NewGetcidTokenService(c.GetcidTokenRepo, verifier)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
}
