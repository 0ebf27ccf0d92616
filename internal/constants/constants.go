package constants

// 履约方式常量
const (
	FulfillmentTypeSellerSelfShip = "seller_self_ship"
	FulfillmentTypeSellerEasyShip = "seller_easy_ship"
	FulfillmentTypeAmazonFBA      = "amazon_fba"
	FulfillmentTypeDigital        = "digital"
)

// 平台订单履约状态常量
const (
	MarketplaceStatusPending   = "Pending"
	MarketplaceStatusUnshipped = "Unshipped"
	MarketplaceStatusShipped   = "Shipped"
	MarketplaceStatusCanceled  = "Canceled"
)

// 后台发货状态常量
const (
	ShipmentStatusPending   = "PENDING"
	ShipmentStatusShipped   = "SHIPPED"
	ShipmentStatusDelivered = "DELIVERED"
)

// 提前送达申诉状态常量
const (
	AppealStatusPending  = "PENDING"
	AppealStatusApproved = "APPROVED"
	AppealStatusRejected = "REJECTED"
)

// 商品类型常量（决定兑换路由）
const (
	ProductKindLicenseKey        = "license_key"
	ProductKindCombo             = "combo"
	ProductKindSubscription      = "subscription"
	ProductKindEnterpriseAccount = "enterprise_account"
	ProductKindCAD               = "cad"
	ProductKindPreactivated      = "preactivated"
)

// 兑换资格状态常量
const (
	EligibilityEligible        = "eligible"
	EligibilityAlreadyRedeemed = "already_redeemed"
	EligibilityBlocked         = "blocked"
	EligibilityPending         = "pending"
	EligibilityNotFound        = "not_found"
)

// 兑换资格原因常量
const (
	EligibilityReasonFraudBlocked             = "fraud_blocked"
	EligibilityReasonRefunded                 = "refunded"
	EligibilityReasonCancelled                = "cancelled"
	EligibilityReasonProductUnresolved        = "product_unresolved"
	EligibilityReasonSubscriptionProvisioning = "subscription_provisioning"
	EligibilityReasonAwaitingShipment         = "awaiting_shipment"
	EligibilityReasonDeliveryWindow           = "delivery_window"
	EligibilityReasonAppealUnderReview        = "appeal_under_review"
)

// 兑换引导常量
const (
	GuidanceFeedbackRemoval = "feedback_removal"
	GuidanceContactSupport  = "contact_support"
	GuidanceEarlyAppeal     = "early_appeal"
	GuidanceWaitForDelivery = "wait_for_delivery"
)

// 兑换结果状态常量
const (
	RedemptionStatusRedeemed        = "redeemed"
	RedemptionStatusAlreadyRedeemed = "already_redeemed"
)

// 电话激活通道状态常量
const (
	ActivationStateNotStarted         = "not_started"
	ActivationStateInProgress         = "in_progress"
	ActivationStateConfirmed          = "confirmed"
	ActivationStateQuotaExhausted     = "quota_exhausted"
	ActivationStateReplacementOffered = "replacement_offered"
	ActivationStateReplacementIssued  = "replacement_issued"
)

// 替换申请常量
const (
	ReplacementSourceInstant  = "instant"
	ReplacementStatusApproved = "approved"
)

// 人工补发登记常量
const (
	ContactReasonInventoryExhausted     = "inventory_exhausted"
	ContactReasonReplacementUnavailable = "replacement_unavailable"
	ContactStatusPending                = "pending"
	ContactStatusFulfilled              = "fulfilled"
	ContactStatusClosed                 = "closed"
)

// 验证码场景
const (
	CaptchaSceneContact = "contact"
	CaptchaSceneAppeal  = "appeal"
)

// DeliveryDelayDefaultState 默认送达延迟配置行
const DeliveryDelayDefaultState = "DEFAULT"

// 队列与任务常量
const (
	QueueDefault              = "default"
	TaskContactRequestCreated = "contact_request:created"
	TaskContactRequestFulfill = "contact_request:fulfill"
)
