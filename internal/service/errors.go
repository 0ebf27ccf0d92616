package service

import (
	"errors"
	"fmt"
)

// 兑换与激活业务错误
var (
	ErrIdentifierInvalid       = errors.New("order identifier invalid")
	ErrOrderNotFound           = errors.New("order not found")
	ErrOrderBlocked            = errors.New("order blocked")
	ErrOrderPending            = errors.New("order pending")
	ErrOrderNotRedeemed        = errors.New("order not redeemed")
	ErrInventoryExhausted      = errors.New("license inventory exhausted")
	ErrQuotaExhausted          = errors.New("activation quota exhausted")
	ErrTransformationRejected  = errors.New("installation id rejected")
	ErrInstallationIDInvalid   = errors.New("installation id invalid")
	ErrActivationClosed        = errors.New("activation channel closed")
	ErrActivationUnavailable   = errors.New("activation authority unavailable")
	ErrReplacementNotOffered   = errors.New("replacement not offered")
	ErrReplacementOffered      = errors.New("replacement offered")
	ErrProductRouteUnsupported = errors.New("product route unsupported")
	ErrClaimConflict           = errors.New("license claim conflict")
)

// 目录配置错误，统一包装 ErrConfiguration
var (
	ErrConfiguration    = errors.New("catalog configuration error")
	ErrProductNotFound  = fmt.Errorf("%w: product not found", ErrConfiguration)
	ErrCatalogCycle     = fmt.Errorf("%w: combo component cycle", ErrConfiguration)
	ErrProductInvalid   = fmt.Errorf("%w: product definition invalid", ErrConfiguration)
	ErrExchangerMissing = fmt.Errorf("%w: activation exchanger missing", ErrConfiguration)
)

// 后台与辅助流程错误
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidToken            = errors.New("invalid token")
	ErrContactInvalid          = errors.New("contact details invalid")
	ErrContactReasonInvalid    = errors.New("contact reason invalid")
	ErrContactRequestNotFound  = errors.New("contact request not found")
	ErrContactRequestFulfilled = errors.New("contact request already fulfilled")
	ErrContactRequestClosed    = errors.New("contact request closed")
	ErrAppealNotAllowed        = errors.New("early appeal not allowed")
	ErrAppealNotFound          = errors.New("early appeal not found")
	ErrAppealAlreadyReviewed   = errors.New("early appeal already reviewed")
	ErrAppealInvalid           = errors.New("early appeal invalid")
	ErrLicenseKeyImportInvalid = errors.New("license key import invalid")
	ErrDeliveryDelayInvalid    = errors.New("delivery delay invalid")
	ErrOrderFlagsInvalid       = errors.New("order flags invalid")
	ErrQueueUnavailable        = errors.New("queue unavailable")
	ErrGetcidTokenInvalid      = errors.New("getcid token invalid")
	ErrGetcidTokenRejected     = errors.New("getcid token rejected")
	ErrGetcidTokenNotFound     = errors.New("getcid token not found")
	ErrGetcidTokenExhausted    = errors.New("getcid token pool exhausted")
	ErrCaptchaRequired         = errors.New("captcha required")
	ErrCaptchaInvalid          = errors.New("captcha invalid")
	ErrCaptchaDisabled         = errors.New("captcha disabled")
)
