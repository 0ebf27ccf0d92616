package public

import (
	"errors"

	"github.com/licensedesk/internal/http/response"
	"github.com/licensedesk/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
	logged bool
}

func respondWithMappedError(c *gin.Context, err error, data interface{}, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			var cause error
			if rule.logged {
				cause = err
			}
			respondErrorWithData(c, rule.code, rule.key, data, cause)
			return
		}
	}
	respondErrorWithData(c, fallbackCode, fallbackKey, data, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderLookupErrorRules = []mappedHandlerError{
	{target: service.ErrIdentifierInvalid, code: response.CodeBadRequest, key: "error.identifier_invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderBlocked, code: response.CodeForbidden, key: "error.order_blocked"},
	{target: service.ErrOrderPending, code: response.CodeConflict, key: "error.order_pending"},
	{target: service.ErrConfiguration, code: response.CodeInternal, key: "error.configuration", logged: true},
}

var redeemExtraErrorRules = []mappedHandlerError{
	{target: service.ErrInventoryExhausted, code: response.CodeConflict, key: "error.inventory_exhausted"},
	{target: service.ErrClaimConflict, code: response.CodeConflict, key: "error.claim_conflict"},
}

var activationExtraErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotRedeemed, code: response.CodeConflict, key: "error.order_not_redeemed"},
	{target: service.ErrInstallationIDInvalid, code: response.CodeBadRequest, key: "error.installation_id_invalid"},
	{target: service.ErrProductRouteUnsupported, code: response.CodeBadRequest, key: "error.product_route_unsupported"},
	{target: service.ErrQuotaExhausted, code: response.CodeConflict, key: "error.quota_exhausted"},
	{target: service.ErrTransformationRejected, code: response.CodeBadRequest, key: "error.installation_id_rejected"},
	{target: service.ErrActivationClosed, code: response.CodeConflict, key: "error.activation_closed"},
	{target: service.ErrReplacementOffered, code: response.CodeConflict, key: "error.replacement_offered"},
	{target: service.ErrReplacementNotOffered, code: response.CodeConflict, key: "error.replacement_not_offered"},
	{target: service.ErrInventoryExhausted, code: response.CodeConflict, key: "error.inventory_exhausted"},
	{target: service.ErrActivationUnavailable, code: response.CodeUnavailable, key: "error.activation_unavailable"},
}

var contactExtraErrorRules = []mappedHandlerError{
	{target: service.ErrContactInvalid, code: response.CodeBadRequest, key: "error.contact_invalid"},
	{target: service.ErrContactReasonInvalid, code: response.CodeBadRequest, key: "error.contact_reason_invalid"},
}

var appealExtraErrorRules = []mappedHandlerError{
	{target: service.ErrAppealInvalid, code: response.CodeBadRequest, key: "error.appeal_invalid"},
	{target: service.ErrContactInvalid, code: response.CodeBadRequest, key: "error.contact_invalid"},
	{target: service.ErrAppealNotAllowed, code: response.CodeConflict, key: "error.appeal_not_allowed"},
}

func respondVerifyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, orderLookupErrorRules, response.CodeInternal, "error.verify_failed")
}

func respondRedeemError(c *gin.Context, err error, data interface{}) {
	respondWithMappedError(c, err, data, concatMappedHandlerErrors(orderLookupErrorRules, redeemExtraErrorRules), response.CodeInternal, "error.redeem_failed")
}

func respondActivationError(c *gin.Context, err error, data interface{}) {
	respondWithMappedError(c, err, data, concatMappedHandlerErrors(orderLookupErrorRules, activationExtraErrorRules), response.CodeInternal, "error.activation_failed")
}

func respondReplacementError(c *gin.Context, err error, data interface{}) {
	respondWithMappedError(c, err, data, concatMappedHandlerErrors(orderLookupErrorRules, activationExtraErrorRules), response.CodeInternal, "error.replacement_failed")
}

func respondContactError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, concatMappedHandlerErrors(orderLookupErrorRules, contactExtraErrorRules), response.CodeInternal, "error.contact_request_failed")
}

func respondAppealError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, concatMappedHandlerErrors(orderLookupErrorRules, appealExtraErrorRules), response.CodeInternal, "error.appeal_submit_failed")
}
