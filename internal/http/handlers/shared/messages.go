package shared

// messages 错误消息表，未登记的键原样返回
var messages = map[string]string{
	"error.bad_request":                    "Invalid request parameters",
	"error.unauthorized":                   "Unauthorized",
	"error.forbidden":                      "Permission denied",
	"error.too_many_requests":              "Too many requests, please try again later",
	"error.internal":                       "Internal server error",
	"error.admin_id_invalid":               "Invalid admin id",
	"error.admin_login_invalid":            "Invalid username or password",
	"error.login_failed":                   "Login failed",
	"error.token_invalid":                  "Invalid or expired token",
	"error.identifier_invalid":             "Enter an order number or redemption code",
	"error.order_not_found":                "Order not found",
	"error.order_blocked":                  "This order cannot be redeemed",
	"error.order_pending":                  "This order is not ready for redemption yet",
	"error.order_not_redeemed":             "Redeem this order before requesting phone activation or a replacement",
	"error.inventory_exhausted":            "Keys are temporarily out of stock, leave your contact details and we will send them",
	"error.quota_exhausted":                "All phone activation attempts for this order have been used",
	"error.installation_id_invalid":        "Installation ID must contain 54 or 63 digits",
	"error.installation_id_rejected":       "The installation ID was rejected",
	"error.activation_closed":              "Phone activation is closed for this order",
	"error.activation_unavailable":         "Activation service is temporarily unavailable",
	"error.replacement_offered":            "A replacement key is available for this order",
	"error.replacement_not_offered":        "A replacement key is not available for this order",
	"error.product_route_unsupported":      "This product is not delivered as a license key",
	"error.configuration":                  "This product is misconfigured, please contact support",
	"error.claim_conflict":                 "The order is being processed, please retry",
	"error.contact_invalid":                "Provide a valid email address or phone number",
	"error.contact_reason_invalid":         "Invalid contact reason",
	"error.contact_request_not_found":      "Contact request not found",
	"error.contact_request_fulfilled":      "Contact request already fulfilled",
	"error.contact_request_closed":         "Contact request closed because the order is no longer eligible",
	"error.contact_request_failed":         "Failed to record contact details",
	"error.appeal_not_allowed":             "An early delivery appeal is not available for this order",
	"error.appeal_not_found":               "Appeal not found",
	"error.appeal_already_reviewed":        "Appeal already reviewed",
	"error.appeal_invalid":                 "Provide a valid proof URL",
	"error.license_key_import_invalid":     "Invalid license key import",
	"error.product_not_found":              "Product not found",
	"error.delivery_delay_invalid":         "Delivery delay must be between 0 and 1440 hours",
	"error.order_flags_invalid":            "Invalid order flags",
	"error.queue_unavailable":              "Task queue unavailable",
	"error.redeem_failed":                  "Redemption failed",
	"error.verify_failed":                  "Verification failed",
	"error.activation_failed":              "Activation failed",
	"error.replacement_failed":             "Replacement failed",
	"error.appeal_submit_failed":           "Failed to submit appeal",
	"error.appeal_review_failed":           "Failed to review appeal",
	"error.license_key_import_failed":      "Failed to import license keys",
	"error.license_key_stats_failed":       "Failed to load license key stats",
	"error.order_update_failed":            "Failed to update order",
	"error.contact_request_fetch_failed":   "Failed to load contact requests",
	"error.contact_request_fulfill_failed": "Failed to fulfill contact request",
	"error.delivery_delay_fetch_failed":    "Failed to load delivery delays",
	"error.delivery_delay_save_failed":     "Failed to save delivery delay",
	"error.getcid_token_invalid":           "Provide a getcid token of at least 8 characters",
	"error.getcid_token_rejected":          "The getcid token failed verification",
	"error.getcid_token_not_found":         "Getcid token not found",
	"error.getcid_token_fetch_failed":      "Failed to load getcid tokens",
	"error.getcid_token_save_failed":       "Failed to save getcid token",
	"error.authz_fetch_failed":             "Failed to load permissions",
	"error.authz_update_failed":            "Failed to update permissions",
	"error.authz_role_unknown":             "Role does not exist",
	"error.authz_role_immutable":           "Built-in roles cannot be changed",
	"error.authz_policy_invalid":           "Policies must target an /admin route with GET, POST, PUT, PATCH, DELETE or *",
	"error.admin_not_found":                "Admin not found",
	"error.logout_failed":                  "Failed to log out",
	"error.admin_password_invalid":         "Current password is incorrect",
	"error.password_too_weak":              "New password must be at least 10 characters",
	"error.password_change_failed":         "Failed to change password",
	"error.jwt_secret_missing":             "Authentication is not configured",
	"error.auth_header_missing":            "Missing Authorization header",
	"error.auth_header_invalid":            "Invalid Authorization header",
	"error.token_revoked":                  "Token has been revoked, please log in again",
	"error.captcha_required":               "Enter the captcha code",
	"error.captcha_invalid":                "Captcha code is incorrect or expired",
	"error.captcha_unavailable":            "Captcha is not enabled",
	"error.captcha_generate_failed":        "Failed to generate captcha",
	"error.captcha_verify_failed":          "Failed to verify captcha",
	"error.rate_limit_unavailable":         "Rate limiter unavailable",
	"error.rate_limited":                   "Too many requests, retry in %d seconds",
	"error.login_rate_limited":             "Too many login attempts, retry in %d seconds",
	"error.redeem_rate_limited":            "Too many redemption attempts, retry in %d seconds",
	"error.activation_rate_limited":        "Too many activation attempts, retry in %d seconds",
}

// Message 查找消息键对应的提示文本
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
