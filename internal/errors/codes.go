package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Renderers map these to their own texts.

const (
	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // malformed body or query
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // empty or unknown id format

	// ==================== Cart (CART_) ====================
	CartItemNotFound   = "CART_ITEM_NOT_FOUND"  // no line with that id
	CartEmpty          = "CART_EMPTY"           // checkout on an empty cart
	CartVariantMissing = "CART_VARIANT_MISSING" // an item lacks color or size
	CartInvalidItem    = "CART_INVALID_ITEM"    // rejected by Add
	CartRemoveDeclined = "CART_REMOVE_DECLINED" // removal not confirmed

	// ==================== Coupon (COUPON_) ====================
	CouponInvalid     = "COUPON_INVALID"     // rejected by the coupon service
	CouponUnavailable = "COUPON_UNAVAILABLE" // transport or response failure

	// ==================== Catalog (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalStorage     = "INTERNAL_STORAGE_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API"
)
