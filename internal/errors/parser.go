package errors

import (
	"errors"
	"net/http"

	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/ikkim/storefront/pkg/coupon"
)

// ErrorInfo is the HTTP rendering of an error.
type ErrorInfo struct {
	Status  int    // HTTP status code
	Code    string // error code (see codes.go)
	Message string // user-facing message
}

// ParseError classifies err into a status, code and message. Unknown errors
// become a generic 500 so internal details never reach the client.
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "An unexpected error occurred",
		}
	}

	switch {
	case errors.Is(err, service.ErrCartEmpty):
		return ErrorInfo{Status: http.StatusBadRequest, Code: CartEmpty, Message: service.MsgCartEmpty}
	case errors.Is(err, service.ErrVariantMissing):
		return ErrorInfo{Status: http.StatusBadRequest, Code: CartVariantMissing, Message: service.MsgVariantMissing}
	case errors.Is(err, service.ErrCouponRejected):
		return ErrorInfo{Status: http.StatusBadRequest, Code: CouponInvalid, Message: service.MsgCouponInvalid}
	case errors.Is(err, service.ErrCouponUnavailable),
		errors.Is(err, coupon.ErrNetworkError),
		errors.Is(err, coupon.ErrInvalidResponse):
		return ErrorInfo{Status: http.StatusBadGateway, Code: CouponUnavailable, Message: service.MsgCouponFailed}
	case errors.Is(err, service.ErrProductNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ProductNotFound, Message: "Product not found"}
	case errors.Is(err, storage.ErrKeyNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: CartItemNotFound, Message: "Item not found"}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: "An unexpected error occurred, please try again later",
	}
}

// ParseAndRespond classifies err and writes the matching error response.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error) ErrorInfo {
	info := ParseError(err)
	c.JSON(info.Status, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
	return info
}
