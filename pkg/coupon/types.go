package coupon

// ApplyRequest is the body posted to the coupon endpoint
type ApplyRequest struct {
	Code string `json:"code"`
}

// ApplyResponse is the coupon endpoint's answer. Discount is in the smallest
// currency unit and only meaningful when Success is true.
type ApplyResponse struct {
	Success  bool  `json:"success"`
	Discount int64 `json:"discount"`
}
