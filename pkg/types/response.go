package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// StorefrontError is the flat error body served by the storefront endpoints
// under /api (getProducts, chat, ...).
type StorefrontError struct {
	Error string `json:"error"`
}
