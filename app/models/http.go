package models

// APIError is the error half of the response envelope.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope wraps every data-producing response: exactly one of Data or Error is set.
type Envelope struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

type WaitlistRequest struct {
	Email string `json:"email"`
}

type CheckoutRequest struct {
	Tier SubscriptionTier `json:"tier"`
}
