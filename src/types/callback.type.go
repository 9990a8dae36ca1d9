package types

// CallbackKind tells the session exchange which credential shape the
// provider redirect carried.
type CallbackKind string

const (
	CallbackNone      CallbackKind = "none"
	CallbackCode      CallbackKind = "code"
	CallbackOTP       CallbackKind = "otp"
	CallbackTokenPair CallbackKind = "token_pair"
	CallbackError     CallbackKind = "error"
)

// CallbackAction is the classified outcome of an auth redirect URL.
// Exactly one of the credential groups is populated, matching Kind.
type CallbackAction struct {
	Kind CallbackKind `json:"kind"`

	Code string `json:"code,omitempty"`

	TokenHash string `json:"token_hash,omitempty"`
	OTPType   string `json:"otp_type,omitempty"`

	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	Reason string `json:"reason,omitempty"`
}

type AuthCallbackRequestBody struct {
	URL string `json:"url" binding:"required"`
}
