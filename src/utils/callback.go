package utils

import (
	"net/url"
	"strings"

	"louefacile/src/types"
)

// Parameter keys stripped from a redirect URL once the handshake they carry
// has been consumed.
var callbackParamKeys = []string{
	"code",
	"token_hash",
	"type",
	"access_token",
	"refresh_token",
	"expires_at",
	"expires_in",
	"provider_token",
	"provider_refresh_token",
}

var supportedOTPTypes = map[string]bool{
	"signup":       true,
	"invite":       true,
	"magiclink":    true,
	"recovery":     true,
	"email_change": true,
	"email":        true,
}

type fragmentSegment struct {
	prefix string
	params url.Values
}

// splitCallbackURL breaks a redirect URL into its base part and the
// fragment segments after each '#'. A segment carries params when it has a
// '?' query or is itself a bare key=value list.
func splitCallbackURL(raw string) (base string, segments []fragmentSegment) {
	parts := strings.Split(raw, "#")
	base = parts[0]
	for _, part := range parts[1:] {
		seg := fragmentSegment{prefix: part, params: url.Values{}}
		if idx := strings.Index(part, "?"); idx >= 0 {
			seg.prefix = part[:idx]
			if vals, err := url.ParseQuery(part[idx+1:]); err == nil {
				seg.params = vals
			}
		} else if strings.Contains(part, "=") {
			if vals, err := url.ParseQuery(part); err == nil {
				seg.prefix = ""
				seg.params = vals
			}
		}
		segments = append(segments, seg)
	}
	return base, segments
}

// MergeCallbackParams flattens the query string and every fragment segment
// of a redirect URL into one parameter bag. The first value seen for a key
// wins, and query string values are seen before fragment ones.
func MergeCallbackParams(raw string) url.Values {
	merged := url.Values{}
	base, segments := splitCallbackURL(raw)
	if u, err := url.Parse(base); err == nil {
		for k, vs := range u.Query() {
			if _, seen := merged[k]; len(vs) > 0 && !seen {
				merged.Set(k, vs[0])
			}
		}
	}
	for _, seg := range segments {
		for k, vs := range seg.params {
			if _, seen := merged[k]; len(vs) > 0 && !seen {
				merged.Set(k, vs[0])
			}
		}
	}
	return merged
}

// ClassifyCallback decides which handshake flavor the merged parameters
// describe. Priority: authorization code, then email OTP, then a raw token
// pair. An OTP with an unsupported type is an error, not a no-op.
func ClassifyCallback(params url.Values) types.CallbackAction {
	if code := params.Get("code"); code != "" {
		return types.CallbackAction{Kind: types.CallbackCode, Code: code}
	}
	tokenHash := params.Get("token_hash")
	otpType := params.Get("type")
	if tokenHash != "" && otpType != "" {
		if !supportedOTPTypes[otpType] {
			return types.CallbackAction{
				Kind:   types.CallbackError,
				Reason: "unsupported verification type: " + otpType,
			}
		}
		return types.CallbackAction{
			Kind:      types.CallbackOTP,
			TokenHash: tokenHash,
			OTPType:   otpType,
		}
	}
	accessToken := params.Get("access_token")
	refreshToken := params.Get("refresh_token")
	if accessToken != "" && refreshToken != "" {
		return types.CallbackAction{
			Kind:         types.CallbackTokenPair,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		}
	}
	if errMsg := params.Get("error_description"); errMsg != "" {
		return types.CallbackAction{Kind: types.CallbackError, Reason: errMsg}
	}
	if errCode := params.Get("error"); errCode != "" {
		return types.CallbackAction{Kind: types.CallbackError, Reason: errCode}
	}
	return types.CallbackAction{Kind: types.CallbackNone}
}

// ScrubCallbackParams removes the consumed auth parameters from the query
// string and from every fragment segment, dropping fragments that end up
// empty. Non-auth parameters and fragment paths survive untouched.
func ScrubCallbackParams(raw string) string {
	base, segments := splitCallbackURL(raw)

	u, err := url.Parse(base)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, k := range callbackParamKeys {
		q.Del(k)
	}
	u.RawQuery = q.Encode()

	out := u.String()
	for _, seg := range segments {
		for _, k := range callbackParamKeys {
			seg.params.Del(k)
		}
		encoded := seg.params.Encode()
		switch {
		case seg.prefix != "" && encoded != "":
			out += "#" + seg.prefix + "?" + encoded
		case seg.prefix != "":
			out += "#" + seg.prefix
		case encoded != "":
			out += "#" + encoded
		}
	}
	return out
}
