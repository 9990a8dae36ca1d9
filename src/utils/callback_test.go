package utils

import (
	"louefacile/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeCallbackParamsQueryOnly(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/auth/callback?code=abc")
	assert.Equal(t, "abc", params.Get("code"))
}

func TestMergeCallbackParamsQueryWinsOverFragment(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?code=fromquery#code=fromfragment&state=xyz")
	assert.Equal(t, "fromquery", params.Get("code"))
	assert.Equal(t, "xyz", params.Get("state"))
}

func TestMergeCallbackParamsFragmentRouter(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/#/auth?access_token=X&refresh_token=Y&type=bearer")
	assert.Equal(t, "X", params.Get("access_token"))
	assert.Equal(t, "Y", params.Get("refresh_token"))
	assert.Equal(t, "bearer", params.Get("type"))
}

func TestMergeCallbackParamsEmptyFirstValueSticks(t *testing.T) {
	// an empty value in the query is still the first seen, a fragment
	// must not replace it
	params := MergeCallbackParams("https://app.example.com/?code=#code=fromfragment")
	_, present := params["code"]
	assert.True(t, present)
	assert.Equal(t, "", params.Get("code"))
}

func TestClassifyCallbackCode(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?code=abc")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackCode, action.Kind)
	assert.Equal(t, "abc", action.Code)
}

func TestClassifyCallbackOTP(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?token_hash=h1&type=magiclink")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackOTP, action.Kind)
	assert.Equal(t, "h1", action.TokenHash)
	assert.Equal(t, "magiclink", action.OTPType)
}

func TestClassifyCallbackUnsupportedOTPType(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?token_hash=h1&type=sms")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackError, action.Kind)
	assert.Contains(t, action.Reason, "sms")
}

func TestClassifyCallbackTokenPair(t *testing.T) {
	// type=bearer alone must not route to the OTP path without a token_hash
	params := MergeCallbackParams("https://app.example.com/#/auth?access_token=X&refresh_token=Y&type=bearer")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackTokenPair, action.Kind)
	assert.Equal(t, "X", action.AccessToken)
	assert.Equal(t, "Y", action.RefreshToken)
}

func TestClassifyCallbackCodeWinsOverTokens(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?code=abc&access_token=X&refresh_token=Y")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackCode, action.Kind)
}

func TestClassifyCallbackNone(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/properties?page=2")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackNone, action.Kind)
}

func TestClassifyCallbackProviderError(t *testing.T) {
	params := MergeCallbackParams("https://app.example.com/?error=access_denied&error_description=user+cancelled")
	action := ClassifyCallback(params)
	assert.Equal(t, types.CallbackError, action.Kind)
	assert.Equal(t, "user cancelled", action.Reason)
}

func TestScrubCallbackParamsQuery(t *testing.T) {
	out := ScrubCallbackParams("https://app.example.com/auth/callback?code=abc&next=home")
	assert.NotContains(t, out, "code=")
	assert.Contains(t, out, "next=home")
}

func TestScrubCallbackParamsFragmentKeepsPath(t *testing.T) {
	out := ScrubCallbackParams("https://app.example.com/#/auth?access_token=X&refresh_token=Y&type=bearer")
	assert.Equal(t, "https://app.example.com/#/auth", out)
}

func TestScrubCallbackParamsDropsEmptyFragment(t *testing.T) {
	out := ScrubCallbackParams("https://app.example.com/#access_token=X&refresh_token=Y")
	assert.Equal(t, "https://app.example.com/", out)
}

func TestScrubCallbackParamsKeepsForeignFragmentParams(t *testing.T) {
	out := ScrubCallbackParams("https://app.example.com/#/auth?access_token=X&state=keepme")
	assert.Equal(t, "https://app.example.com/#/auth?state=keepme", out)
}
