package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"louefacile/src/common"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/lib/mailer"
	"louefacile/src/models"
	"louefacile/src/types"
	"louefacile/src/utils"
	"net/http"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthRegister creates the identity at the provider and its profile row.
func AuthRegister(ctx *gin.Context) (uid *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	params := (&fbauth.UserToCreate{}).
		Email(body.Email).
		Password(body.Password).
		DisplayName(body.Name)
	user, err := auth.CreateUser(context.Background(), params)
	if err != nil {
		log.Printf("error from Firebase: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}

	if _, err := common.EnsureProfile(user.UID, user.Email, body.Name, nil); err != nil {
		log.Printf("Error creating profile for %s: %s\n", user.UID, err.Error())
		return nil, http.StatusBadRequest, err
	}
	return &user.UID, http.StatusOK, nil
}

// AuthLogin runs behind the ID token middleware and trades the verified
// identity for an API session token. Accounts with a registered passkey
// get challenged for it first.
func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	uid := ctx.GetString("uid")
	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	user, err := auth.GetUser(context.Background(), uid)
	if err != nil {
		log.Printf("error from Firebase: %s\n", err.Error())
		return nil, http.StatusNotFound, err
	}

	profile, err := common.EnsureProfile(uid, user.Email, user.DisplayName, nil)
	if err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}

	rd := lib.GetRedisClient()
	if config.PasskeyEnabled() {
		if err := utils.GetCredentials(profile); err != nil {
			log.Printf("Could not retrieve credentials for user [%s]: %s\n", uid, err.Error())
			return nil, http.StatusBadRequest, err
		}
		if ctx.Request.Header.Get("origin") != "app:mobile" && len(profile.Credentials) > 0 {
			flowId := uuid.NewString()
			bNonce := make([]byte, 32)
			rand.Read(bNonce)
			secret, _ := hex.DecodeString(config.API_SECRET)
			nonce := hex.EncodeToString(bNonce)
			enc, err := utils.EncryptMessage(secret, nonce)
			if err != nil {
				log.Printf("Error encrypting message: %s\n", err.Error())
				return nil, http.StatusInternalServerError, err
			}
			exp := 5 * time.Minute
			rd.JSONSet(ctx, fmt.Sprintf("%s:mfa_state", uid), "$", &map[string]any{
				"nonce":     enc,
				"state":     "pending",
				"flow_id":   flowId,
				"user_id":   uid,
				"timestamp": time.Now().UnixMilli(),
			})
			rd.Expire(ctx, fmt.Sprintf("%s:mfa_state", uid), exp)
			ctx.Header("X-Authenticate-MFA", "true")
			ctx.Header("X-MFA-Flow-ID", flowId)
			ctx.Header("X-MFA-Challenge", nonce)
			log.Println("Credentials found: initializing secondary auth")
			return nil, http.StatusUnauthorized, nil
		}
	}

	jwt, err := utils.GenerateJWT(user.Email, uid, profile.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	if _, err := rd.JSONSet(ctx, fmt.Sprintf("%s:user", uid), "$", profile).Result(); err != nil {
		log.Printf("[redis] Error updating user cache: %s\n", err.Error())
	}
	val := rd.JSONGet(context.Background(), fmt.Sprintf("%s:fcm", uid), "$.token").Val()
	if val != "" {
		fcm, _ := lib.GetFirebaseMessaging()
		fcm.SubscribeToTopic(ctx, []string{val}, "Notifications")
	}
	return &jwt, http.StatusOK, nil
}

type AuthCallbackResult struct {
	Handled bool                `json:"handled"`
	URL     string              `json:"url"`
	Token   string              `json:"token,omitempty"`
	User    *types.User         `json:"user,omitempty"`
	Result  types.ServiceResult `json:"result"`
}

// AuthCallback reconciles a redirect URL from an external auth round trip.
// It completes at most one session exchange, then hands back the URL with
// the consumed parameters scrubbed so the client can replace its location.
func AuthCallback(ctx *gin.Context) (*AuthCallbackResult, int, error) {
	var body types.AuthCallbackRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	params := utils.MergeCallbackParams(body.URL)
	action := utils.ClassifyCallback(params)

	if action.Kind == types.CallbackNone {
		// nothing to reconcile, the URL stays as it came
		return &AuthCallbackResult{
			Handled: false,
			URL:     body.URL,
			Result:  types.ServiceResult{OK: true},
		}, http.StatusOK, nil
	}

	scrubbed := utils.ScrubCallbackParams(body.URL)
	res := &AuthCallbackResult{Handled: true, URL: scrubbed}

	uid, err := resolveCallbackIdentity(ctx, action)
	if err != nil {
		res.Result = types.ServiceResult{Error: err.Error()}
		return res, http.StatusOK, nil
	}

	auth, err := lib.GetFirebaseAuth()
	if err != nil {
		res.Result = types.ServiceResult{Error: err.Error()}
		return res, http.StatusOK, nil
	}
	identity, err := auth.GetUser(ctx, uid)
	if err != nil {
		res.Result = types.ServiceResult{Error: err.Error()}
		return res, http.StatusOK, nil
	}

	profile, err := common.EnsureProfile(uid, identity.Email, identity.DisplayName, nil)
	if err != nil {
		log.Printf("Error ensuring profile for %s: %s\n", uid, err.Error())
	}
	user := common.MapUser(uid, identity.Email, profile)

	role := "tenant"
	if profile != nil {
		role = profile.Role
	}
	jwt, err := utils.GenerateJWT(identity.Email, uid, role)
	if err != nil {
		res.Result = types.ServiceResult{Error: err.Error()}
		return res, http.StatusOK, nil
	}
	res.Token = jwt
	res.User = &user
	res.Result = types.ServiceResult{OK: true}
	return res, http.StatusOK, nil
}

// resolveCallbackIdentity turns a classified callback into the uid it
// authenticates, consuming whatever one-time artifact it carries.
func resolveCallbackIdentity(ctx context.Context, action types.CallbackAction) (string, error) {
	switch action.Kind {
	case types.CallbackCode:
		rd := lib.GetRedisClient()
		uid, err := rd.GetDel(ctx, fmt.Sprintf("auth:code:%s", action.Code)).Result()
		if err != nil || uid == "" {
			return "", errors.New("invalid or expired authorization code")
		}
		return uid, nil

	case types.CallbackOTP:
		conn := db.GetDb()
		var uid string
		err := conn.Transaction(func(tx *gorm.DB) error {
			var tok models.Token
			if err := tx.
				Where(&models.Token{Type: models.TokenTypeOTP, TokenName: action.TokenHash, Status: "pending"}).
				First(&tok).
				Error; err != nil {
				return errors.New("invalid or expired verification token")
			}
			if time.Now().After(tok.ExpiresAt) {
				return errors.New("verification token expired")
			}
			if err := tx.
				Model(&models.Token{}).
				Where(&models.Token{ID: tok.ID}).
				Update("status", "used").
				Error; err != nil {
				return err
			}
			uid = tok.RequestedBy
			return nil
		})
		return uid, err

	case types.CallbackTokenPair:
		fauth, err := lib.GetFirebaseAuth()
		if err != nil {
			return "", err
		}
		token, err := fauth.VerifyIDToken(ctx, action.AccessToken)
		if err != nil {
			return "", fmt.Errorf("failed to verify access token: %s", err.Error())
		}
		return token.UID, nil

	case types.CallbackError:
		return "", errors.New(action.Reason)
	}
	return "", errors.New("unrecognized callback")
}

// AuthRequestOTP mints a pending magic-link token for the account and
// mails the callback URL carrying its hash. The link lands back in
// AuthCallback, which trades the hash for a session.
func AuthRequestOTP(ctx *gin.Context) (status int, err error) {
	var body types.LoginUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}

	conn := db.GetDb()
	var profile models.Profile
	if err := conn.Where(&models.Profile{Email: body.Email}).First(&profile).Error; err != nil {
		return http.StatusBadRequest, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return http.StatusInternalServerError, err
	}
	tokenHash := hex.EncodeToString(buf)
	tok := models.Token{
		RequestedBy:   profile.UID,
		RequesterType: "profile",
		Type:          models.TokenTypeOTP,
		TokenName:     tokenHash,
		TTL:           600,
		TokenValue: types.JSONB{
			"otp_type": "magiclink",
		},
	}
	if err := conn.Create(&tok).Error; err != nil {
		log.Printf("Could not create login token for %s: %s\n", profile.UID, err.Error())
		return http.StatusInternalServerError, err
	}

	link := fmt.Sprintf("%s/auth/callback?token_hash=%s&type=magiclink", config.APP_HOST, tokenHash)
	go func() {
		if err := mailer.NewMailerMessage(&lib.SendMailInput{
			From:     config.SMTP_FROM,
			FromName: "LoueFacile",
			Subject:  "Votre lien de connexion",
			To:       []string{profile.Email},
			Body:     fmt.Sprintf("Connectez-vous avec ce lien: %s\nIl expire dans 10 minutes.", link),
		}); err != nil {
			log.Printf("Could not send login link to %s: %s\n", profile.Email, err.Error())
		}
	}()
	return http.StatusOK, nil
}

// AuthIssueCode hands the verified caller a short lived exchange code
// another client can trade for a session through the callback route.
func AuthIssueCode(ctx *gin.Context) (code *string, status int, err error) {
	uid := ctx.GetString("uid")
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	c := hex.EncodeToString(buf)
	rd := lib.GetRedisClient()
	if err := rd.SetEx(ctx, fmt.Sprintf("auth:code:%s", c), uid, 5*time.Minute).Err(); err != nil {
		log.Printf("[redis] Could not store exchange code for %s: %s\n", uid, err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &c, http.StatusOK, nil
}

// AuthLogout drops the cached session material for the caller.
func AuthLogout(ctx *gin.Context) (int, error) {
	uid := ctx.GetString("uid")
	rd := lib.GetRedisClient()
	if err := rd.Del(context.Background(),
		fmt.Sprintf("%s:token", uid),
		fmt.Sprintf("%s:user", uid),
		uid,
	).Err(); err != nil {
		log.Printf("[redis] Error clearing session for %s: %s\n", uid, err.Error())
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}
