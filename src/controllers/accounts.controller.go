package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/lib/mailer"
	"louefacile/src/models"
	"louefacile/src/types"
	"louefacile/src/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func AccountsPasskeyRegisterStart(ctx *gin.Context) (opts *protocol.CredentialCreation, status int, err error) {
	uid := ctx.GetString("uid")
	var profile models.Profile
	conn := db.GetDb()
	if err := conn.Where(&models.Profile{UID: uid}).First(&profile).Error; err != nil {
		return nil, http.StatusBadRequest, err
	}
	wa, err := lib.GetWebAuthn()
	if err != nil {
		log.Printf("Failed to init webauthn: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	opts, ses, err := wa.BeginRegistration(
		&profile,
		webauthn.WithAuthenticatorSelection(wa.Config.AuthenticatorSelection),
	)
	if err != nil {
		log.Printf("Failed to begin registration: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	rd := lib.GetRedisClient()
	_, err = rd.JSONSet(context.Background(), fmt.Sprintf("%s:passkey:reg", uid), "$", ses).Result()
	if err != nil {
		log.Printf("Could not save session: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return opts, http.StatusOK, nil
}

func AccountsPasskeyRegisterFinish(ctx *gin.Context) (status int, err error) {
	uid := ctx.GetString("uid")
	var profile models.Profile
	conn := db.GetDb()
	if err := conn.Where(&models.Profile{UID: uid}).First(&profile).Error; err != nil {
		return http.StatusBadRequest, err
	}
	rd := lib.GetRedisClient()
	val := rd.JSONGet(context.Background(), fmt.Sprintf("%s:passkey:reg", uid)).Val()
	var ses webauthn.SessionData
	json.Unmarshal([]byte(val), &ses)
	wa, _ := lib.GetWebAuthn()

	cred, err := wa.FinishRegistration(&profile, ses, ctx.Request)
	if err != nil {
		log.Printf("Could not finish passkey registration: %s\n", err.Error())
		return http.StatusInternalServerError, err
	}
	deviceName := ctx.GetHeader("X-Device-Name")
	if err := utils.SaveCredential(&profile, cred, deviceName); err != nil {
		log.Printf("Failed to store credentials for user [%s]: %s\n", uid, err.Error())
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

// AccountsVerify issues an email verification token and mails the link.
func AccountsVerify(ctx *gin.Context) (status int, err error) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	email := body.Email

	conn := db.GetDb()
	var profile models.Profile
	if err := conn.Where(&models.Profile{Email: email}).First(&profile).Error; err != nil {
		return http.StatusBadRequest, err
	}

	reqId := uuid.NewString()
	payload := &types.JSONB{
		"id":  reqId,
		"sub": email,
		"ttl": 600,
		"dt":  time.Now().String(),
	}
	bPayload, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Could not serialize JSON payload: %s\n", err.Error())
		return http.StatusInternalServerError, err
	}
	token, err := utils.EncryptMessage([]byte(config.API_SECRET), string(bPayload))
	if err != nil {
		log.Printf("Payload encryption failed: %s\n", err.Error())
		return http.StatusInternalServerError, err
	}
	tok := models.Token{
		RequestedBy:   profile.UID,
		RequesterType: "profile",
		Type:          models.TokenTypeVerification,
		TokenName:     "account_verification",
		TTL:           600,
		TokenValue: types.JSONB{
			"token": token,
		},
	}
	if err := conn.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tok).Error
	}); err != nil {
		return http.StatusInternalServerError, err
	}

	verifyLink := fmt.Sprintf("%s/accounts/verify?token=%s", config.APP_HOST, token)
	input := &lib.SendMailInput{
		From:     config.SMTP_FROM,
		FromName: "noreply",
		Subject:  "Verify Email",
		To:       []string{email},
		Body: fmt.Sprintf(`
					<p>You have requested an email verification. Please click the following link to proceed.</p>
					<a href="%s">verify email</a>
					<p>If link does not work, try copying the url below and pasting in your browser</p>
					<p>%s</p>
					`, verifyLink, verifyLink),
		Html: true,
	}
	if err := mailer.NewMailerMessage(input); err != nil {
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}
