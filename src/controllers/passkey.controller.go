package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"louefacile/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"gorm.io/gorm"
)

func PasskeyLoginStart(ctx *gin.Context) (opts *protocol.CredentialAssertion, status int, err error) {
	var body struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	var profile models.Profile
	conn := db.GetDb()
	if err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Profile{}).
			Where("email = ?", body.Email).
			First(&profile).
			Error; err != nil {
			return err
		}
		return utils.GetCredentials(&profile)
	}); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if len(profile.Credentials) == 0 {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "No credentials registered"})
		return
	}
	wa, _ := lib.GetWebAuthn()
	opts, ses, err := wa.BeginLogin(&profile)
	if err != nil {
		log.Printf("Could not initialize login with passkey: %s\n", err.Error())
		ctx.Status(http.StatusInternalServerError)
		return
	}
	rd := lib.GetRedisClient()
	rd.JSONSet(context.Background(), fmt.Sprintf("%s:passkey:login", profile.UID), "$", ses)
	return opts, http.StatusOK, nil
}

func PasskeyLoginFinish(ctx *gin.Context) (token *string, status int, err error) {
	var query struct {
		Email string `form:"email" binding:"required"`
	}
	if err := ctx.ShouldBindQuery(&query); err != nil {
		log.Printf("Error validating request: %s\n", err.Error())
		return nil, http.StatusBadRequest, err
	}
	var profile models.Profile
	conn := db.GetDb()
	if err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Profile{}).
			Where("email = ?", query.Email).
			First(&profile).
			Error; err != nil {
			return err
		}
		return utils.GetCredentials(&profile)
	}); err != nil {
		log.Printf("Error retrieving user [%s]: %s\n", query.Email, err.Error())
		return nil, http.StatusBadRequest, err
	}
	rd := lib.GetRedisClient()
	val, err := rd.JSONGet(context.Background(), fmt.Sprintf("%s:passkey:login", profile.UID)).Result()
	if err != nil || val == "" {
		ctx.Status(http.StatusInternalServerError)
		return
	}
	var ses webauthn.SessionData
	json.Unmarshal([]byte(val), &ses)
	wa, _ := lib.GetWebAuthn()
	_, err = wa.FinishLogin(&profile, ses, ctx.Request)
	if err != nil {
		log.Printf("Passkey login failed: %s\n", err.Error())
		return nil, http.StatusUnauthorized, err
	}
	jwt, err := utils.GenerateJWT(profile.Email, profile.UID, profile.Role)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	go func() {
		rd := lib.GetRedisClient()
		if _, err := rd.JSONSet(context.Background(), fmt.Sprintf("%s:user", profile.UID), "$", &profile).Result(); err != nil {
			log.Printf("[redis] Error updating user cache: %s\n", err.Error())
		}
	}()
	return &jwt, http.StatusOK, nil
}
