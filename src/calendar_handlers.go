package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"louefacile/src/config"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"louefacile/src/types"
	"louefacile/src/utils"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grokify/go-pkce"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// calendarHandlers let owners connect their Google Calendar so scheduled
// visits show up on it.
func calendarHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/calendar/connect", func(ctx *gin.Context) {
			var body struct {
				Redirect string `json:"redirect" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}

			uid := ctx.GetString("uid")
			oauthcfg := &oauth2.Config{
				RedirectURL:  config.API_HOST + "/api/v1/oauth/google/callback",
				ClientID:     config.OAUTH_CLIENT_ID,
				ClientSecret: config.OAUTH_CLIENT_SECRET,
				Scopes: []string{
					calendar.CalendarCalendarsScope,
					calendar.CalendarEventsScope,
				},
				Endpoint: google.Endpoint,
			}
			nonce := make([]byte, 32)
			rand.Read(nonce)
			hnonce := hex.EncodeToString(nonce)
			go func() {
				ex := 3600 * time.Second
				rd := lib.GetRedisClient()
				rd.SetEx(
					context.Background(),
					fmt.Sprintf("user::%s:oauth:nonce", uid),
					hnonce,
					ex,
				)
			}()

			cv := pkce.NewCodeVerifierBytes(nonce)
			cc := pkce.CodeChallengeS256(cv)

			state := &types.Oauth2FlowState{
				UID:      uid,
				Nonce:    hnonce,
				Redirect: body.Redirect,
			}
			b, err := json.Marshal(state)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			keyBytes, err := hex.DecodeString(config.API_SECRET)
			if err != nil {
				log.Printf("Error while reading secret key: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			enc, err := utils.EncryptMessage(keyBytes, string(b))
			if err != nil {
				log.Printf("Error while encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			authurl := oauthcfg.AuthCodeURL(
				enc,
				oauth2.AccessTypeOffline,
				oauth2.SetAuthURLParam(pkce.ParamCodeChallenge, cc),
				oauth2.SetAuthURLParam(pkce.ParamCodeChallengeMethod, pkce.MethodS256),
			)
			ctx.JSON(http.StatusOK, gin.H{"url": authurl})
		})
	return g
}

func oauthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	oauthcb := apiv1.Group("/oauth")
	oauthcb.
		GET("/google/callback", func(ctx *gin.Context) {
			var query struct {
				State *string `form:"state" binding:"required"`
				Code  *string `form:"code" binding:"required"`
				Scope *string `form:"scope" binding:"required"`
			}
			if err := ctx.BindQuery(&query); err != nil {
				log.Printf("Error while parsing request params: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			key, err := hex.DecodeString(config.API_SECRET)
			if err != nil {
				log.Printf("Error while retrieving key: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			dec, err := utils.DecryptMessage(key, *query.State)
			if err != nil {
				log.Printf("Error while decrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			var state types.Oauth2FlowState
			if err := json.Unmarshal([]byte(*dec), &state); err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			db := db.GetDb()
			var uc int64
			if err := db.Model(&models.Profile{}).Where("uid = ?", state.UID).Count(&uc).Error; err != nil {
				log.Printf("Error retrieving user info: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if uc == 0 {
				err := fmt.Errorf("could not find user with ID [%s]", state.UID)
				log.Printf("Error verifying user: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			dnonce, err := hex.DecodeString(state.Nonce)
			if err != nil {
				log.Printf("Could not read nonce: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			rd := lib.GetRedisClient()
			nonceKey := fmt.Sprintf("user::%s:oauth:nonce", state.UID)
			cache := rd.Get(context.Background(), nonceKey).Val()
			nonce, err := hex.DecodeString(cache)
			if err != nil {
				log.Printf("Error while decoding hex value: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if subtle.ConstantTimeCompare(dnonce, nonce) != 1 {
				log.Println("Data mismatch: the supplied values do not match")
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
				return
			}
			oauthcfg := &oauth2.Config{
				RedirectURL:  config.API_HOST + "/api/v1/oauth/google/callback",
				ClientID:     config.OAUTH_CLIENT_ID,
				ClientSecret: config.OAUTH_CLIENT_SECRET,
				Scopes:       strings.Split(*query.Scope, " "),
				Endpoint:     google.Endpoint,
			}
			cv := pkce.NewCodeVerifierBytes(nonce)
			token, err := oauthcfg.Exchange(
				context.Background(),
				*query.Code,
				oauth2.SetAuthURLParam(pkce.ParamCodeVerifier, cv),
			)
			if err != nil {
				log.Printf("Error while exchanging authorization code for token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			go func() {
				t := &models.Token{
					RequestedBy:   state.UID,
					RequesterType: "profile",
					Type:          models.TokenTypeAccess,
					TokenName:     "calendar_token",
					TokenValue: types.JSONB{
						"access_token":  token.AccessToken,
						"refresh_token": token.RefreshToken,
						"exp":           token.Expiry,
						"ttl":           token.ExpiresIn,
					},
					TTL:    uint(token.ExpiresIn),
					Status: "active",
				}
				tx := db.Begin()
				if err := tx.Model(&models.Token{}).Where(&models.Token{
					Type:          models.TokenTypeAccess,
					TokenName:     "calendar_token",
					RequestedBy:   state.UID,
					RequesterType: "profile",
					Status:        "active",
				}).Update("status", "invalid").Error; err != nil {
					log.Printf("Error invalidating tokens: %s\n", err.Error())
					tx.Rollback()
					return
				}
				if err := tx.Create(t).Error; err != nil {
					log.Printf("Error saving token to database: %s\n", err.Error())
					tx.Rollback()
					return
				}
				tx.Commit()
			}()
			ex := time.Duration(token.ExpiresIn) * time.Second
			go rd.SetEx(context.Background(), fmt.Sprintf("user::%s:calendar:token", state.UID), token.AccessToken, ex)
			go rd.Del(context.Background(), nonceKey)
			ctx.Redirect(http.StatusTemporaryRedirect, state.Redirect)
		})
	return apiv1
}
