package main

import (
	"context"
	"fmt"
	"log"
	"louefacile/src/common"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/dashboard", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			data := common.GetDashboardData(ctx, uid)
			ctx.JSON(http.StatusOK, gin.H{"data": data})
		}).
		GET("/users/me", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			email := ctx.GetString("email")
			db := db.GetDb()
			var profile models.Profile
			if err := db.
				Model(&models.Profile{}).
				Where(&models.Profile{UID: uid}).
				First(&profile).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			user := common.MapUser(uid, email, &profile)
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		POST("/fcm", func(ctx *gin.Context) {
			var body struct {
				Token  string   `json:"token" binding:"required"`
				Topics []string `json:"topics" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[FCM] error: %v\n", err)
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			fcm, err := lib.GetFirebaseMessaging()
			if err != nil {
				log.Printf("Could not retrieve FCM instance: %v\n", err)
				ctx.Status(http.StatusInternalServerError)
				return
			}
			for _, topic := range body.Topics {
				_, err := fcm.SubscribeToTopic(ctx, []string{body.Token}, topic)
				if err != nil {
					log.Printf("[FCM] error subscribing to topic [%s]: %v\n", topic, err)
					ctx.Status(http.StatusBadRequest)
					return
				}
			}
			uid := ctx.GetString("uid")
			rd := lib.GetRedisClient()
			rd.JSONSet(context.Background(), fmt.Sprintf("%s:fcm", uid), "$", map[string]any{
				"token":  body.Token,
				"topics": body.Topics,
			})
			ctx.Status(http.StatusOK)
		})
	return g
}
