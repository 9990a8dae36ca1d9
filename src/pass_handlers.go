package main

import (
	"log"
	"louefacile/src/common"
	"louefacile/src/config"
	"louefacile/src/lib"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

func passHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/passes/active", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			pass, err := common.GetActivePass(uid)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			now := time.Now()
			if !common.IsPassActive(pass, now) {
				ctx.JSON(http.StatusOK, gin.H{"active": false})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"active":    true,
				"data":      pass,
				"remaining": common.UnlocksRemaining(pass, now),
			})
		}).
		POST("/passes/checkout", func(ctx *gin.Context) {
			uid := ctx.GetString("uid")
			pass, err := common.GetActivePass(uid)
			if err == nil && common.IsPassActive(pass, time.Now()) {
				ctx.JSON(http.StatusConflict, gin.H{"error": "pass already active"})
				return
			}
			session, err := lib.CreatePassCheckoutSession(ctx, uid)
			if err != nil {
				log.Printf("Could not create checkout session for [%s]: %s\n", uid, err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": session.URL, "session_id": session.ID})
		}).
		GET("/passes/payment-link", func(ctx *gin.Context) {
			// Shareable payment link, used when a checkout session is
			// overkill. Requires a preconfigured price.
			priceId := os.Getenv("STRIPE_PASS_PRICE_ID")
			if priceId == "" {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "no payment link configured"})
				return
			}
			url, err := lib.CreatePaymentLink(priceId)
			if err != nil {
				log.Printf("Could not create payment link: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		POST("/passes/activate", func(ctx *gin.Context) {
			// Manual activation path for offline payments. Checkout payments
			// land through the stripe webhook instead.
			uid := ctx.GetString("uid")
			role := ctx.GetString("role")
			if role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			var body struct {
				UserID string `json:"user_id" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Printf("Manual pass activation for [%s] requested by [%s]\n", body.UserID, uid)
			pass, result := common.ActivatePass(body.UserID, config.PASS_AMOUNT, "")
			if !result.OK {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": result.Error})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": pass, "notice": result.Notice})
		})
	return g
}
