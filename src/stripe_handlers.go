package main

import (
	"encoding/json"
	"io"
	"log"
	"louefacile/src/common"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var session stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &session)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			if session.Metadata["product"] != "search_pass" {
				break
			}
			uid := session.ClientReferenceID
			if uid == "" {
				uid = session.Metadata["user_id"]
			}
			if uid == "" {
				log.Printf("No user reference on session %s\n", session.ID)
				break
			}
			pass, result := common.ActivatePass(uid, session.AmountTotal, session.ID)
			if !result.OK {
				log.Printf("Pass activation failed for [%s]: %s\n", uid, result.Error)
				break
			}
			if result.Notice != "" {
				log.Printf("Pass activation for [%s]: %s\n", uid, result.Notice)
				break
			}
			log.Printf("Pass [%s] activated for [%s]\n", pass.ID, uid)
		case "checkout.session.expired":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			log.Printf("Checkout session %s expired without payment\n", session.ID)
		default:
			log.Printf("Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}
