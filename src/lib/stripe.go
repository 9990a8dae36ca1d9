package lib

import (
	"context"
	"fmt"
	"log"
	"louefacile/src/config"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeInitialize warms the client at boot so a misconfigured key is
// noticed before the first checkout.
func StripeInitialize() {
	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		log.Println("[Stripe] STRIPE_SECRET_KEY is not set, payments are disabled")
		return
	}
	GetStripeClient()
	log.Println("[Stripe] client ready")
}

func CreatePaymentLink(priceId string) (string, error) {
	sc := GetStripeClient()
	params := stripe.PaymentLinkCreateParams{
		LineItems: []*stripe.PaymentLinkCreateLineItemParams{
			{
				Price:    stripe.String(priceId),
				Quantity: stripe.Int64(1),
			},
		},
	}
	paymentLink, err := sc.V1PaymentLinks.Create(context.Background(), &params)
	if err != nil {
		return "", err
	}
	return paymentLink.URL, err
}

// CreatePassCheckoutSession opens a checkout for the weekly search pass.
// The uid travels as the client reference so the webhook can attribute
// the completed payment.
func CreatePassCheckoutSession(ctx context.Context, uid string) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	params := stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String("xof"),
					UnitAmount: stripe.Int64(config.PASS_AMOUNT),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Pass Recherche %d jours", config.PASS_DURATION_DAYS)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(uid),
		SuccessURL:        stripe.String(fmt.Sprintf("%s/pass/success", config.APP_HOST)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/pass", config.APP_HOST)),
		Metadata: map[string]string{
			"user_id": uid,
			"product": "search_pass",
		},
	}
	return sc.V1CheckoutSessions.Create(ctx, &params)
}
