package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProvider struct {
	sc            *client.API
	webhookSecret string
}

// NewStripeProvider uses its own client so the package-level stripe.Key stays unset.
func NewStripeProvider(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{sc: client.New(secretKey, backends), webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := buildSessionParams(req)
	params.Context = ctx
	s, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func (p *StripeProvider) GetSession(ctx context.Context, sessionID string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return Session{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return fromStripe(s), nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, sigHeader string) (Event, error) {
	if p.webhookSecret == "" {
		return Event{}, errors.Join(ErrSignature, errors.New("webhook secret not configured"))
	}
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, errors.Join(ErrSignature, err)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev stripe.Event) (Event, error) {
	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}
	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		session := fromStripe(&s)
		out.Session = &session
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.OrderID = pi.Metadata[MetaOrderID]
	}
	return out, nil
}

func buildSessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:   stripe.String(li.Name),
			Images: stripe.StringSlice(li.Images),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(req.ShippingLabel),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(req.ShippingAmount),
					Currency: stripe.String(req.Currency),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(3),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(7),
					},
				},
			},
		}},
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{Enabled: stripe.Bool(true)},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	// payment_intent.* events only see the intent's metadata
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: map[string]string{MetaOrderID: req.OrderID, MetaUserID: req.UserID},
	}
	if req.Shipping != nil {
		params.PaymentIntentData.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(req.Shipping.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(req.Shipping.Line1),
				City:       stripe.String(req.Shipping.City),
				State:      stripe.String(req.Shipping.State),
				PostalCode: stripe.String(req.Shipping.PostalCode),
				Country:    stripe.String(req.Shipping.Country),
			},
		}
		if req.Shipping.Phone != "" {
			params.PaymentIntentData.Shipping.Phone = stripe.String(req.Shipping.Phone)
		}
	}
	params.AddMetadata(MetaOrderID, req.OrderID)
	params.AddMetadata(MetaUserID, req.UserID)
	return params
}

func fromStripe(s *stripe.CheckoutSession) Session {
	out := Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}
