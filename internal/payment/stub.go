package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StubProvider keeps sessions in memory. It backs local runs without
// provider credentials. Webhooks are signed like Stripe's, with the
// configured token as the signing secret.
type StubProvider struct {
	mu       sync.Mutex
	sessions map[string]Session
	token    string
	baseURL  string
}

func NewStubProvider(baseURL, token string) *StubProvider {
	return &StubProvider{sessions: map[string]Session{}, token: token, baseURL: baseURL}
}

func (p *StubProvider) CreateSession(_ context.Context, req SessionRequest) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := "cs_stub_" + uuid.NewString()
	s := Session{
		ID:            id,
		URL:           fmt.Sprintf("%s/stub-checkout/%s", p.baseURL, id),
		Status:        "open",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{MetaOrderID: req.OrderID, MetaUserID: req.UserID},
	}
	p.sessions[id] = s
	return s, nil
}

func (p *StubProvider) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	return s, nil
}

// Complete marks a stub session paid, as the hosted page would.
func (p *StubProvider) Complete(sessionID string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	s.Status = "complete"
	s.PaymentStatus = StatusPaid
	s.PaymentIntentID = "pi_stub_" + sessionID[len("cs_stub_"):]
	p.sessions[sessionID] = s
	return s, nil
}

type stubEvent struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	SessionID       string `json:"sessionId"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
}

// Sign returns a Stripe-Signature header for payload.
func (p *StubProvider) Sign(payload []byte, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, p.token)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func (p *StubProvider) ParseWebhook(payload []byte, sigHeader string) (Event, error) {
	if p.token == "" {
		return Event{}, errors.Join(ErrSignature, errors.New("webhook secret not configured"))
	}
	if err := webhook.ValidatePayload(payload, sigHeader, p.token); err != nil {
		return Event{}, errors.Join(ErrSignature, err)
	}
	var se stubEvent
	if err := json.Unmarshal(payload, &se); err != nil {
		return Event{}, fmt.Errorf("decode stub event: %w", err)
	}
	ev := Event{ID: se.ID, Type: se.Type, PaymentIntentID: se.PaymentIntentID, OrderID: se.OrderID}
	if se.SessionID != "" {
		p.mu.Lock()
		s, ok := p.sessions[se.SessionID]
		p.mu.Unlock()
		if !ok {
			s = Session{ID: se.SessionID, Metadata: map[string]string{}}
		}
		ev.Session = &s
	}
	return ev, nil
}
