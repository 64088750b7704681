package payment

import (
	"strings"
	"sync"

	"mero-kart/internal/config"
	"mero-kart/internal/model"

	"github.com/rs/zerolog"
)

// PayPalAdapter validates direct-callback confirmations. The buyer's client
// loads the PayPal SDK, completes the payment and posts the resulting
// transaction reference and status here; the adapter's job is validation only.
type PayPalAdapter struct {
	cfg    config.PayPalConfig
	logger zerolog.Logger

	clientOnce sync.Once
	clientID   string
}

// NewPayPalAdapter creates a new PayPal direct-callback adapter.
func NewPayPalAdapter(cfg config.PayPalConfig, logger zerolog.Logger) *PayPalAdapter {
	return &PayPalAdapter{
		cfg:    cfg,
		logger: logger.With().Str("gateway", "paypal").Logger(),
	}
}

// Method returns the payment method this gateway confirms.
func (a *PayPalAdapter) Method() model.PaymentMethod {
	return model.PaymentMethodPayPal
}

// ValidateProof checks the confirmation payload from the client SDK.
func (a *PayPalAdapter) ValidateProof(proof model.PaymentProof) error {
	if strings.TrimSpace(proof.TransactionRef) == "" {
		a.logger.Warn().Msg("rejected proof with empty transaction reference")
		return model.ErrInvalidProof
	}

	switch strings.ToUpper(strings.TrimSpace(proof.Status)) {
	case "SUCCESS", "COMPLETED":
		return nil
	default:
		a.logger.Warn().
			Str("status", proof.Status).
			Str("transaction_ref", proof.TransactionRef).
			Msg("rejected proof with non-success status")
		return model.ErrInvalidProof
	}
}

// ClientID returns the SDK client id handed to browsers so they can load the
// PayPal script. Resolved once and reused for the life of the process; clients
// in turn load the script once per session and reuse it.
func (a *PayPalAdapter) ClientID() string {
	a.clientOnce.Do(func() {
		a.clientID = a.cfg.ClientID
		a.logger.Info().Msg("paypal client id loaded")
	})
	return a.clientID
}
