package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"mero-kart/internal/config"
	"mero-kart/internal/model"

	"github.com/rs/zerolog"
)

// EsewaAdapter handles the redirect-correlation flow: it builds the form the
// browser submits to the eSewa payment page, and verifies returned
// transactions against the gateway's transrec endpoint before any payment is
// applied. The returned correlation id alone is never trusted.
type EsewaAdapter struct {
	cfg    config.EsewaConfig
	client *http.Client
	logger zerolog.Logger
}

// NewEsewaAdapter creates a new eSewa redirect adapter.
func NewEsewaAdapter(cfg config.EsewaConfig, logger zerolog.Logger) *EsewaAdapter {
	return &EsewaAdapter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.VerifyTimeoutDuration(),
		},
		logger: logger.With().Str("gateway", "esewa").Logger(),
	}
}

// Method returns the payment method this gateway confirms.
func (a *EsewaAdapter) Method() model.PaymentMethod {
	return model.PaymentMethodEsewa
}

// BuildRedirect constructs the payment form submission. Field names follow
// the eSewa ePay contract: amt (item subtotal), psc (service charge), pdc
// (delivery charge), txAmt (tax), tAmt (grand total), pid (correlation id),
// scd (merchant code), su/fu (success and failure return URLs).
func (a *EsewaAdapter) BuildRedirect(order *model.Order, correlationID string) RedirectForm {
	returnURL := fmt.Sprintf("%s/order/%s", strings.TrimRight(a.cfg.ReturnBaseURL, "/"), order.ID)

	return RedirectForm{
		Action: a.cfg.GatewayURL,
		Fields: map[string]string{
			"amt":   formatAmount(order.Pricing.ItemsSubtotal),
			"psc":   formatAmount(order.Pricing.ShippingFee),
			"pdc":   "0",
			"txAmt": formatAmount(order.Pricing.Tax),
			"tAmt":  formatAmount(order.Pricing.Total),
			"pid":   correlationID,
			"scd":   a.cfg.MerchantCode,
			"su":    returnURL,
			"fu":    returnURL,
		},
	}
}

// Verify confirms the transaction with the gateway. Transport failures,
// timeouts, non-200 responses and non-success bodies all map to
// model.ErrInvalidProof so the order is never left half-settled.
func (a *EsewaAdapter) Verify(ctx context.Context, correlationID string, amount float64) error {
	form := url.Values{}
	form.Set("amt", formatAmount(amount))
	form.Set("scd", a.cfg.MerchantCode)
	form.Set("pid", correlationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to build verification request")
		return model.ErrInvalidProof
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("correlation_id", correlationID).
			Msg("gateway verification call failed")
		return model.ErrInvalidProof
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn().
			Int("status", resp.StatusCode).
			Str("correlation_id", correlationID).
			Msg("gateway verification returned non-200")
		return model.ErrInvalidProof
	}

	// transrec answers a small XML document whose response_code element reads
	// "Success" for settled transactions.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		a.logger.Warn().Err(err).Str("correlation_id", correlationID).Msg("failed to read verification response")
		return model.ErrInvalidProof
	}

	if !strings.Contains(strings.ToLower(string(body)), "success") {
		a.logger.Warn().
			Str("correlation_id", correlationID).
			Msg("gateway did not confirm the transaction")
		return model.ErrInvalidProof
	}

	a.logger.Info().
		Str("correlation_id", correlationID).
		Msg("transaction verified with gateway")

	return nil
}

// formatAmount renders a price the way the gateway expects, without trailing
// zeros beyond two decimals.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
