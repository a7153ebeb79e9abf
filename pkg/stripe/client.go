package stripe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/visadesk-backend/pkg/config"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	// signatureTolerance is the oldest webhook timestamp accepted.
	signatureTolerance = 5 * time.Minute
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)

	currencyRe = regexp.MustCompile(`^[a-z]{3}$`)
)

// Client owns the keyed Stripe API client, the webhook signing secret and the
// settlement currency every intent is created in.
type Client struct {
	api           *stripe.Client
	environment   string
	currency      string
	signingSecret string
}

// NewClient builds a keyed Stripe client. The package-level stripe.Key is never
// set; every call goes through the returned instance.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	if env != testEnv && env != liveEnv {
		return nil, errInvalidStripeEnv
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	signingSecret := strings.TrimSpace(cfg.Secret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	currency := cfg.NormalizedCurrency()
	if !currencyRe.MatchString(currency) {
		return nil, fmt.Errorf("stripe currency %q is not an ISO 4217 code", cfg.Currency)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"stripe_env": env, "currency": currency}), "stripe client initialized")
	}

	return &Client{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		currency:      currency,
		signingSecret: signingSecret,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency is the lower-case ISO code intents are charged in.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// ConstructEvent verifies the Stripe-Signature header against the payload and
// decodes the event. Events pinned to another API version are accepted since
// only the payment intent id and status are read from them.
func (c *Client) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if c == nil || c.signingSecret == "" {
		return stripe.Event{}, errSecretRequired
	}
	return webhook.ConstructEventWithOptions(payload, signature, c.signingSecret, webhook.ConstructEventOptions{
		Tolerance:                signatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

func validateAPIKey(env, key string) error {
	prefixes := map[string][]string{
		testEnv: {"sk_test", "rk_test"},
		liveEnv: {"sk_live", "rk_live"},
	}
	for _, prefix := range prefixes[env] {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe environment %q requires a %s secret key (sk_%s/rk_%s)", env, env, env, env)
}
