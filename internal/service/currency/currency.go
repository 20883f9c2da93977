package currency

import (
	"WaGPT/internal/config"
	"WaGPT/internal/lib/sl"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept in a converted amount.
const Places = 5

type Service struct {
	apiURL string
	client *http.Client
	log    *slog.Logger
}

func NewCurrencyService(conf *config.Config, logger *slog.Logger) *Service {
	return &Service{
		apiURL: conf.Currency.ApiURL,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger.With(sl.Module("currency")),
	}
}

// Convert multiplies amount by the current from→to rate.
// The rate document is {"date": "...", "<from>": {"<to>": rate, ...}}.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))

	url := strings.ReplaceAll(s.apiURL, "{from}", from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("currency api responded with %d", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rates: %w", err)
	}

	raw, ok := body[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown currency %q", from)
	}
	var rates map[string]decimal.Decimal
	if err = json.Unmarshal(raw, &rates); err != nil {
		return decimal.Zero, fmt.Errorf("decode %s rates: %w", from, err)
	}
	rate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate from %q to %q", from, to)
	}

	result := amount.Mul(rate).Round(Places)
	s.log.With(
		slog.String("from", from),
		slog.String("to", to),
		slog.String("rate", rate.String()),
		slog.String("result", result.String()),
	).Debug("currency converted")
	return result, nil
}
