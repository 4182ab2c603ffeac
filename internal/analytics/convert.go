package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jask/zenledger/internal/apperrors"
	"github.com/jask/zenledger/internal/database/repository"
)

// ConversionResult is a single cross-rate application.
type ConversionResult struct {
	FromAmount   float64 `json:"from_amount"`
	FromCurrency string  `json:"from_currency"`
	ToAmount     float64 `json:"to_amount"`
	ToCurrency   string  `json:"to_currency"`
	Rate         float64 `json:"rate"`
	InverseRate  float64 `json:"inverse_rate"`
}

// ConvertCurrency converts an amount between two currency codes through
// their base-unit rates. Unlike the aggregating analytics, a missing rate
// fails the whole call: there is no aggregate to skip a row from.
// Arithmetic runs in decimals so repeated conversions do not drift.
func (s *Service) ConvertCurrency(ctx context.Context, amount float64, fromCode, toCode string) (*ConversionResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	from, err := s.instruments.GetByCode(ctx, fromCode)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%w: currency %q", apperrors.ErrNotFound, fromCode)
	}
	to, err := s.instruments.GetByCode(ctx, toCode)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%w: currency %q", apperrors.ErrNotFound, toCode)
	}
	if from.Rate <= 0 || to.Rate <= 0 {
		return nil, fmt.Errorf("%w: %s/%s", apperrors.ErrMissingRate, from.ShortTitle, to.ShortTitle)
	}

	fromRate := decimal.NewFromFloat(from.Rate)
	toRate := decimal.NewFromFloat(to.Rate)
	rate := fromRate.DivRound(toRate, 6)
	converted := decimal.NewFromFloat(amount).Mul(rate).Round(2)
	inverse := toRate.DivRound(fromRate, 6)

	return &ConversionResult{
		FromAmount:   amount,
		FromCurrency: from.ShortTitle,
		ToAmount:     converted.InexactFloat64(),
		ToCurrency:   to.ShortTitle,
		Rate:         rate.InexactFloat64(),
		InverseRate:  inverse.InexactFloat64(),
	}, nil
}

// RateEntry is one currency's rate summary.
type RateEntry struct {
	Currency   string  `json:"currency"`
	Title      string  `json:"title,omitempty"`
	Symbol     string  `json:"symbol,omitempty"`
	RateToBase float64 `json:"rate_to_base"`
	RateToUser float64 `json:"rate_to_user,omitempty"`
}

// ExchangeRatesResult is the cross-rate table over a currency set.
type ExchangeRatesResult struct {
	UserCurrency string                        `json:"user_currency"`
	Currencies   []RateEntry                   `json:"currencies"`
	CrossRates   map[string]map[string]float64 `json:"cross_rates"`
}

// ExchangeRates builds a cross-rate table over the requested codes, or over
// the currencies used by active accounts when none are given. A listed
// currency without a positive rate fails the call.
func (s *Service) ExchangeRates(ctx context.Context, codes []string) (*ExchangeRatesResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	base, err := s.instruments.Base(ctx)
	if err != nil {
		return nil, err
	}

	var selected []repository.Instrument
	if len(codes) > 0 {
		for _, code := range codes {
			in, err := s.instruments.GetByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			if in == nil {
				return nil, fmt.Errorf("%w: currency %q", apperrors.ErrNotFound, code)
			}
			selected = append(selected, *in)
		}
	} else {
		accounts, err := s.accounts.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		byID, err := s.instruments.ByID(ctx)
		if err != nil {
			return nil, err
		}
		seen := map[int64]bool{}
		for _, a := range accounts {
			if seen[a.Instrument] {
				continue
			}
			seen[a.Instrument] = true
			if in, ok := byID[a.Instrument]; ok {
				selected = append(selected, in)
			}
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ShortTitle < selected[j].ShortTitle })

	res := &ExchangeRatesResult{
		UserCurrency: base.ShortTitle,
		CrossRates:   map[string]map[string]float64{},
	}
	for _, in := range selected {
		if in.Rate <= 0 {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingRate, in.ShortTitle)
		}
		entry := RateEntry{
			Currency:   in.ShortTitle,
			Title:      in.Title,
			Symbol:     in.Symbol,
			RateToBase: in.Rate,
		}
		rates := map[string]float64{}
		for _, other := range selected {
			if other.ID == in.ID || other.Rate <= 0 {
				continue
			}
			cross := decimal.NewFromFloat(in.Rate).DivRound(decimal.NewFromFloat(other.Rate), 6)
			rates[other.ShortTitle] = cross.InexactFloat64()
			if other.ID == base.ID {
				entry.RateToUser = cross.InexactFloat64()
			}
		}
		res.CrossRates[in.ShortTitle] = rates
		res.Currencies = append(res.Currencies, entry)
	}
	return res, nil
}
