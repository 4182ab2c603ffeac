package analytics

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/zenledger/internal/database/repository"
	"github.com/jask/zenledger/internal/money"
)

// Outlier is a transaction whose amount deviates from its category's
// history by more than the Z threshold.
type Outlier struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Payee         string  `json:"payee,omitempty"`
	ZScore        float64 `json:"z_score"`
	Mean          float64 `json:"mean"`
	Stddev        float64 `json:"stddev"`
	Severity      string  `json:"severity"`
}

// DuplicatePair is two transactions likely recording the same purchase.
type DuplicatePair struct {
	Transactions []string `json:"transactions"`
	Date         string   `json:"date"`
	Amount       float64  `json:"amount"`
	Payee        string   `json:"payee"`
	Severity     string   `json:"severity"`
}

// AnomaliesResult carries statistical outliers and near-duplicate pairs.
type AnomaliesResult struct {
	Period             Period          `json:"period"`
	OutliersCount      int             `json:"outliers_count"`
	DuplicatesCount    int             `json:"duplicates_count"`
	AnalyzedCount      int             `json:"analyzed_count"`
	Outliers           []Outlier       `json:"outliers"`
	PossibleDuplicates []DuplicatePair `json:"possible_duplicates"`
}

const anomalyMinSamples = 3

// Anomalies flags expense outliers per category using a Z-score over the
// period's amounts. Categories with fewer than three samples or zero
// variance are skipped rather than producing spurious flags. Duplicate
// detection pairs same-amount transactions within one day whose payees are
// fuzzy-equal.
func (s *Service) Anomalies(ctx context.Context, period, categoryID string) (*AnomaliesResult, error) {
	if err := s.ensureSynced(ctx); err != nil {
		return nil, err
	}
	tags, err := s.tags.ByID(ctx)
	if err != nil {
		return nil, err
	}
	merchants, err := s.merchants.ByID(ctx)
	if err != nil {
		return nil, err
	}
	p := parsePeriod(period, s.now())

	var rollup map[string]bool
	if categoryID != "" {
		rollup = money.RollupSet(categoryID, tags)
	}

	all, err := s.transactions.List(ctx, repository.TransactionFilters{
		DateFrom: p.Start,
		DateTo:   p.End,
		Kind:     "expense",
	})
	if err != nil {
		return nil, err
	}
	var txs []repository.Transaction
	for _, t := range all {
		if rollup != nil && !rollup[t.PrimaryTag()] {
			continue
		}
		txs = append(txs, t)
	}

	res := &AnomaliesResult{
		Period:             p,
		AnalyzedCount:      len(txs),
		Outliers:           []Outlier{},
		PossibleDuplicates: []DuplicatePair{},
	}

	// Amounts stay in their native instruments here: the statistic is
	// per-category and a category's transactions overwhelmingly share one
	// instrument, so converting would only move the mean.
	byCategory := map[string][]float64{}
	for _, t := range txs {
		byCategory[t.PrimaryTag()] = append(byCategory[t.PrimaryTag()], t.Outcome)
	}

	for category, amounts := range byCategory {
		if len(amounts) < anomalyMinSamples {
			continue
		}
		var sum float64
		for _, a := range amounts {
			sum += a
		}
		mean := sum / float64(len(amounts))
		var variance float64
		for _, a := range amounts {
			variance += (a - mean) * (a - mean)
		}
		stddev := math.Sqrt(variance / float64(len(amounts)))
		if stddev == 0 {
			continue
		}
		for _, t := range txs {
			if t.PrimaryTag() != category {
				continue
			}
			z := math.Abs(t.Outcome-mean) / stddev
			if z <= s.cfg.ZScoreThreshold {
				continue
			}
			severity := "medium"
			if z > s.cfg.ZScoreThreshold*1.5 {
				severity = "high"
			}
			categoryName := "Uncategorized"
			if category != "" {
				if title := tags[category].Title; title != "" {
					categoryName = title
				}
			}
			res.Outliers = append(res.Outliers, Outlier{
				TransactionID: t.ID,
				Date:          t.Date,
				Amount:        round2(t.Outcome),
				Category:      categoryName,
				Payee:         displayPayee(t, merchants),
				ZScore:        round2(z),
				Mean:          round2(mean),
				Stddev:        round2(stddev),
				Severity:      severity,
			})
		}
	}

	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if math.Abs(a.Outcome-b.Outcome) >= 0.01 {
				continue
			}
			da, errA := time.Parse(dateLayout, a.Date)
			db, errB := time.Parse(dateLayout, b.Date)
			if errA != nil || errB != nil || math.Abs(da.Sub(db).Hours()) > 24 {
				continue
			}
			pa, pb := displayPayee(a, merchants), displayPayee(b, merchants)
			if pa == "" || pb == "" || !fuzzyEqual(pa, pb) {
				continue
			}
			res.PossibleDuplicates = append(res.PossibleDuplicates, DuplicatePair{
				Transactions: []string{a.ID, b.ID},
				Date:         a.Date,
				Amount:       round2(a.Outcome),
				Payee:        pa,
				Severity:     "medium",
			})
		}
	}

	res.OutliersCount = len(res.Outliers)
	res.DuplicatesCount = len(res.PossibleDuplicates)
	if len(res.Outliers) > s.cfg.DefaultLimit {
		res.Outliers = res.Outliers[:s.cfg.DefaultLimit]
	}
	if len(res.PossibleDuplicates) > s.cfg.DefaultLimit {
		res.PossibleDuplicates = res.PossibleDuplicates[:s.cfg.DefaultLimit]
	}
	return res, nil
}

func displayPayee(t repository.Transaction, merchants map[string]repository.Merchant) string {
	if t.Merchant != nil {
		if title := merchants[*t.Merchant].Title; title != "" {
			return title
		}
	}
	return strOrEmpty(t.Payee)
}

// fuzzyEqual tolerates small typos and case differences between payee
// strings: edit distance at most 2 for strings longer than 5 runes, exact
// match otherwise.
func fuzzyEqual(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return true
	}
	if len([]rune(a)) <= 5 || len([]rune(b)) <= 5 {
		return false
	}
	return levenshtein.ComputeDistance(a, b) <= 2
}
