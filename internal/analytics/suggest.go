package analytics

import "context"

// SuggestedTag is a server-proposed category enriched with the local title.
type SuggestedTag struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

// SuggestionResult is the category suggestion for a payee.
type SuggestionResult struct {
	OriginalPayee       string         `json:"original_payee"`
	NormalizedPayee     string         `json:"normalized_payee"`
	SuggestedMerchantID string         `json:"suggested_merchant_id,omitempty"`
	SuggestedCategories []SuggestedTag `json:"suggested_categories"`
}

// SuggestCategory asks the remote ledger to categorize a payee and joins
// the returned tag ids with local titles. The only analytic that leaves
// the cache; sync never calls it.
func (s *Service) SuggestCategory(ctx context.Context, payee string) (*SuggestionResult, error) {
	suggestion, err := s.client.SuggestCategory(ctx, payee)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ByID(ctx)
	if err != nil {
		return nil, err
	}

	res := &SuggestionResult{
		OriginalPayee:       payee,
		NormalizedPayee:     suggestion.Payee,
		SuggestedCategories: []SuggestedTag{},
	}
	if res.NormalizedPayee == "" {
		res.NormalizedPayee = payee
	}
	if suggestion.Merchant != nil {
		res.SuggestedMerchantID = *suggestion.Merchant
	}
	for _, tagID := range suggestion.Tags {
		name := tags[tagID].Title
		if name == "" {
			name = tagID
		}
		res.SuggestedCategories = append(res.SuggestedCategories, SuggestedTag{TagID: tagID, Name: name})
	}
	return res, nil
}
