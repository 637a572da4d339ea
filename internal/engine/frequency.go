package engine

// AllowImpression decides whether a visitor may be shown a campaign again.
// maxFrequency is the campaign's impressions-per-visitor-per-day cap (0 =
// unlimited); shownToday is the visitor's impression count for the campaign
// within the current rolling day, supplied by the caller's history store.
func AllowImpression(maxFrequency, shownToday int) bool {
	if maxFrequency <= 0 {
		return true
	}
	return shownToday < maxFrequency
}
