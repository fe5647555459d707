package cardcsv

// Column names recognized in card spreadsheets. Matching is exact and
// case-sensitive.
const (
	ColSetName       = "Set Name"
	ColCardName      = "Card Name"
	ColCardNumber    = "Card Number"
	ColRarity        = "Rarity"
	ColImageURL      = "Image URL"
	ColTCGPlayerURL  = "TCGPlayer URL"
	ColCardmarketURL = "Cardmarket URL"
	ColUSDPrice      = "USD Price"
	ColEURPrice      = "EUR Price"
	ColHP            = "HP"
	ColVariantType   = "Variant Type"
	ColVariantID     = "Variant ID"
	ColIsBaseCard    = "Is Base Card"
	ColBaseCardID    = "Base Card ID"
)

// RequiredHeaders must all be present for an import to proceed.
var RequiredHeaders = []string{
	ColSetName,
	ColCardName,
	ColCardNumber,
	ColRarity,
	ColImageURL,
}

// ValidateHeaders reports whether every required header is present.
// Column order and extra columns are ignored.
func ValidateHeaders(headers []string) bool {
	return len(MissingHeaders(headers)) == 0
}

// MissingHeaders returns the required headers absent from headers, in
// RequiredHeaders order.
func MissingHeaders(headers []string) []string {
	have := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		have[h] = struct{}{}
	}

	var missing []string
	for _, req := range RequiredHeaders {
		if _, ok := have[req]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}
