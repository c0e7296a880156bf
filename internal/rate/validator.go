package rate

import (
	"errors"
	"slices"
)

var (
	ErrBaseRequired     = errors.New("base currency is required")
	ErrQuoteRequired    = errors.New("quote currency is required")
	ErrSameCodes        = errors.New("base and quote must be different")
	ErrBaseNotCanonical = errors.New("base currency must be the canonical base")
	ErrBaseUnsupported  = errors.New("base currency not supported")
	ErrQuoteUnsupported = errors.New("quote currency not supported")
)

type CurrencyValidator struct {
	canonicalBase     string
	supportedCodesSet map[string]struct{} // read only copy
	supportedCodesLst []string            // read only copy
}

// ValidateLookup checks a rate lookup pair: the base must be the canonical base.
func (v *CurrencyValidator) ValidateLookup(base, quote string) error {
	if base == "" {
		return ErrBaseRequired
	}
	if quote == "" {
		return ErrQuoteRequired
	}
	if base == quote {
		return ErrSameCodes
	}
	if base != v.canonicalBase {
		return ErrBaseNotCanonical
	}
	if _, ok := v.supportedCodesSet[quote]; !ok {
		return ErrQuoteUnsupported
	}
	return nil
}

// ValidateConversion checks a conversion pair; converting a currency into itself is allowed.
func (v *CurrencyValidator) ValidateConversion(from, to string) error {
	if from == "" {
		return ErrBaseRequired
	}
	if to == "" {
		return ErrQuoteRequired
	}
	if _, ok := v.supportedCodesSet[from]; !ok {
		return ErrBaseUnsupported
	}
	if _, ok := v.supportedCodesSet[to]; !ok {
		return ErrQuoteUnsupported
	}
	return nil
}

func (v *CurrencyValidator) SupportedCodes() []string {
	return slices.Clone(v.supportedCodesLst)
}

func NewValidator(canonicalBase string, supported []string) *CurrencyValidator {
	codesSet := make(map[string]struct{}, len(supported)+1)
	codesSet[canonicalBase] = struct{}{}
	for _, code := range supported {
		codesSet[code] = struct{}{}
	}
	codesLst := make([]string, 0, len(codesSet))
	for code := range codesSet {
		codesLst = append(codesLst, code)
	}
	slices.Sort(codesLst)

	return &CurrencyValidator{
		canonicalBase:     canonicalBase,
		supportedCodesSet: codesSet,
		supportedCodesLst: codesLst,
	}
}
