package rate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrencyValidator_ValidateLookup_Errors(t *testing.T) {
	validator := NewValidator("EUR", []string{"USD", "HUF"})

	require.Equal(t, ErrBaseRequired, validator.ValidateLookup("", "USD"))
	require.Equal(t, ErrQuoteRequired, validator.ValidateLookup("EUR", ""))
	require.Equal(t, ErrSameCodes, validator.ValidateLookup("EUR", "EUR"))
	require.Equal(t, ErrBaseNotCanonical, validator.ValidateLookup("USD", "HUF"))
	require.Equal(t, ErrQuoteUnsupported, validator.ValidateLookup("EUR", "ZZZ"))
}

func TestCurrencyValidator_ValidateLookup_Success(t *testing.T) {
	validator := NewValidator("EUR", []string{"USD", "HUF"})
	require.NoError(t, validator.ValidateLookup("EUR", "HUF"))
}

func TestCurrencyValidator_ValidateConversion(t *testing.T) {
	validator := NewValidator("EUR", []string{"USD", "HUF"})

	require.NoError(t, validator.ValidateConversion("USD", "HUF"))
	require.NoError(t, validator.ValidateConversion("USD", "USD"))
	require.Equal(t, ErrBaseRequired, validator.ValidateConversion("", "HUF"))
	require.Equal(t, ErrQuoteRequired, validator.ValidateConversion("USD", ""))
	require.Equal(t, ErrBaseUnsupported, validator.ValidateConversion("ABC", "HUF"))
	require.Equal(t, ErrQuoteUnsupported, validator.ValidateConversion("USD", "ZZZ"))
}

func TestNewValidator_CopiesInput(t *testing.T) {
	source := []string{"USD", "HUF"}
	validator := NewValidator("EUR", source)

	// mutate source after creation
	source[0] = "GBP"

	require.NoError(t, validator.ValidateLookup("EUR", "USD"))
}

func TestCurrencyValidator_SupportedCodes(t *testing.T) {
	validator := NewValidator("EUR", []string{"USD", "HUF", "USD"})

	got := validator.SupportedCodes()

	require.Equal(t, []string{"EUR", "HUF", "USD"}, got)

	// ensure caller modifications do not affect validator internal state
	got[0] = "XXX"
	require.Equal(t, []string{"EUR", "HUF", "USD"}, validator.SupportedCodes())
}
