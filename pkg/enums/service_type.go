package enums

import (
	"fmt"
	"strings"
)

// ServiceType flags whether a catalog service is bought directly or quoted first.
type ServiceType string

const (
	ServiceTypeCheckout ServiceType = "checkout"
	ServiceTypeQuote    ServiceType = "quote"
)

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	return s == ServiceTypeCheckout || s == ServiceTypeQuote
}

// ParseServiceType converts raw input into a ServiceType, ignoring case.
func ParseServiceType(value string) (ServiceType, error) {
	switch ServiceType(strings.ToLower(strings.TrimSpace(value))) {
	case ServiceTypeCheckout:
		return ServiceTypeCheckout, nil
	case ServiceTypeQuote:
		return ServiceTypeQuote, nil
	}
	return "", fmt.Errorf("invalid service type %q", value)
}

// QuoteType distinguishes free-text quote requests from catalog-service quotes.
type QuoteType string

const (
	QuoteTypeCustom  QuoteType = "custom"
	QuoteTypeService QuoteType = "service"
)

// String implements fmt.Stringer.
func (q QuoteType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteType.
func (q QuoteType) IsValid() bool {
	return q == QuoteTypeCustom || q == QuoteTypeService
}
