// Package types provides common type definitions for the tGHSX vault backend.
package types

import (
	"fmt"
	"math/big"
	"strings"
)

// TGHSXDecimals is the fixed-point precision of the tGHSX stablecoin.
// Minted amounts, collateral values and collateral ratios all use it.
const TGHSXDecimals = 6

// Role represents the access level of an authenticated user
type Role string

const (
	// RoleUser represents a regular authenticated user
	RoleUser Role = "user"
	// RoleAdmin represents the single designated protocol administrator
	RoleAdmin Role = "admin"
)

// MintRequestStatus represents the workflow state of a mint request
type MintRequestStatus string

const (
	// MintStatusPending represents a request awaiting admin review
	MintStatusPending MintRequestStatus = "pending"
	// MintStatusApproved represents a request cleared for on-chain minting
	MintStatusApproved MintRequestStatus = "approved"
	// MintStatusDeclined represents a request rejected by the admin
	MintStatusDeclined MintRequestStatus = "declined"
	// MintStatusFailed represents a request that errored during processing
	MintStatusFailed MintRequestStatus = "failed"
)

// EventName identifies a CollateralVault contract event mirrored off-chain
type EventName string

const (
	// EventCollateralDeposited is emitted when collateral enters a vault
	EventCollateralDeposited EventName = "CollateralDeposited"
	// EventCollateralWithdrawn is emitted when collateral leaves a vault
	EventCollateralWithdrawn EventName = "CollateralWithdrawn"
	// EventTGHSXMinted is emitted when tGHSX debt is created
	EventTGHSXMinted EventName = "TGHSXMinted"
	// EventTGHSXBurned is emitted when tGHSX debt is repaid
	EventTGHSXBurned EventName = "TGHSXBurned"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// FormatUnits converts a raw fixed-point integer into a human-readable
// decimal string using the given number of decimals. Trailing zeros in the
// fractional part are trimmed, so 2500000 with 6 decimals yields "2.5" and
// 1000000 yields "1". The result round-trips through ParseUnits.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}

	s := new(big.Int).Abs(raw).String()
	neg := raw.Sign() < 0

	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}

	whole := s[:len(s)-d]
	frac := s[len(s)-d:]
	frac = strings.TrimRight(frac, "0")

	out := whole
	if frac != "" {
		out = whole + "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseUnits converts a human-readable decimal string back into a raw
// fixed-point integer with the given number of decimals. It rejects values
// with more fractional digits than the target precision can represent.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty decimal value")
	}

	neg := false
	if strings.HasPrefix(value, "-") {
		neg = true
		value = value[1:]
	}

	parts := strings.SplitN(value, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid decimal value %q", value)
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("value %q exceeds %d decimal places", value, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	raw, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal value %q", value)
	}
	if neg {
		raw.Neg(raw)
	}
	return raw, nil
}

// FormatRatioPercent renders a raw collateral ratio (fixed-point percentage
// with TGHSXDecimals precision) as a percent string with two fractional
// digits, e.g. 150000000 -> "150.00%".
func FormatRatioPercent(raw *big.Int) string {
	if raw == nil {
		return "0.00%"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(TGHSXDecimals), nil)
	whole, rem := new(big.Int).QuoRem(new(big.Int).Abs(raw), scale, new(big.Int))

	// Keep two fractional digits, truncating the rest.
	hundredths := new(big.Int).Div(new(big.Int).Mul(rem, big.NewInt(100)), scale)

	sign := ""
	if raw.Sign() < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02d%%", sign, whole.String(), hundredths.Int64())
}
