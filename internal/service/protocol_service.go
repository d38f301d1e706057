package service

import (
	"context"
	"math/big"

	"github.com/tghsx-backend/internal/types"
)

// ProtocolService computes protocol-wide health figures by combining live
// chain reads with the off-chain snapshot mirror.
type ProtocolService struct {
	vault     VaultReader
	snapshots SnapshotStore
	requests  MintRequestStore
}

// NewProtocolService creates a new protocol service
func NewProtocolService(vault VaultReader, snapshots SnapshotStore, requests MintRequestStore) *ProtocolService {
	return &ProtocolService{vault: vault, snapshots: snapshots, requests: requests}
}

// HealthReport is the protocol health summary.
type HealthReport struct {
	TotalValueLocked  string `json:"totalValueLocked"`
	TotalMinted       string `json:"totalMinted"`
	Paused            bool   `json:"paused"`
	VaultCount        int    `json:"vaultCount"`
	TotalApprovedDebt string `json:"totalApprovedDebt"`
	AverageMinted     string `json:"averageMinted"`
}

// Health builds the protocol health report. Chain figures are live; vault
// count and averages come from the snapshot mirror and are therefore as
// fresh as the last sync cycle.
func (s *ProtocolService) Health(ctx context.Context) (*HealthReport, error) {
	tvl, err := s.vault.TotalValueLocked(ctx)
	if err != nil {
		return nil, chainError(err)
	}
	status, err := s.vault.GetVaultStatus(ctx)
	if err != nil {
		return nil, chainError(err)
	}

	snaps, err := s.snapshots.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	totalMinted := new(big.Int)
	active := 0
	for _, snap := range snaps {
		minted, err := types.ParseUnits(snap.MintedAmount, types.TGHSXDecimals)
		if err != nil {
			continue
		}
		if minted.Sign() > 0 {
			active++
			totalMinted.Add(totalMinted, minted)
		}
	}

	average := new(big.Int)
	if active > 0 {
		average.Quo(totalMinted, big.NewInt(int64(active)))
	}

	approvedDebt, err := s.approvedDebt(ctx)
	if err != nil {
		return nil, err
	}

	return &HealthReport{
		TotalValueLocked:  types.FormatUnits(tvl, types.TGHSXDecimals),
		TotalMinted:       types.FormatUnits(status.TotalMinted, types.TGHSXDecimals),
		Paused:            status.Paused,
		VaultCount:        active,
		TotalApprovedDebt: types.FormatUnits(approvedDebt, types.TGHSXDecimals),
		AverageMinted:     types.FormatUnits(average, types.TGHSXDecimals),
	}, nil
}

// approvedDebt sums the mint requests an admin has approved but users have
// not necessarily executed on-chain yet.
func (s *ProtocolService) approvedDebt(ctx context.Context) (*big.Int, error) {
	approved, err := s.requests.ListByStatus(ctx, types.MintStatusApproved)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	for _, req := range approved {
		amount, err := types.ParseUnits(req.MintAmount, types.TGHSXDecimals)
		if err != nil {
			continue
		}
		total.Add(total, amount)
	}
	return total, nil
}
