package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/types"
)

// fakeVault is an in-memory VaultReader/VaultWriter.
type fakeVault struct {
	tokens    []common.Address
	configs   map[common.Address]*contract.CollateralConfig
	positions map[string]*contract.UserPosition // key: wallet|collateral
	status    *contract.VaultStatus
	minRatio  *big.Int
	tvl       *big.Int
	readErr   error

	writeCalls []string
	writeErr   error
}

func positionKey(user, collateral common.Address) string {
	return user.Hex() + "|" + collateral.Hex()
}

func (f *fakeVault) GetAllCollateralTokens(context.Context) ([]common.Address, error) {
	return f.tokens, f.readErr
}

func (f *fakeVault) GetCollateralConfig(_ context.Context, token common.Address) (*contract.CollateralConfig, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	cfg, ok := f.configs[token]
	if !ok {
		return nil, fmt.Errorf("no config for %s", token.Hex())
	}
	return cfg, nil
}

func (f *fakeVault) GetUserPosition(_ context.Context, user, collateral common.Address) (*contract.UserPosition, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if p, ok := f.positions[positionKey(user, collateral)]; ok {
		return p, nil
	}
	zero := big.NewInt(0)
	return &contract.UserPosition{
		CollateralAmount: zero, MintedAmount: zero, CollateralValue: zero,
		CollateralRatio: zero, LastUpdateTime: zero,
	}, nil
}

func (f *fakeVault) GetVaultStatus(context.Context) (*contract.VaultStatus, error) {
	return f.status, f.readErr
}

func (f *fakeVault) GetAutoMintConfig(context.Context) (*contract.AutoMintConfig, error) {
	return &contract.AutoMintConfig{
		BaseReward:            big.NewInt(1000000),
		BonusMultiplier:       big.NewInt(2),
		MinHoldTime:           big.NewInt(3600),
		CollateralRequirement: big.NewInt(500000000),
	}, f.readErr
}

func (f *fakeVault) MinCollateralRatio(context.Context) (*big.Int, error) {
	return f.minRatio, f.readErr
}

func (f *fakeVault) TotalValueLocked(context.Context) (*big.Int, error) {
	return f.tvl, f.readErr
}

func (f *fakeVault) TokenMetadata(_ context.Context, token common.Address) (*contract.TokenMetadata, error) {
	return &contract.TokenMetadata{Name: "Wrapped Ether", Symbol: "WETH", Decimals: 18}, f.readErr
}

func (f *fakeVault) write(name string) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.writeCalls = append(f.writeCalls, name)
	return "0xfeed", nil
}

func (f *fakeVault) EmergencyPause(context.Context) (string, error)   { return f.write("pause") }
func (f *fakeVault) EmergencyUnpause(context.Context) (string, error) { return f.write("unpause") }
func (f *fakeVault) UpdatePrice(_ context.Context, token common.Address, price *big.Int) (string, error) {
	return f.write("updatePrice " + token.Hex() + " " + price.String())
}
func (f *fakeVault) ToggleAutoMint(_ context.Context, enabled bool) (string, error) {
	return f.write(fmt.Sprintf("toggleAutoMint %v", enabled))
}
func (f *fakeVault) UpdateAutoMintConfig(context.Context, contract.AutoMintConfig) (string, error) {
	return f.write("updateAutoMintConfig")
}
func (f *fakeVault) UpdateCollateralEnabled(_ context.Context, token common.Address, enabled bool) (string, error) {
	return f.write(fmt.Sprintf("updateCollateralEnabled %s %v", token.Hex(), enabled))
}
func (f *fakeVault) Liquidate(_ context.Context, user, collateral common.Address) (string, error) {
	return f.write("liquidate " + user.Hex() + " " + collateral.Hex())
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	if _, taken := f.byEmail[user.Email]; taken {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", storage.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("user: %w", storage.ErrNotFound)
	}
	return u, nil
}

// fakeProfiles is an in-memory ProfileStore.
type fakeProfiles struct {
	byUser   map[string]*models.Profile
	byWallet map[string]string // wallet -> userID
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		byUser:   make(map[string]*models.Profile),
		byWallet: make(map[string]string),
	}
}

func (f *fakeProfiles) add(userID string, wallet *string) {
	f.byUser[userID] = &models.Profile{UserID: userID, WalletAddress: wallet}
	if wallet != nil {
		f.byWallet[*wallet] = userID
	}
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	p, ok := f.byUser[userID]
	if !ok {
		return nil, fmt.Errorf("profile: %w", storage.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProfiles) LinkWallet(_ context.Context, userID, wallet string) error {
	if owner, taken := f.byWallet[wallet]; taken && owner != userID {
		return fmt.Errorf("wallet %s: %w", wallet, storage.ErrDuplicate)
	}
	p, ok := f.byUser[userID]
	if !ok {
		return fmt.Errorf("profile: %w", storage.ErrNotFound)
	}
	p.WalletAddress = &wallet
	f.byWallet[wallet] = userID
	return nil
}

func (f *fakeProfiles) ListLinked(context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.byUser {
		if p.WalletAddress != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeMintRequests is an in-memory MintRequestStore.
type fakeMintRequests struct {
	requests map[string]*models.MintRequest
}

func newFakeMintRequests() *fakeMintRequests {
	return &fakeMintRequests{requests: make(map[string]*models.MintRequest)}
}

func (f *fakeMintRequests) Create(_ context.Context, req *models.MintRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	clone := *req
	f.requests[req.ID] = &clone
	return nil
}

func (f *fakeMintRequests) GetByID(_ context.Context, id string) (*models.MintRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("mint request: %w", storage.ErrNotFound)
	}
	return req, nil
}

func (f *fakeMintRequests) ListByStatus(_ context.Context, status types.MintRequestStatus) ([]models.MintRequest, error) {
	var out []models.MintRequest
	for _, req := range f.requests {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeMintRequests) ListByUser(_ context.Context, userID string) ([]models.MintRequest, error) {
	var out []models.MintRequest
	for _, req := range f.requests {
		if req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeMintRequests) UpdateStatus(_ context.Context, id string, status types.MintRequestStatus, errorMessage *string) error {
	req, ok := f.requests[id]
	if !ok || req.Status != types.MintStatusPending {
		return fmt.Errorf("pending mint request %s: %w", id, storage.ErrNotFound)
	}
	req.Status = status
	req.ErrorMessage = errorMessage
	return nil
}

// fakeSnapshots is an in-memory SnapshotStore.
type fakeSnapshots struct {
	snaps []models.VaultSnapshot
}

func (f *fakeSnapshots) ListByUser(_ context.Context, userID string) ([]models.VaultSnapshot, error) {
	var out []models.VaultSnapshot
	for _, s := range f.snaps {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) ListAll(context.Context) ([]models.VaultSnapshot, error) {
	return f.snaps, nil
}
