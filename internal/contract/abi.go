package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments for the external contracts this service talks to. Only the
// methods and events the backend consumes are declared; the contracts
// themselves are collaborators and are never reimplemented here.

const vaultABIJSON = `[
  {"type":"function","name":"getAllCollateralTokens","stateMutability":"view","inputs":[],"outputs":[{"name":"tokens","type":"address[]"}]},
  {"type":"function","name":"collateralConfigs","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[
    {"name":"enabled","type":"bool"},
    {"name":"price","type":"uint256"},
    {"name":"priceDecimals","type":"uint8"},
    {"name":"lastPriceUpdate","type":"uint256"},
    {"name":"decimals","type":"uint8"}]},
  {"type":"function","name":"getUserPosition","stateMutability":"view","inputs":[{"name":"user","type":"address"},{"name":"collateral","type":"address"}],"outputs":[
    {"name":"collateralAmount","type":"uint256"},
    {"name":"mintedAmount","type":"uint256"},
    {"name":"collateralValue","type":"uint256"},
    {"name":"collateralRatio","type":"uint256"},
    {"name":"isLiquidatable","type":"bool"},
    {"name":"lastUpdateTime","type":"uint256"}]},
  {"type":"function","name":"getVaultStatus","stateMutability":"view","inputs":[],"outputs":[
    {"name":"totalMinted","type":"uint256"},
    {"name":"globalDailyMinted","type":"uint256"},
    {"name":"globalDailyRemaining","type":"uint256"},
    {"name":"autoMintEnabled","type":"bool"},
    {"name":"paused","type":"bool"},
    {"name":"totalCollateralTypes","type":"uint256"}]},
  {"type":"function","name":"autoMintConfig","stateMutability":"view","inputs":[],"outputs":[
    {"name":"baseReward","type":"uint256"},
    {"name":"bonusMultiplier","type":"uint256"},
    {"name":"minHoldTime","type":"uint256"},
    {"name":"collateralRequirement","type":"uint256"}]},
  {"type":"function","name":"autoMintEnabled","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"MIN_COLLATERAL_RATIO","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"totalValueLocked","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"emergencyPause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"emergencyUnpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"updatePrice","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"price","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"toggleAutoMint","stateMutability":"nonpayable","inputs":[{"name":"enabled","type":"bool"}],"outputs":[]},
  {"type":"function","name":"updateAutoMintConfig","stateMutability":"nonpayable","inputs":[
    {"name":"baseReward","type":"uint256"},
    {"name":"bonusMultiplier","type":"uint256"},
    {"name":"minHoldTime","type":"uint256"},
    {"name":"collateralRequirement","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"updateCollateralEnabled","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"enabled","type":"bool"}],"outputs":[]},
  {"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"collateral","type":"address"}],"outputs":[]},
  {"type":"event","name":"CollateralDeposited","inputs":[{"name":"user","type":"address","indexed":true},{"name":"collateral","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"event","name":"CollateralWithdrawn","inputs":[{"name":"user","type":"address","indexed":true},{"name":"collateral","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"event","name":"TGHSXMinted","inputs":[{"name":"user","type":"address","indexed":true},{"name":"collateral","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"event","name":"TGHSXBurned","inputs":[{"name":"user","type":"address","indexed":true},{"name":"collateral","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false}
]`

const erc20ABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const aggregatorABIJSON = `[
  {"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[],"outputs":[
    {"name":"roundId","type":"uint80"},
    {"name":"answer","type":"int256"},
    {"name":"startedAt","type":"uint256"},
    {"name":"updatedAt","type":"uint256"},
    {"name":"answeredInRound","type":"uint80"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

var (
	vaultABI      = mustParseABI(vaultABIJSON)
	erc20ABI      = mustParseABI(erc20ABIJSON)
	aggregatorABI = mustParseABI(aggregatorABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contract: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
