package execution

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// routerABI describes the four router-contract methods a bundle step can
// call. A real deployment would load this from the router's verified
// ABI; this core ships a fixed, minimal surface covering exactly the
// step types GenerateBundle produces.
const routerABIJSON = `[
	{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}]},
	{"name":"swap","type":"function","inputs":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"minAmountOut","type":"uint256"}]},
	{"name":"createToken","type":"function","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"initialSupply","type":"uint256"}]},
	{"name":"addLiquidity","type":"function","inputs":[{"name":"token","type":"address"},{"name":"amountToken","type":"uint256"},{"name":"amountETHMin","type":"uint256"}]}
]`

var routerABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic("execution: invalid router ABI: " + err.Error())
	}
	routerABI = parsed
}

func methodNameFor(stepType StepType) string {
	switch stepType {
	case StepApprove:
		return "approve"
	case StepSwap:
		return "swap"
	case StepCreateToken:
		return "createToken"
	case StepAddLiquidity:
		return "addLiquidity"
	default:
		return ""
	}
}

// minOutputForSlippage derives the minimum acceptable output amount from
// a basis-points slippage tolerance: amount * (10000 - bps) / 10000.
func minOutputForSlippage(amount *big.Int, maxSlippageBps int) *big.Int {
	numerator := big.NewInt(10_000 - int64(maxSlippageBps))
	out := new(big.Int).Mul(amount, numerator)
	return out.Div(out, big.NewInt(10_000))
}

// buildCalldata ABI-encodes one step's call against the fixed router
// ABI. params.Token is treated as a hex address for approve/swap/
// addLiquidity steps and as a raw name/symbol for createToken, matching
// what GenerateBundle's caller actually has on hand at planning time —
// the real router/token addresses are resolved later by the submission
// provider, not by this core. A step type with no ABI entry encodes to
// nil rather than panicking.
func buildCalldata(stepType StepType, params TradeParams) []byte {
	name := methodNameFor(stepType)
	if name == "" {
		return nil
	}

	tokenAddr := common.HexToAddress(params.Token)
	amount := params.AmountWei.Big()

	var packed []byte
	var err error

	switch stepType {
	case StepApprove:
		packed, err = routerABI.Pack(name, tokenAddr, amount)
	case StepSwap:
		minOut := minOutputForSlippage(amount, params.MaxSlippageBps)
		packed, err = routerABI.Pack(name, tokenAddr, tokenAddr, amount, minOut)
	case StepCreateToken:
		packed, err = routerABI.Pack(name, params.Token, params.Token, amount)
	case StepAddLiquidity:
		minOut := minOutputForSlippage(amount, params.MaxSlippageBps)
		packed, err = routerABI.Pack(name, tokenAddr, amount, minOut)
	}
	if err != nil {
		return nil
	}
	return packed
}
