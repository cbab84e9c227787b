package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 中文说明：
// 阶梯买单定价（纯函数）：从现价向下等距铺 N 档限价买单，
// 预算按 (1+increment)^i 几何加权——越低的档位分到越多预算，
// 摊低持仓均价。低于最小名义金额的档位并入上一档，不再单独挂出。

// LadderParams 阶梯参数。
type LadderParams struct {
	Budget       float64 // 总预算（计价币）
	OrderCount   int     // 档位数量
	MaxDropPct   float64 // 最低档相对现价的最大跌幅（%）
	IncrementPct float64 // 逐档预算加权幅度（%）
	MinNotional  float64 // 单档最小名义金额，低于则并档
	LotStep      float64 // 数量步长，0 表示不量化
	TickSize     float64 // 价格最小变动，0 表示不量化
}

// Leg 一档买单。
type Leg struct {
	Price    float64
	Quantity float64
}

// Ladder 计算阶梯买单。价格从 start*(1-drop/N) 线性下探到 start*(1-drop)。
// 预算不足以挂出任何一档时返回错误。
func Ladder(startPrice float64, p LadderParams) ([]Leg, error) {
	if startPrice <= 0 {
		return nil, fmt.Errorf("现价非法: %v", startPrice)
	}
	if p.Budget <= 0 || p.OrderCount <= 0 {
		return nil, fmt.Errorf("阶梯参数非法: budget=%v count=%d", p.Budget, p.OrderCount)
	}
	if p.MaxDropPct <= 0 || p.MaxDropPct >= 100 {
		return nil, fmt.Errorf("max_drop_pct 非法: %v", p.MaxDropPct)
	}

	n := p.OrderCount
	// 几何权重归一化到预算
	weights := make([]float64, n)
	totalW := 0.0
	w := 1.0
	growth := 1 + p.IncrementPct/100
	for i := 0; i < n; i++ {
		weights[i] = w
		totalW += w
		w *= growth
	}
	shares := make([]float64, n)
	for i := 0; i < n; i++ {
		shares[i] = p.Budget * weights[i] / totalW
	}

	// 低于最小名义金额的档位并入上一档（更高价位）
	if p.MinNotional > 0 {
		for i := n - 1; i >= 1; i-- {
			if shares[i] > 0 && shares[i] < p.MinNotional {
				shares[i-1] += shares[i]
				shares[i] = 0
			}
		}
		if shares[0] > 0 && shares[0] < p.MinNotional {
			merged := false
			for i := 1; i < n; i++ {
				if shares[i] > 0 {
					shares[i] += shares[0]
					shares[0] = 0
					merged = true
					break
				}
			}
			if !merged {
				return nil, fmt.Errorf("预算 %.2f 低于最小下单金额 %.2f", p.Budget, p.MinNotional)
			}
		}
	}

	legs := make([]Leg, 0, n)
	for i := 0; i < n; i++ {
		if shares[i] <= 0 {
			continue
		}
		price := startPrice * (1 - p.MaxDropPct/100*float64(i+1)/float64(n))
		price = AdjustToStep(price, p.TickSize)
		if price <= 0 {
			continue
		}
		qty := AdjustToStep(shares[i]/price, p.LotStep)
		if qty <= 0 {
			continue
		}
		legs = append(legs, Leg{Price: price, Quantity: qty})
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("阶梯计算结果为空（预算或精度过小）")
	}
	return legs, nil
}

// AdjustToStep 按步长向下量化；step<=0 时原样返回。
func AdjustToStep(v, step float64) float64 {
	if v <= 0 {
		return 0
	}
	if step <= 0 {
		return v
	}
	d := decimal.NewFromFloat(v)
	s := decimal.NewFromFloat(step)
	out, _ := d.Div(s).Floor().Mul(s).Float64()
	return out
}
