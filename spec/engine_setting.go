package spec

import (
	"fmt"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/streak"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

// GID 遊戲編號
type GID uint

// EngineSetting 一款三輪拉霸的完整設定
type EngineSetting struct {
	GameName      string           `yaml:"game_name"      json:"game_name"      validate:"required"`
	GameID        GID              `yaml:"game_id"        json:"game_id"`
	Symbols       []symbol.Symbol  `yaml:"symbols"        json:"symbols"        validate:"required,min=1,dive"`
	JackpotSymbol symbol.ID        `yaml:"jackpot_symbol" json:"jackpot_symbol" validate:"required"`
	Bet           bet.Limits       `yaml:"bet"            json:"bet"`
	Pity          PitySetting      `yaml:"pity"           json:"pity"`
	Jackpot       JackpotSetting   `yaml:"jackpot"        json:"jackpot"`
	PartialRule   calc.PartialRule `yaml:"partial"        json:"partial"`

	table *symbol.Table
	curve streak.Curve
}

// PitySetting 保底曲線設定。Base 省略時取圖標表的自然三連線機率。
type PitySetting struct {
	Base   *float64 `yaml:"base,omitempty" json:"base,omitempty" validate:"omitempty,gte=0"`
	Cap    float64  `yaml:"cap"            json:"cap"            validate:"gte=0,lt=0.9"`
	Growth float64  `yaml:"growth"         json:"growth"         validate:"gt=0"`
}

// JackpotSetting 彩金池設定
type JackpotSetting struct {
	SeedAmount       int64   `yaml:"seed_amount"       json:"seed_amount"       validate:"gte=0"`
	ContributionRate float64 `yaml:"contribution_rate" json:"contribution_rate" validate:"gte=0,lt=1"`
	jackpot.Odds     `yaml:",inline"`
}

// init 欄位檢查後建立衍生物件，任何錯誤皆為 Fatal
func (es *EngineSetting) init() error {
	if err := validate.Struct(es); err != nil {
		return errs.WrapWithExtra(err, "invalid engine setting", es.GameName)
	}
	tb, err := symbol.New(es.Symbols)
	if err != nil {
		return err
	}
	if !tb.Has(es.JackpotSymbol) {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err: jackpot_symbol %q not in symbols", es.GameName, es.JackpotSymbol))
	}
	if err := es.Bet.Valid(); err != nil {
		return err
	}
	if err := es.PartialRule.Valid(); err != nil {
		return err
	}

	c := streak.Curve{Cap: es.Pity.Cap, Growth: es.Pity.Growth}
	if es.Pity.Base != nil {
		c.Base = *es.Pity.Base
	} else {
		c.Base = min(tb.LineProbability(), c.Cap)
	}
	if err := c.Valid(); err != nil {
		return err
	}
	if _, err := es.NewPool(); err != nil {
		return err
	}
	es.table = tb
	es.curve = c
	return nil
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// Table 圖標目錄
func (es *EngineSetting) Table() *symbol.Table { return es.table }

// Curve 保底曲線（Base 已補上預設值）
func (es *EngineSetting) Curve() streak.Curve { return es.curve }

// Odds 彩金觸發機率
func (es *EngineSetting) Odds() jackpot.Odds { return es.Jackpot.Odds }

// Limits 下注上下限
func (es *EngineSetting) Limits() bet.Limits { return es.Bet }

// Partial 兩連線規則
func (es *EngineSetting) Partial() calc.PartialRule { return es.PartialRule }

// NewPool 依設定建立新的彩金池
func (es *EngineSetting) NewPool() (*jackpot.Pool, error) {
	return jackpot.NewPool(es.Jackpot.SeedAmount, es.Jackpot.ContributionRate, es.Jackpot.Odds)
}
