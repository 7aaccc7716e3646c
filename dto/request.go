// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dto 定義 HTTP 邊界的請求與回應結構。
//
// 這裡只負責解碼（decode）、型別轉換與欄位格式檢查（validator/v10），
// 不做任何遊戲合法性校驗；下注是否合法一律由 session 決定，拒絕時回傳原因代碼。
package dto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/spec"
)

// POST body 上限 1MiB
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// OpenSessionRequest 開局
type OpenSessionRequest struct {
	GameId  spec.GID `json:"gid"`
	Balance int64    `json:"balance" validate:"gte=0"`
	Seed    *int64   `json:"seed,omitempty"`
}

// SpinRequest 下注一轉。bet 不在此檢查，非法下注由 session 以原因代碼拒絕。
type SpinRequest struct {
	Bet int64 `json:"bet"`
}

// ResumeRequest 以 Checkpoint 取得的 token 還原機台
type ResumeRequest struct {
	Checkpoint string `json:"checkpoint_b64u" validate:"required"`
}

// SimRequest 模擬請求。Players > 0 時改走玩家模擬（每位玩家帶 Balance 入場）。
type SimRequest struct {
	GameId  spec.GID `json:"gid"`
	Bet     int64    `json:"bet"               validate:"gt=0"`
	Rounds  int      `json:"rounds"            validate:"gte=1,lte=1000000"`
	Workers int      `json:"workers,omitempty" validate:"gte=0,lte=16"`
	Players int      `json:"players,omitempty" validate:"gte=0,lte=100000"`
	Balance int      `json:"balance,omitempty" validate:"required_with=Players,gte=0"`
	Seed    *int64   `json:"seed,omitempty"`
}

// SimConfigRequest 以外部設定（例如調整權重後的版本）模擬，gid 與名稱需對應目錄中同一款遊戲
type SimConfigRequest struct {
	Format string `json:"format" validate:"oneof=json yaml"`
	Config string `json:"cfg"    validate:"required"`
	Bet    int64  `json:"bet"    validate:"gt=0"`
	Rounds int    `json:"rounds" validate:"gte=1,lte=1000000"`
	Seed   *int64 `json:"seed,omitempty"`
}

// FitRequest 滾輪分布檢定
type FitRequest struct {
	GameId spec.GID `json:"gid"`
	Draws  int      `json:"draws" validate:"gte=100,lte=2000000"`
	Seed   *int64   `json:"seed,omitempty"`
}

// DecodeJSON 解碼 POST JSON body：大小限制 1MiB，未知欄位一律拒絕，最後做欄位檢查。
func DecodeJSON[T any](r *http.Request) (*T, error) {
	if r == nil || r.Body == nil {
		return nil, errs.NewWarn("empty request body")
	}
	dst := new(T)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "invalid json", err.Error())
	}
	if err := Validate(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Validate 以 struct tag 檢查欄位，失敗為 errs.Warn
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return errs.NewWithExtra(errs.Warn, "invalid request", err.Error())
	}
	return nil
}

// DecodeSimQuery GET /v1/sim?gid=1&bet=10&rounds=1000
func DecodeSimQuery(q url.Values) (*SimRequest, error) {
	req := new(SimRequest)
	var err error
	if req.GameId, err = gidParam(q); err != nil {
		return nil, err
	}
	if req.Bet, err = intParam[int64](q, "bet", true); err != nil {
		return nil, err
	}
	if req.Rounds, err = intParam[int](q, "rounds", true); err != nil {
		return nil, err
	}
	if req.Workers, err = intParam[int](q, "workers", false); err != nil {
		return nil, err
	}
	if req.Players, err = intParam[int](q, "players", false); err != nil {
		return nil, err
	}
	if req.Balance, err = intParam[int](q, "balance", false); err != nil {
		return nil, err
	}
	if q.Get("seed") != "" {
		seed, err := intParam[int64](q, "seed", true)
		if err != nil {
			return nil, err
		}
		req.Seed = &seed
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// DecodeFitQuery GET /v1/fit?gid=1&draws=200000
func DecodeFitQuery(q url.Values) (*FitRequest, error) {
	req := new(FitRequest)
	var err error
	if req.GameId, err = gidParam(q); err != nil {
		return nil, err
	}
	if req.Draws, err = intParam[int](q, "draws", true); err != nil {
		return nil, err
	}
	if q.Get("seed") != "" {
		seed, err := intParam[int64](q, "seed", true)
		if err != nil {
			return nil, err
		}
		req.Seed = &seed
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseGID 解析路徑上的遊戲編號
func ParseGID(s string) (spec.GID, error) {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, errs.Warnf("gid must be non-negative integer: %q", s)
	}
	return spec.GID(u), nil
}

func gidParam(q url.Values) (spec.GID, error) {
	s := q.Get("gid")
	if s == "" {
		return 0, errs.NewWarn("gid is required")
	}
	return ParseGID(s)
}

func intParam[T int | int64](q url.Values, key string, required bool) (T, error) {
	s := q.Get(key)
	if s == "" {
		if required {
			return 0, errs.NewWarn(fmt.Sprintf("%s is required", key))
		}
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errs.NewWarn(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return T(v), nil
}

// EncodeCheckpoint 以 URL-safe base64（無 padding）傳輸 checkpoint
func EncodeCheckpoint(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCheckpoint(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "decode checkpoint_b64u failed", err.Error())
	}
	return b, nil
}
