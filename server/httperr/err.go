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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/slot"
)

// Body 錯誤回應
type Body struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
//   - ctx timeout/cancel      → 504/408
//   - 下注拒絕（帶原因代碼）  → 422
//   - session 轉動中          → 409
//   - 找不到遊戲或 session    → 404
//   - runtime 已關閉          → 503
//   - errs.Warn               → 400
//   - errs.Fatal              → 500
//
// 本函數屬於 HTTP 邊界層，核心錯誤包不依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, slot.ErrBusy):
		return http.StatusConflict
	case bet.Reason(err) != "":
		return http.StatusUnprocessableEntity
	}
	switch errs.CodeOf(err) {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	switch errs.LevelOf(err) {
	case errs.Warn:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Errs 寫回 JSON 錯誤：{"error": ..., "code": ...}
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Error: err.Error(), Code: errs.CodeOf(err)})
}

// Log 只記錄值得關注的錯誤：逾時/衝突記 Warn，5xx 記 Error
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err), slog.Int("status", status))
	case status >= 500:
		log.Error(msg, slog.Any("err", err), slog.Int("status", status))
	}
}
