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

// Package errs 統一錯誤型別。
//
// 等級決定上層怎麼處理：Fatal 為設定或不變量錯誤，Warn 為可預期的拒絕（例如下注不合法），
// Log 只需記錄。Code 是對外穩定的機器可讀代碼，HTTP 邊界據此映射狀態碼。
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrLevel 錯誤等級
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

func (l ErrLevel) String() string {
	switch l {
	case Fatal:
		return "fatal"
	case Warn:
		return "warn"
	case Log:
		return "log"
	}
	return ""
}

// 跨套件共用的代碼
const (
	CodeNotFound    = "notFound"
	CodeUnavailable = "unavailable"
)

// E 錯誤本體。Code 為空代表沒有代碼；Cause 為被包裝的下層錯誤。
type E struct {
	Message string
	Extra   string
	Code    string
	Cause   error
	ErrLv   ErrLevel
}

func (e *E) Error() string {
	var sb strings.Builder
	sb.WriteString("errlv=")
	sb.WriteString(e.ErrLv.String())
	if e.Code != "" {
		sb.WriteString(" code=")
		sb.WriteString(e.Code)
	}
	sb.WriteByte(' ')
	sb.WriteString(e.Message)
	if e.Extra != "" {
		sb.WriteString(" | extra: ")
		sb.WriteString(e.Extra)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, " (cause: %v)", e.Cause)
	}
	return sb.String()
}

func (e *E) Unwrap() error { return e.Cause }

// Is 有代碼的錯誤以代碼比對（不看訊息）；沒有代碼的只能靠指標相等
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Code != "" && e.Code == t.Code
}

// WithCode 設定代碼，回傳自身
func (e *E) WithCode(code string) *E {
	e.Code = code
	return e
}

// ====== 建構 ======

func NewCode(lv ErrLevel, code string, msg string) *E {
	return &E{Message: msg, Code: code, ErrLv: lv}
}

func NewWithExtra(lv ErrLevel, msg string, extra string) *E {
	return &E{Message: msg, Extra: extra, ErrLv: lv}
}

func NewFatal(msg string) *E { return &E{Message: msg, ErrLv: Fatal} }
func NewWarn(msg string) *E  { return &E{Message: msg, ErrLv: Warn} }
func NewLog(msg string) *E   { return &E{Message: msg, ErrLv: Log} }

func Fatalf(format string, a ...any) *E { return NewFatal(fmt.Sprintf(format, a...)) }
func Warnf(format string, a ...any) *E  { return NewWarn(fmt.Sprintf(format, a...)) }

// ====== 包裝 ======
//
// 包裝後的等級沿用 cause 鏈上第一個 *E 的等級；外部錯誤（標準庫、第三方）一律視為 Fatal。
// 已知可處理的情境應直接建立 Warn 錯誤，不要包裝。

func Wrap(cause error, msg string) *E {
	lv := LevelOf(cause)
	if lv == None {
		lv = Fatal
	}
	return &E{Message: msg, Cause: cause, ErrLv: lv}
}

func Wrapf(cause error, format string, a ...any) *E {
	return Wrap(cause, fmt.Sprintf(format, a...))
}

func WrapWithExtra(cause error, msg string, extra string) *E {
	e := Wrap(cause, msg)
	e.Extra = extra
	return e
}

// ====== 查詢 ======

// CodeOf 錯誤鏈上第一個非空代碼
func CodeOf(err error) string {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*E); ok && e.Code != "" {
			return e.Code
		}
	}
	return ""
}

// LevelOf nil 為 None；非本包錯誤為 Fatal
func LevelOf(err error) ErrLevel {
	if err == nil {
		return None
	}
	var e *E
	if errors.As(err, &e) {
		return e.ErrLv
	}
	return Fatal
}
