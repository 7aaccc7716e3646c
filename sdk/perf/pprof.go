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

// Package perf 包裝 runtime/pprof，讓模擬指令可以選擇性輸出 profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/reelkit/errs"
)

// DefaultDir pprof 檔案預設寫入路徑
const DefaultDir = "build/profiling"

// Mode profile 種類
type Mode string

const (
	Off    Mode = ""
	CPU    Mode = "cpu"
	Heap   Mode = "heap"
	Allocs Mode = "allocs"
)

// ParseMode 無法辨識時回傳錯誤
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Off, CPU, Heap, Allocs:
		return m, nil
	default:
		return Off, errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", s)
	}
}

// Run 依 mode 執行 exe 並把 profile 寫到 dir/<mode>.pprof。
//   - cpu：exe 執行期間取樣，也可作為 PGO 的輸入
//   - heap：exe 結束後 GC 一次再拍 in-use 快照
//   - allocs：exe 結束後寫出累積配置
//
// dir 為空時使用 DefaultDir。exe 的錯誤優先回傳。
func Run(exe func() error, mode Mode, dir string) error {
	if mode == Off {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create pprof dir")
	}
	f, err := os.Create(filepath.Join(dir, string(mode)+".pprof"))
	if err != nil {
		return errs.Wrapf(err, "create %s.pprof", mode)
	}
	defer f.Close()

	switch mode {
	case CPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			return errs.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()
		return exe()
	case Heap:
		if err := exe(); err != nil {
			return err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errs.Wrap(err, "write heap profile")
		}
	case Allocs:
		if err := exe(); err != nil {
			return err
		}
		if prof := pprof.Lookup("allocs"); prof != nil {
			if err := prof.WriteTo(f, 0); err != nil {
				return errs.Wrap(err, "write allocs profile")
			}
		}
	}
	return nil
}
