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

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/server"
	"github.com/zintix-labs/reelkit/server/logger"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// 內建示範遊戲的 HTTP 服務。
// 旗標預設值可由環境變數（或 .env）覆寫：REELKIT_ADDR、REELKIT_LOG_MODE、REELKIT_LOG_FILE、
// REELKIT_MAX_SESSIONS、REELKIT_SESSION_TTL、REELKIT_CONFIG_DIR。
func main() {
	_ = godotenv.Load() // .env 不存在時忽略

	cfg, closer, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer()
	server.Run(cfg)
}

type config struct {
	Addr        string
	LogMode     string
	LogFile     string
	ConfigDir   string
	MaxSessions int
	SessionTTL  time.Duration
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", env("REELKIT_ADDR", ":5808"), "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", env("REELKIT_LOG_MODE", "dev"), "log mode: dev|prod|silence")
	flag.StringVar(&cfg.LogFile, "log-file", env("REELKIT_LOG_FILE", ""), "write logs to a rotating file instead of stdout/stderr")
	flag.StringVar(&cfg.ConfigDir, "config-dir", env("REELKIT_CONFIG_DIR", ""), "extra directory of game configs (*.yaml|*.json)")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", envInt("REELKIT_MAX_SESSIONS", 10000), "max live sessions")
	flag.DurationVar(&cfg.SessionTTL, "session-ttl", envDuration("REELKIT_SESSION_TTL", 30*time.Minute), "idle session ttl")
	flag.Parse()

	mode, ok := logger.ParseMode(cfg.LogMode)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log mode %q", cfg.LogMode)
	}

	var (
		log    *slog.Logger
		ah     *logger.AsyncHandler
		closer io.Closer
	)
	if cfg.LogFile != "" {
		log, ah, closer = logger.NewRotating(cfg.LogFile, mode, logger.RotateOptions{Compress: true})
	} else {
		log, ah = logger.NewAsync(4096, mode)
	}
	done := func() {
		ah.Close()
		if closer != nil {
			_ = closer.Close()
		}
	}

	srcs := reelkit.Configs(demo_configs.FS)
	if cfg.ConfigDir != "" {
		srcs = append(srcs, os.DirFS(cfg.ConfigDir))
	}
	kit, err := reelkit.NewAuto(core.Default(), srcs)
	if err != nil {
		done()
		return nil, nil, err
	}
	return &svrcfg.SvrCfg{
		Log:         log,
		Kit:         kit,
		Addr:        cfg.Addr,
		MaxSessions: cfg.MaxSessions,
		SessionTTL:  cfg.SessionTTL,
	}, done, nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}
