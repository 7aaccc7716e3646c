package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/perf"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

var cfg *config = new(config)

type config struct {
	name    string
	id      spec.GID
	worker  int
	player  int
	balance int
	bet     int64
	spins   int
	fit     int
	seed    int64
	format  string
	out     stats.Format
	cfgFile string
	pprof   perf.Mode
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return fmt.Sprint(uint(*f.p))
}

func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	cfg.id = 1
	var pmode string
	flag.Var(gidFlag{&cfg.id}, "game", "target game id")
	flag.Int64Var(&cfg.bet, "bet", 10, "bet per spin")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "player", 1, "number of players (>1 simulates player sessions)")
	flag.IntVar(&cfg.balance, "balance", 2000, "initial balance per player")
	flag.IntVar(&cfg.spins, "spins", 1000000, "spins per worker / per player")
	flag.IntVar(&cfg.fit, "fit", 0, "run reel chi-square fit with N draws instead of simulation")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.format, "format", "text", "report format: text|json|yaml")
	flag.StringVar(&cfg.cfgFile, "config", "", "simulate an adjusted config file (*.yaml|*.json) of a registered game")
	flag.StringVar(&pmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	m, err := perf.ParseMode(pmode)
	if err != nil {
		log.Fatal(err)
	}
	cfg.pprof = m

	// 非法 seed 改用 crypto 種子
	if cfg.seed < 1 {
		seed, err := core.NewSeed()
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	cfg.valid()

	kit, err := reelkit.NewAuto(core.Default(), reelkit.Configs(demo_configs.FS))
	if err != nil {
		return err
	}
	s, err := newSimulator(kit)
	if err != nil {
		return err
	}
	cfg.name = s.GameName

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.fit > 0 {
		p.Printf("%s[GAME:%s] [FIT DRAWS:%d]%s\n", green, cfg.name, cfg.fit, reset)
		rep, err := s.Fit(cfg.fit)
		if err != nil {
			return err
		}
		if cfg.out != stats.FormatText {
			return stats.Encode(os.Stdout, cfg.out, rep)
		}
		printFit(p, rep)
		return nil
	}

	if cfg.player == 1 { // 純機台模擬
		if cfg.worker == 1 {
			p.Printf("%s[GAME:%s] [BET:%d] [SPINS:%d]%s\n", green, cfg.name, cfg.bet, cfg.spins, reset)
			st, used, err := s.Sim(cfg.bet, cfg.spins, cfg.out == stats.FormatText)
			if err != nil {
				return err
			}
			return report(st, used)
		}
		p.Printf("%s[WORKERS:%d] [GAME:%s] [BET:%d] [SPINS:%d]%s\n", green, cfg.worker, cfg.name, cfg.bet, cfg.worker*cfg.spins, reset)
		st, used, err := s.SimMP(cfg.bet, cfg.spins, cfg.worker, cfg.out == stats.FormatText)
		if err != nil {
			return err
		}
		return report(st, used)
	}

	// 模擬多玩家體驗
	p.Printf("%s[WORKERS:%d] [GAME:%s] [PLAYERS:%d BALANCE:%d BET:%d SPINS:%d]%s\n",
		green, cfg.worker, cfg.name, cfg.player, cfg.balance, cfg.bet, cfg.spins, reset)
	st, est, used, err := s.SimPlayers(cfg.worker, cfg.player, cfg.balance, cfg.bet, cfg.spins, cfg.out == stats.FormatText)
	if err != nil {
		return err
	}
	if err := report(st, used); err != nil {
		return err
	}
	if cfg.out == stats.FormatText {
		return est.WriteText(os.Stdout)
	}
	return stats.Encode(os.Stdout, cfg.out, est)
}

func newSimulator(kit *reelkit.Kit) (*reelkit.Simulator, error) {
	if cfg.cfgFile == "" {
		return kit.NewSimulatorWithSeed(cfg.id, cfg.seed)
	}
	raw, err := os.ReadFile(cfg.cfgFile)
	if err != nil {
		return nil, err
	}
	switch ext := filepath.Ext(cfg.cfgFile); ext {
	case ".json":
		return kit.NewSimulatorByJSON(raw, cfg.seed)
	case ".yaml", ".yml":
		return kit.NewSimulatorByYAML(raw, cfg.seed)
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

func report(st *stats.StatReport, used time.Duration) error {
	if cfg.out == stats.FormatText {
		return st.WriteText(os.Stdout, used)
	}
	return st.Write(os.Stdout, cfg.out)
}

func printFit(p *message.Printer, rep *reelkit.FitReport) {
	for i, sym := range rep.Symbols {
		p.Printf("  %-10s observed=%-10d expected=%.4f observed%%=%.4f\n",
			sym, rep.Observed[i], rep.Expected[i], float64(rep.Observed[i])/float64(rep.Draws))
	}
	p.Printf("distribution: chi2=%.3f df=%d p=%.4f reject(0.01)=%v\n",
		rep.Distribution.Stat, rep.Distribution.DF, rep.Distribution.PValue, rep.Distribution.Reject(0.01))
	p.Printf("independence: chi2=%.3f df=%d p=%.4f reject(0.01)=%v\n",
		rep.Independence.Stat, rep.Independence.DF, rep.Independence.PValue, rep.Independence.Reject(0.01))
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	if cfg.bet < 1 {
		log.Fatal("value err : bet must > 0")
	}
	if cfg.player < 1 {
		log.Fatal("value err : player must > 0")
	}
	if cfg.player > 100000 {
		p.Printf("too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.player > 1 && cfg.balance < 1 {
		log.Fatal("value err : balance must >= 1")
	}
	if cfg.spins < 1 {
		log.Fatal("value err : spins must > 0")
	}
	// 單一玩家 15000 轉約十小時，再長就直接模擬機台
	if cfg.player > 1 && cfg.spins > 15000 {
		p.Printf("too much spins for each players : %d resized to 15k spins for each player\n", cfg.spins)
		cfg.spins = 15000
	}
	out, err := stats.ParseFormat(cfg.format)
	if err != nil {
		log.Fatalf("value err : %v", err)
	}
	cfg.out = out
}
