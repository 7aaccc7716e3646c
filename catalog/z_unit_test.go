package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/reelkit/errs"
)

const miniYAML = `
game_name: Mini
game_id: 7
symbols:
  - {id: A, weight: 60, multiplier: 2}
  - {id: B, weight: 40, multiplier: 8}
jackpot_symbol: B
bet: {min: 1, max: 100}
pity: {cap: 0.3, growth: 0.1}
jackpot:
  seed_amount: 1000
  contribution_rate: 0.01
  base_chance: 0.0001
  reference_bet: 1
  ceiling: 0.005
  min_spins: 0
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"mini.yaml": {Data: []byte(miniYAML)},
		"notes.txt": {Data: []byte("ignored")},
	}
}

func TestRegisterAndLoad(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Register(Entry{GID: 7, Name: " Mini ", ConfigName: "mini.yaml"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := c.GetByName("MINI"); !ok {
		t.Fatalf("name lookup must be case-insensitive")
	}
	es, err := c.SettingByID(7)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	sum := Summarize(es)
	if sum.Name != "Mini" || len(sum.Symbols) != 2 || sum.JackpotSymbol != "B" || sum.Partial {
		t.Fatalf("summary = %+v", sum)
	}
	// 0.6^3*2 + 0.4^3*8
	if sum.LineRtp < 0.943 || sum.LineRtp > 0.945 {
		t.Fatalf("line rtp = %v", sum.LineRtp)
	}
}

func TestRegisterRejects(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Register(Entry{GID: 1, Name: "x", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("missing config accepted")
	}
	if err := c.Register(Entry{GID: 1, Name: "x", ConfigName: "../mini.yaml"}); err == nil {
		t.Fatalf("path in config name accepted")
	}
	if err := c.Register(Entry{GID: 1, Name: "x", ConfigName: "notes.txt"}); err == nil {
		t.Fatalf("non yaml/json config accepted")
	}
	if err := c.Register(Entry{GID: 1, Name: "a", ConfigName: "mini.yaml"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(Entry{GID: 1, Name: "b", ConfigName: "mini.yaml"}); !errors.Is(err, ErrDupID) {
		t.Fatalf("dup id err = %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{GID: 2, Name: "c", ConfigName: "mini.yaml"}); err == nil {
		t.Fatalf("register after freeze accepted")
	}
}

func TestSettingNotFound(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.SettingByID(99)
	if errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("code = %q", errs.CodeOf(err))
	}
}

func TestNewRejectsNestedFS(t *testing.T) {
	nested := fstest.MapFS{"dir/mini.yaml": {Data: []byte(miniYAML)}}
	if _, err := New(nested); err == nil {
		t.Fatalf("nested fs accepted")
	}
	if _, err := New(testFS(), fstest.MapFS{"mini.yaml": {Data: []byte(miniYAML)}}); err == nil {
		t.Fatalf("duplicate file across fs accepted")
	}
}

func TestDiscover(t *testing.T) {
	c, err := New(testFS())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ents, err := c.Discover()
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(ents) != 1 || ents[0].GID != 7 || ents[0].ConfigName != "mini.yaml" {
		t.Fatalf("entries = %+v", ents)
	}
	if err := c.Register(ents...); err != nil {
		t.Fatalf("register: %v", err)
	}
	if e, _ := c.GetByID(7); e.Name != "mini" {
		t.Fatalf("name = %q", e.Name)
	}
	if ents, err := c.Discover(); err != nil || len(ents) != 0 {
		t.Fatalf("registered configs rediscovered: %v %v", ents, err)
	}

	twin := testFS()
	twin["mini2.json"] = &fstest.MapFile{Data: []byte(`{"game_name":"Other","game_id":7,
		"symbols":[{"id":"A","weight":60,"multiplier":2},{"id":"B","weight":40,"multiplier":8}],"jackpot_symbol":"B",
		"bet":{"min":1,"max":10},"pity":{"cap":0.3,"growth":0.1},
		"jackpot":{"seed_amount":0,"contribution_rate":0.01,"base_chance":0.0001,"reference_bet":1,"ceiling":0.005,"min_spins":0}}`)}
	c, err = New(twin)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.Discover(); !errors.Is(err, ErrDupID) {
		t.Fatalf("duplicate game_id across configs: %v", err)
	}
}
