// Package catalog 管理遊戲目錄：設定檔來源、遊戲編號與名稱的對應。
//
// 設定檔來源為一個或多個平坦的 fs.FS（embed 或目錄），只認 .yaml / .yml / .json。
// 檔名在所有來源中必須唯一；遊戲編號與名稱（不分大小寫）也必須唯一。
package catalog

import (
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/spec"
)

var (
	ErrDupID     = errs.NewCode(errs.Fatal, "duplicateId", "duplicate game id")
	ErrDupName   = errs.NewCode(errs.Fatal, "duplicateName", "duplicate game name")
	ErrDupConfig = errs.NewCode(errs.Fatal, "duplicateConfig", "config file already bound to a game")
)

// Entry 目錄中的一款遊戲
type Entry struct {
	GID        spec.GID
	Name       string
	ConfigName string
}

// Summary 對外公開的遊戲摘要
type Summary struct {
	GID           spec.GID   `json:"gid"`
	Name          string     `json:"name"`
	Symbols       []string   `json:"symbols"`
	JackpotSymbol string     `json:"jackpot_symbol"`
	Bet           bet.Limits `json:"bet"`
	LineRtp       float64    `json:"line_rtp"`
	Partial       bool       `json:"partial"`
}

// Summarize 由設定產生摘要
func Summarize(es *spec.EngineSetting) Summary {
	tb := es.Table()
	ids := make([]string, 0, tb.Len())
	for _, s := range tb.All() {
		ids = append(ids, string(s.ID))
	}
	return Summary{
		GID:           es.GameID,
		Name:          es.GameName,
		Symbols:       ids,
		JackpotSymbol: string(es.JackpotSymbol),
		Bet:           es.Limits(),
		LineRtp:       tb.LineRtp(),
		Partial:       es.Partial().Enabled,
	}
}

// Catalog 註冊完成後呼叫 Freeze，之後只讀，可併發查詢
type Catalog struct {
	files  map[string]fs.FS // 設定檔名 -> 所在來源
	byID   map[spec.GID]Entry
	byName map[string]Entry
	bound  map[string]spec.GID // 設定檔名 -> 已綁定的遊戲
	ids    []spec.GID
	frozen bool
}

// New 索引所有來源中的設定檔
func New(srcs ...fs.FS) (*Catalog, error) {
	if len(srcs) == 0 {
		return nil, errs.NewFatal("catalog: no config source")
	}
	c := &Catalog{
		files:  make(map[string]fs.FS),
		byID:   make(map[spec.GID]Entry),
		byName: make(map[string]Entry),
		bound:  make(map[string]spec.GID),
	}
	for i, src := range srcs {
		if src == nil {
			return nil, errs.Fatalf("catalog: source[%d] is nil", i)
		}
		if err := c.index(src); err != nil {
			return nil, errs.Wrapf(err, "catalog: source[%d]", i)
		}
	}
	return c, nil
}

func (c *Catalog) index(src fs.FS) error {
	return fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case p == ".":
			return nil
		case d.IsDir() || strings.Contains(p, "/"):
			return errs.Fatalf("config source must be flat, found %q", p)
		case !isConfigFile(p):
			return nil
		}
		if _, dup := c.files[p]; dup {
			return errs.Fatalf("config %q appears in more than one source", p)
		}
		c.files[p] = src
		return nil
	})
}

// ** 以下公開方法 **

// Discover 解析所有已索引、尚未註冊的設定檔，以檔內的 game_id / game_name 產生 Entry。
// 任一檔案解析失敗或彼此衝突即回傳錯誤，不會寫入目錄。
func (c *Catalog) Discover() ([]Entry, error) {
	names := make([]string, 0, len(c.files))
	for name := range c.files {
		if _, ok := c.bound[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		es, err := c.parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{GID: es.GameID, Name: es.GameName, ConfigName: name})
	}
	if err := c.check(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Register 批次註冊，全部通過檢查才寫入
func (c *Catalog) Register(ents ...Entry) error {
	if c.frozen {
		return errs.NewWarn("catalog is frozen")
	}
	for i := range ents {
		ents[i].Name = normName(ents[i].Name)
	}
	if err := c.check(ents); err != nil {
		return err
	}
	for _, e := range ents {
		c.byID[e.GID] = e
		c.byName[e.Name] = e
		c.bound[e.ConfigName] = e.GID
		c.ids = append(c.ids, e.GID)
	}
	slices.Sort(c.ids)
	return nil
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// GetByName 名稱不分大小寫
func (c *Catalog) GetByName(name string) (Entry, bool) {
	e, ok := c.byName[normName(name)]
	return e, ok
}

// IDs 已註冊的遊戲編號（遞增）
func (c *Catalog) IDs() []spec.GID { return slices.Clone(c.ids) }

func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Freeze()        { c.frozen = true }
func (c *Catalog) IsFrozen() bool { return c.frozen }

// SettingByID 讀取並驗證指定遊戲的設定
func (c *Catalog) SettingByID(id spec.GID) (*spec.EngineSetting, error) {
	e, ok := c.byID[id]
	if !ok {
		return nil, errs.Warnf("game id %d does not exist in catalog", id).WithCode(errs.CodeNotFound)
	}
	return c.parse(e.ConfigName)
}

// SettingByName 讀取並驗證指定遊戲的設定
func (c *Catalog) SettingByName(name string) (*spec.EngineSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("game %q does not exist in catalog", name).WithCode(errs.CodeNotFound)
	}
	return c.parse(e.ConfigName)
}

// ParseSetting 依副檔名選擇 YAML 或 JSON 解析
func ParseSetting(filename string, raw []byte) (*spec.EngineSetting, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetEngineSettingByYAML(raw)
	case ".json":
		return spec.GetEngineSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}

// ** 內部方法 **

// check 批次內部以及與既有目錄之間不得有重複的編號、名稱、設定檔
func (c *Catalog) check(ents []Entry) error {
	ids := make(map[spec.GID]bool, len(ents))
	names := make(map[string]bool, len(ents))
	files := make(map[string]bool, len(ents))
	for _, e := range ents {
		name := normName(e.Name)
		if name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(e.ConfigName); err != nil {
			return err
		}
		if _, ok := c.files[e.ConfigName]; !ok {
			return errs.Fatalf("config file not found: %s", e.ConfigName)
		}
		if _, ok := c.byID[e.GID]; ok || ids[e.GID] {
			return ErrDupID
		}
		if _, ok := c.byName[name]; ok || names[name] {
			return ErrDupName
		}
		if _, ok := c.bound[e.ConfigName]; ok || files[e.ConfigName] {
			return ErrDupConfig
		}
		ids[e.GID], names[name], files[e.ConfigName] = true, true, true
	}
	return nil
}

func (c *Catalog) parse(name string) (*spec.EngineSetting, error) {
	src, ok := c.files[name]
	if !ok {
		return nil, errs.Warnf("config %q does not exist in catalog", name)
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrapf(err, "read config %s", name)
	}
	es, err := ParseSetting(name, raw)
	if err != nil {
		return nil, errs.Wrapf(err, "parse config %s", name)
	}
	return es, nil
}

func normName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func isConfigFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// validFileName 設定檔名必須是單純檔名（不含路徑）且為支援的格式
func validFileName(name string) error {
	if name == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(name, `/\:`) {
		return errs.Fatalf("invalid config filename %q: must be a basename", name)
	}
	if !isConfigFile(name) {
		return errs.Fatalf("invalid config filename %q: must be .yaml, .yml or .json", name)
	}
	return nil
}
