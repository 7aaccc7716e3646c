package stats

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zintix-labs/reelkit/errs"
)

// Format 報表輸出格式
type Format uint8

const (
	FormatText Format = iota // 終端表格
	FormatJSON
	FormatYAML
)

var formatName = [...]string{"text", "json", "yaml"}

func (f Format) String() string {
	if int(f) < len(formatName) {
		return formatName[f]
	}
	return "unknown"
}

// ParseFormat text / json / yaml（不分大小寫）
func ParseFormat(s string) (Format, error) {
	for i, n := range formatName {
		if strings.EqualFold(s, n) {
			return Format(i), nil
		}
	}
	return FormatText, errs.Warnf("unknown report format %q", s)
}

// Encode 以 JSON 或 YAML 寫出報表（StatReport、EstimatorPlayers、FitReport 等）。
//
// YAML 中不含子陣列的陣列輸出成 flow style: [a, b, c]，巢狀陣列的外層維持展開。
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(v)
	case FormatYAML:
		var root yaml.Node
		if err := root.Encode(v); err != nil {
			return errs.Wrap(err, "encode yaml node")
		}
		flowLeaves(&root)
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(&root); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	default:
		return errs.Warnf("format %s has no encoder", f)
	}
}

func flowLeaves(n *yaml.Node) {
	nested := false
	for _, c := range n.Content {
		flowLeaves(c)
		if c.Kind == yaml.SequenceNode {
			nested = true
		}
	}
	if n.Kind == yaml.SequenceNode && !nested {
		n.Style = yaml.FlowStyle
	}
}
