package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
)

var lang = language.English

// table 兩欄文字表格，欄寬以顯示寬度計算（中文佔兩格）
type table struct {
	title string
	rows  [][2]string
}

func newTable(title string) *table { return &table{title: title} }

func (t *table) add(k, v string) *table {
	t.rows = append(t.rows, [2]string{k, v})
	return t
}

func (t *table) String() string {
	kw, vw := 0, 0
	for _, r := range t.rows {
		kw = max(kw, runewidth.StringWidth(r[0]))
		vw = max(vw, runewidth.StringWidth(r[1]))
	}
	inner := kw + vw + 5 // "| k | v |" 扣掉兩側邊框
	inner = max(inner, runewidth.StringWidth(t.title)+2)
	vw = inner - kw - 5

	var sb strings.Builder
	line := func(sep string) {
		sb.WriteString("+")
		sb.WriteString(sep)
		sb.WriteString("+\n")
	}
	line(strings.Repeat("-", inner))
	sb.WriteString("|")
	sb.WriteString(runewidth.FillRight(runewidth.FillLeft(t.title, (inner+runewidth.StringWidth(t.title))/2), inner))
	sb.WriteString("|\n")
	mid := strings.Repeat("-", kw+2) + "+" + strings.Repeat("-", vw+2)
	line(mid)
	for _, r := range t.rows {
		sb.WriteString("| ")
		sb.WriteString(runewidth.FillRight(r[0], kw))
		sb.WriteString(" | ")
		sb.WriteString(runewidth.FillRight(r[1], vw))
		sb.WriteString(" |\n")
	}
	line(mid)
	return sb.String()
}
