package tiger

import (
	"strconv"
	"strings"
)

// Module identifies an optional firmware feature installed on a card.
type Module string

const (
	ModuleScan       Module = "SCAN"
	ModuleArray      Module = "ARRAY"
	ModuleRingBuffer Module = "RING BUFFER"
	ModuleMultiAxis  Module = "MULTI AXIS"
)

// CardInfo describes one discovered card on the bus. Values are constructed
// fully at creation and never mutated; re-discovery supersedes the snapshot
// rather than patching it.
type CardInfo struct {
	Addr  int
	Axes  []string
	FW    string
	Board string
	Date  string
	Flags string
	Mods  map[Module]bool
}

// HasModule reports whether the card's firmware carries the given feature.
func (c CardInfo) HasModule(m Module) bool {
	return c.Mods[m]
}

// WhoReportItem is the intermediate parse result for one card block of a WHO
// report, before firmware feature tokens are mapped into module
// capabilities. It exists only during report decoding.
type WhoReportItem struct {
	Addr     int
	Axes     []string
	FW       string
	Board    string
	Date     string
	Flags    string
	Features []string
}

// ParseWhoReport parses the multi-line WHO report into one CardInfo per
// responding card. Each card block opens with a boundary line
// "At <addr>: <axes...>"; following lines until the next boundary carry
// keyed metadata (FW:, BOARD:, DATE:, FLAGS:) and firmware feature tokens
// such as "SCAN MODULE". Cards reporting no axes are still recorded: absence
// of axes signals a non-motion card, not an error. A report with no
// recognizable boundary yields an empty topology.
func ParseWhoReport(lines [][]byte) []CardInfo {
	items := parseWhoItems(lines)
	cards := make([]CardInfo, 0, len(items))
	for _, item := range items {
		cards = append(cards, enrichItem(item))
	}
	return cards
}

func parseWhoItems(lines [][]byte) []WhoReportItem {
	var items []WhoReportItem
	var cur *WhoReportItem
	seen := make(map[int]int) // addr -> index in items

	for _, raw := range lines {
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		if addr, axes, ok := parseBoundary(line); ok {
			item := WhoReportItem{Addr: addr, Axes: axes}
			if i, dup := seen[addr]; dup {
				// a card re-answering supersedes its earlier block
				items[i] = item
				cur = &items[i]
			} else {
				items = append(items, item)
				seen[addr] = len(items) - 1
				cur = &items[len(items)-1]
			}
			continue
		}
		if cur == nil {
			// preamble before the first card block carries nothing we need
			continue
		}

		switch {
		case hasKey(line, "FW"):
			cur.FW = keyValue(line)
		case hasKey(line, "BOARD"):
			cur.Board = keyValue(line)
		case hasKey(line, "DATE"):
			cur.Date = keyValue(line)
		case hasKey(line, "FLAGS"):
			cur.Flags = keyValue(line)
		case strings.HasSuffix(line, " MODULE"):
			cur.Features = append(cur.Features, line)
		}
	}
	return items
}

// parseBoundary matches a card boundary line "At <addr>: <axis letters...>".
func parseBoundary(line string) (addr int, axes []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "At" || !strings.HasSuffix(fields[1], ":") {
		return 0, nil, false
	}
	addr, err := strconv.Atoi(strings.TrimSuffix(fields[1], ":"))
	if err != nil {
		return 0, nil, false
	}
	for _, f := range fields[2:] {
		axes = append(axes, CanonicalAxis(f))
	}
	return addr, axes, true
}

func hasKey(line, key string) bool {
	return strings.HasPrefix(strings.ToUpper(line), key+":")
}

func keyValue(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}

// enrichItem maps a card's declared firmware feature tokens into module
// capabilities, e.g. "SCAN MODULE" yields the SCAN capability.
func enrichItem(item WhoReportItem) CardInfo {
	mods := make(map[Module]bool, len(item.Features))
	for _, feat := range item.Features {
		name := strings.TrimSpace(strings.TrimSuffix(feat, "MODULE"))
		if name != "" {
			mods[Module(name)] = true
		}
	}
	return CardInfo{
		Addr:  item.Addr,
		Axes:  item.Axes,
		FW:    item.FW,
		Board: item.Board,
		Date:  item.Date,
		Flags: item.Flags,
		Mods:  mods,
	}
}
