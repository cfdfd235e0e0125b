package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errCorruptBlob = errors.New("corrupt cart blob")

// encodeLines renders the persisted form: a JSON array of lines.
func encodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// decodeLines parses a persisted blob. An empty blob is an empty ledger.
// Lines sharing a (product, variant) triple are merged so a hand-edited or
// legacy blob cannot break the one-line-per-triple rule.
func decodeLines(blob []byte) ([]Line, error) {
	if len(blob) == 0 {
		return []Line{}, nil
	}

	var raw []Line
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptBlob, err)
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, l := range raw {
		switch {
		case l.LineID == "":
			return nil, fmt.Errorf("%w: line %d has no lineId", errCorruptBlob, i)
		case seen[l.LineID]:
			return nil, fmt.Errorf("%w: duplicate lineId %s", errCorruptBlob, l.LineID)
		case l.ProductID <= 0:
			return nil, fmt.Errorf("%w: line %s has invalid productId", errCorruptBlob, l.LineID)
		case l.Quantity < 1:
			return nil, fmt.Errorf("%w: line %s has quantity %d", errCorruptBlob, l.LineID, l.Quantity)
		case l.UnitPrice.IsNegative():
			return nil, fmt.Errorf("%w: line %s has negative unitPrice", errCorruptBlob, l.LineID)
		}
		seen[l.LineID] = true

		if j := indexOfTriple(lines, l.ProductID, l.Variant()); j >= 0 {
			lines[j].Quantity += l.Quantity
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func indexOfTriple(lines []Line, productID int64, v Variant) int {
	for i, l := range lines {
		if l.matches(productID, v) {
			return i
		}
	}
	return -1
}

func indexOfLine(lines []Line, lineID string) int {
	for i, l := range lines {
		if l.LineID == lineID {
			return i
		}
	}
	return -1
}
