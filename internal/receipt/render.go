package receipt

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderItems formats items for display, one per line
func RenderItems(items []Item) string {
	if len(items) == 0 {
		return "(не найдено)"
	}
	rows := make([]string, 0, len(items))
	for _, item := range items {
		qty := strconv.FormatFloat(item.Quantity, 'f', -1, 64)
		rows = append(rows, fmt.Sprintf("- %s — %s шт — %.2f", item.Name, qty, item.Amount))
	}
	return strings.Join(rows, "\n")
}
