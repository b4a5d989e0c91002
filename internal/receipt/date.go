package receipt

import "regexp"

var dateRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}[./-]\d{2}[./-]\d{2,4}\b`)

// Fiscal receipts print the purchase date in the top right corner
const (
	dateRegionTop  = 0.25
	dateRegionLeft = 0.55
	// words sitting exactly on a region edge count as inside
	edgeSlack = 1e-6
)

// findDate prefers the rightmost date in the top right region and falls back to the
// first date anywhere in the text
func findDate(p *Page, text string) string {
	var (
		best  string
		bestX float64
	)
	for _, w := range p.Words {
		if w.Top > dateRegionTop*p.Height+edgeSlack || w.X0 < dateRegionLeft*p.Width-edgeSlack {
			continue
		}
		m := dateRe.FindString(w.Text)
		if m == "" {
			continue
		}
		if best == "" || w.X0 > bestX {
			best, bestX = m, w.X0
		}
	}
	if best != "" {
		return best
	}
	return dateRe.FindString(text)
}
