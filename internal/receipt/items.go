package receipt

import (
	"regexp"
	"strconv"
	"strings"
)

// totalKeywords mark summary lines that are never items
var totalKeywords = []string{
	"итог", "итого", "к оплате", "сумма", "наличные", "безнал", "смена", "касса", "налог", "ндс",
	"total", "amount due", "cash", "card", "shift", "register", "tax", "vat",
}

var (
	multiplyRe  = regexp.MustCompile(`^(?P<name>.+?)\s+(?P<qty>\d+[.,]?\d*)\s*x\s*(?P<price>\d+[.,]\d{2})\s+(?P<sum>\d+[.,]\d{2})$`)
	unitCountRe = regexp.MustCompile(`^(?P<name>.+?)\s+(?P<qty>\d+[.,]?\d*)\s*(шт|pcs)?\s+(?P<sum>\d+[.,]\d{2})$`)
	timesSignRe = regexp.MustCompile(`(\d\s*)[×хХ](\s*\d)`)
	numberRe    = regexp.MustCompile(`^(\d+[.,]\d{2}|\d+)$`)
	amountRe    = regexp.MustCompile(`^\d+[.,]\d{2}$`)
	integerRe   = regexp.MustCompile(`^\d+$`)
)

type lineParser func(normalized, raw string) (Item, bool)

// lineParsers are tried in order; the first match wins
var lineParsers = []lineParser{
	parsePattern(multiplyRe),
	parsePattern(unitCountRe),
	parseHeuristic,
}

func parseItems(text string) []Item {
	items := make([]Item, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isTotalLine(line) {
			continue
		}
		if item, ok := ParseLine(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func isTotalLine(line string) bool {
	low := strings.ToLower(line)
	for _, k := range totalKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

// ParseLine reads one receipt line as an item. Summary lines are not filtered here.
func ParseLine(line string) (Item, bool) {
	normalized := strings.Join(strings.Fields(line), " ")
	normalized = timesSignRe.ReplaceAllString(normalized, "${1}x${2}")
	for _, parse := range lineParsers {
		if item, ok := parse(normalized, line); ok {
			return item, true
		}
	}
	return Item{}, false
}

func parsePattern(re *regexp.Regexp) lineParser {
	name, qty, sum := re.SubexpIndex("name"), re.SubexpIndex("qty"), re.SubexpIndex("sum")
	return func(normalized, raw string) (Item, bool) {
		m := re.FindStringSubmatch(normalized)
		if m == nil {
			return Item{}, false
		}
		return Item{
			Name:     strings.TrimSpace(m[name]),
			Quantity: parseNumber(m[qty]),
			Amount:   parseNumber(m[sum]),
			RawLine:  raw,
		}, true
	}
}

// parseHeuristic handles the "[index] name price qty amount" column layout
func parseHeuristic(normalized, raw string) (Item, bool) {
	tokens := strings.Fields(normalized)
	var numbers []int
	for i, t := range tokens {
		if numberRe.MatchString(t) {
			numbers = append(numbers, i)
		}
	}
	if len(numbers) < 2 {
		return Item{}, false
	}

	amount := tokens[numbers[len(numbers)-1]]
	if !amountRe.MatchString(amount) {
		return Item{}, false
	}

	quantity := 1.0
	secondLast := numbers[len(numbers)-2]
	switch {
	case integerRe.MatchString(tokens[secondLast]):
		quantity = parseNumber(tokens[secondLast])
	case len(numbers) >= 3 && integerRe.MatchString(tokens[numbers[len(numbers)-3]]):
		quantity = parseNumber(tokens[numbers[len(numbers)-3]])
	}

	start := 0
	if integerRe.MatchString(tokens[0]) {
		start = 1
	}
	if secondLast <= start {
		return Item{}, false
	}
	name := strings.TrimSpace(strings.Join(tokens[start:secondLast], " "))
	if name == "" {
		return Item{}, false
	}

	return Item{
		Name:     name,
		Quantity: quantity,
		Amount:   parseNumber(amount),
		RawLine:  raw,
	}, true
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}
