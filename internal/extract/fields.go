package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// Locator finds the raw text of one field inside a node. ok is false when the field is absent.
type Locator func(n *html.Node) (text string, ok bool)

// Chain tries locators in order and returns the first hit.
type Chain []Locator

// Locate runs the chain against n.
func (c Chain) Locate(n *html.Node) (string, bool) {
	for _, locate := range c {
		if text, ok := locate(n); ok {
			return text, true
		}
	}
	return "", false
}

// ByMarker locates the first element below n matching match and returns its text.
func ByMarker(match func(*html.Node) bool) Locator {
	return func(n *html.Node) (string, bool) {
		el := findFirst(n, match)
		if el == nil {
			return "", false
		}
		text := textOf(el)
		return text, text != ""
	}
}

// ByAttr locates the first element matching match and returns the named attribute.
func ByAttr(match func(*html.Node) bool, key string) Locator {
	return func(n *html.Node) (string, bool) {
		el := findFirst(n, match)
		if el == nil {
			return "", false
		}
		val := strings.TrimSpace(attr(el, key))
		return val, val != ""
	}
}

// ByCellPattern scans every cell of a row and returns the first whose whole text matches re.
func ByCellPattern(re *regexp.Regexp) Locator {
	return func(n *html.Node) (string, bool) {
		for _, cell := range findAll(n, isTag("td")) {
			text := textOf(cell)
			if m := re.FindStringSubmatch(text); m != nil {
				if len(m) > 1 {
					return m[1], true
				}
				return m[0], true
			}
		}
		return "", false
	}
}

// ByTextPattern applies re to the located text and returns its first capture group.
func ByTextPattern(locate Locator, re *regexp.Regexp) Locator {
	return func(n *html.Node) (string, bool) {
		text, ok := locate(n)
		if !ok {
			return "", false
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		if len(m) > 1 {
			return m[1], true
		}
		return m[0], true
	}
}

var (
	plainInt    = regexp.MustCompile(`^\d+$`)
	leadingInt  = regexp.MustCompile(`(\d+)`)
	carryWeight = regexp.MustCompile(`^(\d{2}\.\d)$`)
)

// parsePlainInt parses text made only of digits. Anything else yields ok=false.
func parsePlainInt(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if !plainInt.MatchString(text) {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseIntOr parses a plain integer, falling back to def.
func parseIntOr(text string, def int) int {
	if n, ok := parsePlainInt(text); ok {
		return n
	}
	return def
}

// parseDecimal parses a decimal number rounded to places, falling back to 0.
func parseDecimal(text string, places int32) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0
	}
	f, _ := d.Round(places).Float64()
	return f
}

// parseOdds parses posted win odds. The "---.-" placeholder and non-positive values mean not posted.
func parseOdds(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "---") {
		return 0
	}
	odds := parseDecimal(text, 1)
	if odds <= 0 {
		return 0
	}
	return odds
}
