package geo

import (
	"regexp"
	"strings"
)

// replacement is a single rewrite pass applied during normalization.
type replacement struct {
	re   *regexp.Regexp
	repl string
}

// Abbreviation expansions, applied in order: regions and cities first, then
// settlement prefixes, street designators and building qualifiers. Go's \b
// does not treat Cyrillic letters as word characters, so boundaries are
// expressed with explicit delimiter groups.
var expandPasses = []replacement{
	// Regions and cities
	{regexp.MustCompile(`(?i)Лен\.?\s*обл\.?`), "Ленинградская область"},
	{regexp.MustCompile(`(?i)(^|[\s,])Л\.?О\.?($|[\s,.])`), "${1}Ленинградская область${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])СПб($|[\s,.])`), "${1}Санкт-Петербург${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])С-Пб($|[\s,.])`), "${1}Санкт-Петербург${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])Мск($|[\s,.])`), "${1}Москва${2}"},
	// Settlement prefixes
	{regexp.MustCompile(`(?i)(^|[\s,])гп\.?\s+`), "${1}"},
	{regexp.MustCompile(`(?i)(^|[\s,])г\.п\.?\s+`), "${1}"},
	{regexp.MustCompile(`(?i)(^|[\s,])пос\.\s+`), "${1}"},
	// Street designators
	{regexp.MustCompile(`(?i)(^|[\s,])ул\.\s*`), "${1}улица "},
	{regexp.MustCompile(`(?i)(^|[\s,])пр\.\s*`), "${1}проспект "},
	{regexp.MustCompile(`(?i)(^|[\s,])пр-т\.?\s*`), "${1}проспект "},
	{regexp.MustCompile(`(?i)(^|[\s,])ш\.\s*`), "${1}шоссе "},
	{regexp.MustCompile(`(?i)(^|[\s,])бул\.\s*`), "${1}бульвар "},
	{regexp.MustCompile(`(?i)(^|[\s,])пер\.\s*`), "${1}переулок "},
	{regexp.MustCompile(`(?i)(^|[\s,])наб\.\s*`), "${1}набережная "},
	// Building qualifiers
	{regexp.MustCompile(`(?i)(^|[\s,])д\.\s*`), "${1}дом "},
	{regexp.MustCompile(`(?i)(^|[\s,])корп\.\s*(\d)`), "${1}корпус ${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])к\.\s*(\d)`), "${1}корпус ${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])стр\.\s*(\d)`), "${1}строение ${2}"},
	{regexp.MustCompile(`(?i)(^|[\s,])лит\.\s*`), "${1}литера "},
}

// Noise tokens stripped after expansion: entrance/apartment markers, phone
// numbers, ticket numbers, priority keywords, quantity counts and trailing
// dispatcher annotations.
var cleanupPasses = []*regexp.Regexp{
	regexp.MustCompile(`(?i),?\s*подъезд\s*[^.,]*`),
	regexp.MustCompile(`(?i),?\s*кв\.?\s*\d+`),
	regexp.MustCompile(`\+?\d{10,11}`),
	regexp.MustCompile(`\d{3}-\d{2}-\d{2}`),
	regexp.MustCompile(`(?i)заявка\s*№?\s*\d+`),
	regexp.MustCompile(`№\s*\d+`),
	regexp.MustCompile(`(?i)(Плановая|Текущая|Срочная|Аварийная)\.?`),
	regexp.MustCompile(`(?i)\d+\s*шт`),
	regexp.MustCompile(`,\s*\d+\s*,`),
	regexp.MustCompile(`,\s*\d+\s*$`),
	regexp.MustCompile(`(?i)деньги\s+у\s+\S+`),
	regexp.MustCompile(`\(Диспетчер[^)]*\)`),
	regexp.MustCompile(`(?i)Доп\.?\s*инф\.?:.*`),
}

// problemKeywords marks sentence segments that describe the defect rather
// than the address.
var problemKeywords = []string{
	"работает", "сломан", "вызов", "брелок", "ключ", "карт",
	"трубк", "замен", "ремонт", "открыт", "закрыт", "программ",
	"домофон", "почта", "мусор", "этаж", "дверь", "двери",
}

var (
	bareNumberRe = regexp.MustCompile(`^\d+$`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
	commaSpaceRe = regexp.MustCompile(`\s*,\s*`)
)

// Normalize rewrites an address string's abbreviations into canonical forms
// and strips non-address noise. It is pure and never fails: the worst case
// returns the input essentially unchanged, and a non-empty input never
// normalizes to an empty result.
func Normalize(raw string) string {
	result := raw
	for _, p := range expandPasses {
		result = p.re.ReplaceAllString(result, p.repl)
	}
	for _, re := range cleanupPasses {
		result = re.ReplaceAllString(result, "")
	}
	result = dropProblemSegments(result)
	result = multiSpaceRe.ReplaceAllString(result, " ")
	result = strings.Trim(result, " ,.")
	result = commaSpaceRe.ReplaceAllString(result, ", ")
	return result
}

// dropProblemSegments splits on sentence boundaries, removes segments that
// match the defect vocabulary, and rejoins the rest with commas. When every
// segment is dropped it falls back to the pre-filter text.
func dropProblemSegments(text string) string {
	parts := strings.Split(text, ".")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || bareNumberRe.MatchString(part) {
			continue
		}
		lower := strings.ToLower(part)
		problem := false
		for _, kw := range problemKeywords {
			if strings.Contains(lower, kw) {
				problem = true
				break
			}
		}
		if problem {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, ", ")
}
