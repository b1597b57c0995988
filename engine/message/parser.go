// Package message turns free-text problem reports into structured fields.
//
// Two conventions are recognized: the dispatcher format, a semi-structured
// single message starting with a ticket marker
// ("№1173544 Текущая. Адрес, подъезд 1. Категория. Описание. кв.45 +7911…"),
// and the standard format where the first line is the address and the rest
// is the description. Past the minimum-length gate parsing never fails: the
// standard format is the unconditional fallback, trading precision for
// availability so a malformed message still becomes a reviewable task.
package message

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldops/dispatch/engine/task"
)

// MinLength is the minimum trimmed input length (in runes) for a message to
// be considered a task at all.
const MinLength = 10

// ErrTooShort is the only parse failure; anything longer yields a
// best-effort structured result.
var ErrTooShort = errors.New("message is too short to be a task")

// unrecognizedAddress marks a dispatcher message whose address span could
// not be located by any fallback.
const unrecognizedAddress = "Не распознан"

// ParsedFields is the immutable parse output, derived once per message.
type ParsedFields struct {
	Title        string        `json:"title"`
	Address      string        `json:"address"`
	Description  string        `json:"description"`
	ExternalID   string        `json:"external_id,omitempty"`
	ContactPhone string        `json:"contact_phone,omitempty"`
	ContactName  string        `json:"contact_name,omitempty"`
	Apartment    string        `json:"apartment,omitempty"`
	Priority     task.Priority `json:"priority"`
}

var (
	externalIDRe = regexp.MustCompile(`№(\d+)`)
	phoneRe      = regexp.MustCompile(`(\+7\d{10}|[78]\d{10})`)
	apartmentRe  = regexp.MustCompile(`(?i)кв\.?\s*(\d+)`)

	emergencyRe = regexp.MustCompile(`(?i)Аварийная`)
	urgentRe    = regexp.MustCompile(`(?i)Срочная`)
	plannedRe   = regexp.MustCompile(`(?i)Плановая`)

	// Address span: from the priority keyword up to and including the first
	// "подъезд N" marker (optionally with a parenthetical).
	addressRe = regexp.MustCompile(
		`(?i)(?:Текущая|Срочная|Плановая|Аварийная)[.\s]+(.+?подъезд\s*\d+(?:\s*\([^)]+\))?)`)
	// Fallback: up to a known city/region suffix.
	addressCityRe = regexp.MustCompile(
		`(?i)(?:Текущая|Срочная|Плановая|Аварийная)[.\s]+(.+?(?:,\s*(?:СПб|Санкт-Петербург|Лен\.?\s*обл)[^.]*?))`)
	// Last resort: everything up to the first period.
	addressSimpleRe = regexp.MustCompile(
		`(?i)(?:Текущая|Срочная|Плановая|Аварийная)[.\s]+([^.]+)`)

	leadingDotsRe  = regexp.MustCompile(`^[.\s]+`)
	sentenceSepRe  = regexp.MustCompile(`\.\s*`)
	descPhoneRe    = regexp.MustCompile(`\+?[78]?\d{10,11}`)
	descAptRe      = regexp.MustCompile(`(?i)кв\.?\s*\d+`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	contactNameRe  = regexp.MustCompile(`([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+)?)\s*$`)
	notAContactRe  = regexp.MustCompile(`(?i)^(Лен\s+обл|Санкт\s+Петербург)`)
	ticketNumberRe = []*regexp.Regexp{
		regexp.MustCompile(`\[(\d{5,10})\]`),
		regexp.MustCompile(`№\s*(\d{5,10})`),
		regexp.MustCompile(`#(\d{5,10})`),
		regexp.MustCompile(`(?i)заявка\s*(\d{5,10})`),
	}
)

// Parse recognizes the message format and extracts structured fields.
// The only error is ErrTooShort; above the gate a result is always
// produced.
func Parse(text string) (*ParsedFields, error) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < MinLength {
		return nil, ErrTooShort
	}
	if strings.HasPrefix(trimmed, "№") {
		return parseDispatcherFormat(trimmed), nil
	}
	return parseStandardFormat(trimmed), nil
}

// ExtractTicketNumber pulls an external ticket number out of any of the
// given texts. Recognized spellings: [1170773], №1138996, #1138996,
// "Заявка 1138996". Returns "" when none match.
func ExtractTicketNumber(texts ...string) string {
	for _, text := range texts {
		for _, re := range ticketNumberRe {
			if m := re.FindStringSubmatch(text); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

func parseDispatcherFormat(text string) *ParsedFields {
	parsed := &ParsedFields{Priority: task.PriorityCurrent}
	if m := externalIDRe.FindStringSubmatch(text); m != nil {
		parsed.ExternalID = m[1]
	}
	switch {
	case emergencyRe.MatchString(text):
		parsed.Priority = task.PriorityEmergency
	case urgentRe.MatchString(text):
		parsed.Priority = task.PriorityUrgent
	case plannedRe.MatchString(text):
		parsed.Priority = task.PriorityPlanned
	}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		parsed.ContactPhone = m[0]
	}
	if m := apartmentRe.FindStringSubmatch(text); m != nil {
		parsed.Apartment = m[1]
	}

	address, afterAddress := extractAddress(text)
	parsed.Address = address

	category, description := extractCategoryAndDescription(afterAddress)
	parsed.ContactName = extractContactName(text)
	parsed.Title = deriveTitle(category, parsed.ExternalID)

	if parsed.Apartment != "" && parsed.Address != unrecognizedAddress {
		parsed.Address = fmt.Sprintf("%s, кв. %s", parsed.Address, parsed.Apartment)
	}

	fullDescription := description
	if fullDescription == "" {
		fullDescription = category
	}
	if parsed.ContactName != "" {
		fullDescription += " | Контакт: " + parsed.ContactName
	}
	if parsed.ContactPhone != "" {
		fullDescription += " | Тел: " + parsed.ContactPhone
	}
	parsed.Description = fullDescription
	return parsed
}

// extractAddress locates the address span and returns it together with the
// remaining text after it. Only the primary "подъезд N" delimiter advances
// the cursor; the fallbacks leave the whole text for category extraction.
func extractAddress(text string) (address, afterAddress string) {
	if loc := addressRe.FindStringSubmatchIndex(text); loc != nil {
		address = strings.TrimSpace(text[loc[2]:loc[3]])
		address = strings.TrimRight(address, ".")
		return address, text[loc[1]:]
	}
	if m := addressCityRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), "."), text
	}
	if m := addressSimpleRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), text
	}
	return unrecognizedAddress, text
}

// extractCategoryAndDescription splits the post-address remainder on
// sentence boundaries: the first part is the work category, the rest is the
// description with phone and apartment tokens stripped.
func extractCategoryAndDescription(afterAddress string) (category, description string) {
	afterAddress = leadingDotsRe.ReplaceAllString(afterAddress, "")
	rawParts := sentenceSepRe.Split(afterAddress, -1)
	parts := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", ""
	}
	category = parts[0]
	if len(parts) > 1 {
		description = strings.Join(parts[1:], ". ")
	}
	description = descPhoneRe.ReplaceAllString(description, "")
	description = descAptRe.ReplaceAllString(description, "")
	description = multiSpaceRe.ReplaceAllString(description, " ")
	description = strings.Trim(description, " .,")
	return category, description
}

// extractContactName finds a trailing two-or-three-word capitalized
// sequence, excluding known administrative phrases.
func extractContactName(text string) string {
	m := contactNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if notAContactRe.MatchString(m[1]) {
		return ""
	}
	return m[1]
}

func deriveTitle(category, externalID string) string {
	if category != "" {
		if externalID != "" {
			return fmt.Sprintf("[%s] %s", externalID, category)
		}
		return category
	}
	if externalID != "" {
		return "Заявка №" + externalID
	}
	return "Новая заявка"
}

func parseStandardFormat(text string) *ParsedFields {
	lines := make([]string, 0, 4)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	parsed := &ParsedFields{
		Title:    "Новая заявка",
		Priority: task.PriorityCurrent,
	}
	if len(lines) == 1 {
		parsed.Address = lines[0]
		parsed.Description = lines[0]
	} else {
		parsed.Address = lines[0]
		parsed.Description = strings.Join(lines[1:], " ")
	}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		parsed.ContactPhone = m[0]
	}
	return parsed
}
