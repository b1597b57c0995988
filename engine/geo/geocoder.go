package geo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fieldops/dispatch/pkg/logger"
)

var (
	streetBeforeTypeRe = regexp.MustCompile(`(?i)(\S+)\s+(улица|проспект|шоссе|бульвар|переулок|набережная)`)
	streetAfterTypeRe  = regexp.MustCompile(`(?i)(улица|проспект|шоссе|бульвар|переулок|набережная)\s+(\S+)`)
	houseRe            = regexp.MustCompile(`(?i)(?:дом|д\.?)\s*(\d+)`)
	corpusRe           = regexp.MustCompile(`(?i)(?:корпус|корп\.?|к\.?)\s*(\d+)`)
	settlementRe       = regexp.MustCompile(`(?i)область\s+(\S+)`)
)

// streetTypes is the set of canonical street designators recognized by the
// compact-query builder.
var streetTypes = map[string]bool{
	"улица": true, "проспект": true, "шоссе": true,
	"бульвар": true, "переулок": true, "набережная": true,
}

// Config holds the Geocoder knobs.
type Config struct {
	CacheSize int
	Country   string
}

// Geocoder resolves free-text addresses to coordinates through an external
// lookup service. It owns a bounded cache keyed by the normalized address
// and an ordered chain of query strategies; any failure anywhere in the
// chain degrades to the Unresolved sentinel, never an error.
type Geocoder struct {
	client  LookupClient
	cache   *Cache
	country string
}

// NewGeocoder builds an explicitly constructed geocoder. The cache is owned
// by this instance; there is no process-global state.
func NewGeocoder(client LookupClient, cfg *Config) *Geocoder {
	country := cfg.Country
	if country == "" {
		country = "Россия"
	}
	return &Geocoder{
		client:  client,
		cache:   NewCache(cfg.CacheSize),
		country: country,
	}
}

// CacheLen exposes the cache size for observability.
func (g *Geocoder) CacheLen() int { return g.cache.Len() }

// Resolve geocodes an address. It never fails: exhausting every strategy,
// or any transport error, yields the (0,0) sentinel. The first successful
// lookup populates the cache under the normalized address string; that is
// the only write path into the cache.
func (g *Geocoder) Resolve(ctx context.Context, address string) Coordinate {
	log := logger.FromContext(ctx)
	normalized := Normalize(address)
	if coord, ok := g.cache.Get(normalized); ok {
		return coord
	}
	for _, query := range g.buildQueries(normalized) {
		coord, found, err := g.client.Lookup(ctx, query)
		if err != nil {
			log.Debug("geocode attempt failed", "query", query, "error", err)
			continue
		}
		if !found {
			continue
		}
		g.cache.Set(normalized, coord)
		log.Debug("geocoded address", "query", query, "lat", coord.Lat, "lon", coord.Lon)
		return coord
	}
	log.Debug("address not resolved", "normalized", normalized)
	return Unresolved
}

// buildQueries assembles the ordered fallback chain:
//  1. compact query (street + house + corpus + city/region + country)
//  2. compact query with the corpus suffix stripped
//  3. the full normalized string
//  4. the full normalized string with an explicit country suffix
//
// Strategies that cannot be built are skipped.
func (g *Geocoder) buildQueries(normalized string) []string {
	queries := make([]string, 0, 4)
	if compact, withCorpus, ok := g.buildCompactQuery(normalized); ok {
		queries = append(queries, compact)
		if withCorpus != "" {
			queries = append(queries, withCorpus)
		}
	}
	queries = append(queries, normalized)
	queries = append(queries, normalized+", "+g.country)
	return queries
}

// buildCompactQuery extracts street, house and locality components. It
// returns the compact query, a corpus-stripped variant when the house
// number carried a corpus suffix, and whether a compact query was buildable
// at all.
func (g *Geocoder) buildCompactQuery(normalized string) (compact, noCorpus string, ok bool) {
	streetName, streetType, ok := extractStreet(normalized)
	if !ok {
		return "", "", false
	}
	houseMatch := houseRe.FindStringSubmatch(normalized)
	if houseMatch == nil {
		return "", "", false
	}
	house := houseMatch[1]
	city, region := resolveLocality(normalized)
	suffix := ", " + city
	if region != "" {
		suffix += ", " + region
	}
	suffix += ", " + g.country
	corpusMatch := corpusRe.FindStringSubmatch(normalized)
	if corpusMatch != nil {
		withCorpus := fmt.Sprintf("%s %s %sк%s%s", streetName, streetType, house, corpusMatch[1], suffix)
		stripped := fmt.Sprintf("%s %s %s%s", streetName, streetType, house, suffix)
		return withCorpus, stripped, true
	}
	return fmt.Sprintf("%s %s %s%s", streetName, streetType, house, suffix), "", true
}

// extractStreet finds the street name and designator in either order.
func extractStreet(normalized string) (name, streetType string, ok bool) {
	if m := streetBeforeTypeRe.FindStringSubmatch(normalized); m != nil {
		if streetTypes[strings.ToLower(m[2])] {
			return m[1], m[2], true
		}
	}
	if m := streetAfterTypeRe.FindStringSubmatch(normalized); m != nil {
		return m[2], m[1], true
	}
	return "", "", false
}

// resolveLocality picks the city (and optional region) through secondary
// pattern matching. Saint Petersburg is the operating default.
func resolveLocality(normalized string) (city, region string) {
	lower := strings.ToLower(normalized)
	switch {
	case strings.Contains(lower, "санкт-петербург") || strings.Contains(lower, "спб"):
		return "Санкт-Петербург", ""
	case strings.Contains(lower, "ленинградская"):
		region = "Ленинградская область"
		city = "Санкт-Петербург"
		if m := settlementRe.FindStringSubmatch(normalized); m != nil {
			city = strings.Trim(m[1], ",.")
		}
		return city, region
	case strings.Contains(lower, "москва") || strings.Contains(lower, "мск"):
		return "Москва", ""
	default:
		return "Санкт-Петербург", ""
	}
}
