// Package mockdata generates placeholder SEO records for the tools whose
// upstream endpoints do not exist yet. Shapes are fixed, values are random.
package mockdata

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"seo-analytics-mcp/internal/models"
)

type city struct {
	name  string
	state string
}

var cities = []city{
	{"New York", "NY"},
	{"Los Angeles", "CA"},
	{"Chicago", "IL"},
	{"Houston", "TX"},
	{"Phoenix", "AZ"},
}

// CityCount is the number of locations returned for every domain
const CityCount = 5

var rankingKeywords = []string{
	"local business", "near me", "best in city", "top rated", "affordable",
	"professional", "experienced", "trusted", "same day service", "emergency service",
}

// KeywordCount is the number of keywords in every location ranking
const KeywordCount = 10

// Provider generates mock records from its own random source
type Provider struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewProvider creates a provider. A zero seed uses the current time.
func NewProvider(seed int64) *Provider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Provider{rnd: rand.New(rand.NewSource(seed))}
}

func (p *Provider) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

func (p *Provider) float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64()
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func dmaFor(c city) string {
	return c.name + " DMA"
}

// DomainLocations returns one location per fixed city
func (p *Provider) DomainLocations(domain string) []models.DomainLocation {
	locations := make([]models.DomainLocation, 0, len(cities))
	for i, c := range cities {
		locations = append(locations, models.DomainLocation{
			ID:        fmt.Sprintf("loc-%d", i+1),
			Name:      fmt.Sprintf("%s - %s", domain, c.name),
			Address:   fmt.Sprintf("%d Main St", 1000+i),
			City:      c.name,
			State:     c.state,
			ZipCode:   fmt.Sprintf("%d", 10000+i),
			DMA:       dmaFor(c),
			Latitude:  round6(p.float()*10 + 30),
			Longitude: round6(p.float()*50 - 120),
			Phone:     fmt.Sprintf("(%d) 555-%d", 800+i, 1000+i),
			Website:   fmt.Sprintf("https://%s/locations/%s", domain, strings.ReplaceAll(strings.ToLower(c.name), " ", "-")),
		})
	}
	return locations
}

// DomainRankings returns overall visibility figures plus one local ranking per DMA
func (p *Provider) DomainRankings(domain string) models.DomainRanking {
	ratings := []models.GMBRating{models.GMBRatingGood, models.GMBRatingAverage, models.GMBRatingPoor}

	local := make([]models.LocalRanking, 0, len(cities))
	for _, c := range cities {
		local = append(local, models.LocalRanking{
			DMA:          dmaFor(c),
			Position:     p.intn(50) + 1,
			KeywordCount: p.intn(1000),
		})
	}

	return models.DomainRanking{
		Domain:            domain,
		OverallRank:       p.intn(1000) + 1,
		OrganicVisibility: p.intn(100),
		OrganicKeywords:   p.intn(10000),
		PaidVisibility:    p.intn(100),
		PaidKeywords:      p.intn(5000),
		Backlinks:         p.intn(100000),
		GMBRating:         ratings[p.intn(len(ratings))],
		LocalRankings:     local,
	}
}

// LocationRankings returns the standing of the fixed keyword set in a location
func (p *Provider) LocationRankings(location, dma string) models.LocationKeywordRanking {
	levels := []models.CompetitionLevel{models.CompetitionLow, models.CompetitionMedium, models.CompetitionHigh}

	keywords := make([]models.KeywordRanking, 0, len(rankingKeywords))
	for _, kw := range rankingKeywords {
		keywords = append(keywords, models.KeywordRanking{
			Keyword:          kw,
			Position:         p.intn(100) + 1,
			SearchVolume:     p.intn(5000),
			CompetitionLevel: levels[p.intn(len(levels))],
		})
	}

	return models.LocationKeywordRanking{
		Location: location,
		DMA:      dma,
		Keywords: keywords,
	}
}
