package models

// DomainKeywords is the industry classification of a domain with the
// keywords the upstream service associates with it
type DomainKeywords struct {
	Keywords   []string `json:"keywords"`
	Confidence float64  `json:"confidence"`
	Industry   string   `json:"industry"`
}

// KeywordSearchVolume is the monthly search volume of one keyword in one location
type KeywordSearchVolume struct {
	Keyword             string `json:"keyword"`
	City                string `json:"city"`
	MonthlySearchVolume int64  `json:"monthlySearchVolume"`
}

// DomainLocation is a physical business location attached to a domain
type DomainLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	ZipCode   string  `json:"zipCode"`
	DMA       string  `json:"dma"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"phone"`
	Website   string  `json:"website"`
}

// GMBRating is the coarse Google Business Profile rating bucket
type GMBRating string

const (
	GMBRatingGood    GMBRating = "good"
	GMBRatingAverage GMBRating = "average"
	GMBRatingPoor    GMBRating = "poor"
)

// CompetitionLevel grades how contested a keyword is
type CompetitionLevel string

const (
	CompetitionLow    CompetitionLevel = "low"
	CompetitionMedium CompetitionLevel = "medium"
	CompetitionHigh   CompetitionLevel = "high"
)

// LocalRanking is the position of a domain inside one DMA
type LocalRanking struct {
	DMA          string `json:"dma"`
	Position     int    `json:"position"`
	KeywordCount int    `json:"keywordCount"`
}

// DomainRanking summarizes organic, paid and local visibility of a domain
type DomainRanking struct {
	Domain            string         `json:"domain"`
	OverallRank       int            `json:"overallRank"`
	OrganicVisibility int            `json:"organicVisibility"`
	OrganicKeywords   int            `json:"organicKeywords"`
	PaidVisibility    int            `json:"paidVisibility"`
	PaidKeywords      int            `json:"paidKeywords"`
	Backlinks         int            `json:"backlinks"`
	GMBRating         GMBRating      `json:"gmbRating"`
	LocalRankings     []LocalRanking `json:"localRankings"`
}

// KeywordRanking is one keyword's standing inside a location
type KeywordRanking struct {
	Keyword          string           `json:"keyword"`
	Position         int              `json:"position"`
	SearchVolume     int              `json:"searchVolume"`
	CompetitionLevel CompetitionLevel `json:"competitionLevel"`
}

// LocationKeywordRanking lists keyword rankings for a location within a DMA
type LocationKeywordRanking struct {
	Location string           `json:"location"`
	DMA      string           `json:"dma"`
	Keywords []KeywordRanking `json:"keywords"`
}

// AuditRequest is the payload shared by audit creation and retrieval
type AuditRequest struct {
	Domain    string   `json:"domain"`
	Keywords  []string `json:"keywords"`
	Locations []string `json:"locations"`
	InWorker  bool     `json:"in_worker"`
}

// AuditResult is whatever the upstream returns for an audit; usually a
// report URL or a status object. It is rendered verbatim.
type AuditResult interface{}
