package po

import "fmt"

// Scrape job kinds registered on the River queue. Kind plus args form the
// deterministic job identity the queue dedupes on.
const (
	JobKindEntityScrape = "entity-scrape"
	JobKindOwnerScrape  = "owner-scrape"
)

// EntityScrapeArgs requests a full scrape of one book.
type EntityScrapeArgs struct {
	EntityID int64 `json:"entity_id"`
}

// Kind implements river.JobArgs.
func (EntityScrapeArgs) Kind() string { return JobKindEntityScrape }

// DomainKey returns the stable business identity of the job.
func (a EntityScrapeArgs) DomainKey() string { return fmt.Sprintf("entity-%d", a.EntityID) }

// OwnerScrapeArgs requests a scrape of one reader profile.
type OwnerScrapeArgs struct {
	OwnerID int64 `json:"owner_id"`
}

// Kind implements river.JobArgs.
func (OwnerScrapeArgs) Kind() string { return JobKindOwnerScrape }

// DomainKey returns the stable business identity of the job.
func (a OwnerScrapeArgs) DomainKey() string { return fmt.Sprintf("owner-%d", a.OwnerID) }
