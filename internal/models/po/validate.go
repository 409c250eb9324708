package po

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	catalogSchema  *jsonschema.Schema
	activitySchema *jsonschema.Schema
)

func init() {
	catalogSchema = mustCompile("schemas/catalog_record.json")
	activitySchema = mustCompile("schemas/activity_record.json")
}

func mustCompile(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("decode schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// Plausible date windows for scraped data. Publication dates before the
// printing press or far in the future indicate a scraper parsing bug.
var earliestPublication = time.Date(1450, 1, 1, 0, 0, 0, 0, time.UTC)

const maxFutureSkew = 24 * time.Hour

// ParseCatalogRecord validates one raw batch item against the catalog schema
// and returns the decoded record.
func ParseCatalogRecord(raw json.RawMessage) (*CatalogRecord, error) {
	if err := validateAgainst(catalogSchema, raw); err != nil {
		return nil, err
	}
	var rec CatalogRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode catalog record: %w", err)
	}
	if rec.ScrapedAt.IsZero() {
		return nil, fmt.Errorf("catalog record %d: scraped_at is required", rec.EntityID)
	}
	now := time.Now().UTC()
	if rec.ScrapedAt.After(now.Add(maxFutureSkew)) {
		return nil, fmt.Errorf("catalog record %d: scraped_at %s is in the future", rec.EntityID, rec.ScrapedAt.Time)
	}
	if rec.PublishedAt != nil && !rec.PublishedAt.IsZero() {
		if rec.PublishedAt.Before(earliestPublication) || rec.PublishedAt.After(now.AddDate(1, 0, 0)) {
			return nil, fmt.Errorf("catalog record %d: implausible published_at %s", rec.EntityID, rec.PublishedAt.Time)
		}
	}
	return &rec, nil
}

// ParseActivityRecord validates one raw batch item against the activity
// schema and returns the decoded record.
func ParseActivityRecord(raw json.RawMessage) (*ActivityRecord, error) {
	if err := validateAgainst(activitySchema, raw); err != nil {
		return nil, err
	}
	var rec ActivityRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode activity record: %w", err)
	}
	now := time.Now().UTC()
	if rec.OccurredAt.IsZero() || rec.ObservedAt.IsZero() {
		return nil, fmt.Errorf("activity record (%d,%d): timestamps are required", rec.OwnerID, rec.EntityID)
	}
	if rec.OccurredAt.After(now.Add(maxFutureSkew)) || rec.ObservedAt.After(now.Add(maxFutureSkew)) {
		return nil, fmt.Errorf("activity record (%d,%d): timestamp in the future", rec.OwnerID, rec.EntityID)
	}
	return &rec, nil
}

func validateAgainst(schema *jsonschema.Schema, raw json.RawMessage) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("item is not valid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("item failed schema validation: %w", err)
	}
	return nil
}
