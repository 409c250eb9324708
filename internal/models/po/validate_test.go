package po_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/herrfennessey/book-recommender-indexer/internal/models/po"
)

func validCatalogJSON(t *testing.T, overrides map[string]any) json.RawMessage {
	t.Helper()
	record := map[string]any{
		"entity_id":        123,
		"title":            "The Left Hand of Darkness",
		"author":           "Ursula K. Le Guin",
		"author_url":       "https://example.com/authors/le-guin",
		"isbn":             "044147812X",
		"isbn13":           "9780441478125",
		"language":         "English",
		"num_pages":        304,
		"genres":           []string{"Science Fiction"},
		"avg_rating":       4.07,
		"num_ratings":      12345,
		"num_reviews":      678,
		"rating_histogram": []int64{100, 200, 300, 400, 500},
		"published_at":     "1969-03-01",
		"scraped_at":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range overrides {
		if v == nil {
			delete(record, k)
			continue
		}
		record[k] = v
	}
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	return raw
}

func validActivityJSON(t *testing.T, overrides map[string]any) json.RawMessage {
	t.Helper()
	record := map[string]any{
		"owner_id":    7,
		"entity_id":   123,
		"rating":      5,
		"occurred_at": "2024-06-01 12:00:00",
		"observed_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range overrides {
		if v == nil {
			delete(record, k)
			continue
		}
		record[k] = v
	}
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	return raw
}

func TestParseCatalogRecordValid(t *testing.T) {
	rec, err := po.ParseCatalogRecord(validCatalogJSON(t, nil))
	require.NoError(t, err)
	require.Equal(t, int64(123), rec.EntityID)
	require.Equal(t, "The Left Hand of Darkness", rec.Title)
	require.Len(t, rec.RatingHistogram, 5)
	require.Equal(t, 1969, rec.PublishedAt.Year())
}

func TestParseCatalogRecordRejections(t *testing.T) {
	cases := map[string]map[string]any{
		"missing title":          {"title": nil},
		"empty author":           {"author": ""},
		"entity id zero":         {"entity_id": 0},
		"avg rating above five":  {"avg_rating": 5.5},
		"short histogram":        {"rating_histogram": []int64{1, 2, 3, 4}},
		"bad isbn":               {"isbn": "not-an-isbn"},
		"bad isbn13":             {"isbn13": "12345"},
		"pre-press published_at": {"published_at": "1200-01-01"},
		"future published_at":    {"published_at": time.Now().AddDate(3, 0, 0).Format("2006-01-02")},
		"future scraped_at":      {"scraped_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339)},
		"garbled scraped_at":     {"scraped_at": "yesterday"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := po.ParseCatalogRecord(validCatalogJSON(t, overrides))
			require.Error(t, err)
		})
	}
}

func TestParseCatalogRecordNotJSON(t *testing.T) {
	_, err := po.ParseCatalogRecord(json.RawMessage(`{"entity_id": `))
	require.Error(t, err)
}

func TestParseActivityRecordValid(t *testing.T) {
	rec, err := po.ParseActivityRecord(validActivityJSON(t, nil))
	require.NoError(t, err)
	require.Equal(t, int64(7), rec.OwnerID)
	require.Equal(t, int64(123), rec.EntityID)
	require.Equal(t, 5, rec.Rating)
	require.Equal(t, time.June, rec.OccurredAt.Month())
}

func TestParseActivityRecordRejections(t *testing.T) {
	cases := map[string]map[string]any{
		"missing owner":      {"owner_id": nil},
		"owner id zero":      {"owner_id": 0},
		"rating zero":        {"rating": 0},
		"rating six":         {"rating": 6},
		"missing occurred":   {"occurred_at": nil},
		"future occurred_at": {"occurred_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339)},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := po.ParseActivityRecord(validActivityJSON(t, overrides))
			require.Error(t, err)
		})
	}
}

func TestTimestampLayouts(t *testing.T) {
	layouts := []string{
		"2024-06-01T12:00:00.123456789Z",
		"2024-06-01T12:00:00Z",
		"2024-06-01T12:00:00",
		"2024-06-01 12:00:00",
		"2024-06-01",
	}
	for _, raw := range layouts {
		t.Run(raw, func(t *testing.T) {
			var ts po.Timestamp
			require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf("%q", raw)), &ts))
			require.Equal(t, 2024, ts.Year())
			require.Equal(t, time.June, ts.Month())
		})
	}
}

func TestTimestampMarshalsCanonical(t *testing.T) {
	ts := po.NewTimestamp(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	require.Equal(t, `"2024-06-01T12:00:00Z"`, string(out))

	var zero po.Timestamp
	out, err = json.Marshal(zero)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}
