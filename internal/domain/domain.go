// Package domain defines the canonical journal entry model every source
// and destination format is translated through.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is the backend-agnostic representation of one journal record.
// Optional scalar fields are pointers so that "absent" stays distinct from
// zero values; destination adapters skip absent fields when building payloads.
type JournalEntry struct {
	ID string `json:"id"`

	EntryAt    time.Time  `json:"entry_at"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Timezone   *string    `json:"timezone,omitempty"`

	TextContent     *string `json:"text_content,omitempty"`
	RichTextContent *string `json:"rich_text_content,omitempty"`
	Title           *string `json:"title,omitempty"`

	Tags       []string `json:"tags,omitempty"`
	Notebook   *string  `json:"notebook,omitempty"`
	IsFavorite bool     `json:"is_favorite"`
	IsPinned   bool     `json:"is_pinned"`

	MoodLabel  *string  `json:"mood_label,omitempty"`
	MoodScore  *float64 `json:"mood_score,omitempty"`
	Activities []string `json:"activities,omitempty"`

	LocationLat      *float64 `json:"location_lat,omitempty"`
	LocationLon      *float64 `json:"location_lon,omitempty"`
	LocationName     *string  `json:"location_name,omitempty"`
	LocationAddress  *string  `json:"location_address,omitempty"`
	LocationAltitude *float64 `json:"location_altitude,omitempty"`

	WeatherTemperature *float64 `json:"weather_temperature,omitempty"`
	WeatherCondition   *string  `json:"weather_condition,omitempty"`
	WeatherHumidity    *float64 `json:"weather_humidity,omitempty"`
	WeatherPressure    *float64 `json:"weather_pressure,omitempty"`

	DeviceName *string `json:"device_name,omitempty"`
	StepCount  *int    `json:"step_count,omitempty"`

	// MediaAttachments keeps the original display order; the first
	// attachment doubles as the cover image downstream.
	MediaAttachments []MediaAttachment `json:"media_attachments,omitempty"`

	SourceAppName    string    `json:"source_app_name"`
	SourceOriginalID *string   `json:"source_original_id,omitempty"`
	SourceImportedAt time.Time `json:"source_imported_at"`
	// SourceRawData holds the original un-normalized record as JSON text,
	// retained so lossy forward conversions can be reconstructed exactly.
	SourceRawData string `json:"source_raw_data,omitempty"`
}

// New returns an entry with a generated id and the import timestamp stamped.
// Entries with a known origin overwrite ID with the origin identifier so that
// re-imports stay idempotent.
func New(entryAt time.Time) JournalEntry {
	return JournalEntry{
		ID:               uuid.NewString(),
		EntryAt:          entryAt,
		SourceImportedAt: time.Now().UTC(),
	}
}

// Map projects the entry to a diagnostics/interchange mapping: ISO-8601
// UTC timestamps with a Z suffix, absent fields omitted entirely.
func (e JournalEntry) Map() map[string]any {
	m := map[string]any{
		"id":                 e.ID,
		"entry_at":           FormatTime(e.EntryAt),
		"is_favorite":        e.IsFavorite,
		"is_pinned":          e.IsPinned,
		"source_imported_at": FormatTime(e.SourceImportedAt),
	}
	if e.SourceAppName != "" {
		m["source_app_name"] = e.SourceAppName
	}
	putTime(m, "created_at", e.CreatedAt)
	putTime(m, "modified_at", e.ModifiedAt)
	putStr(m, "timezone", e.Timezone)
	putStr(m, "text_content", e.TextContent)
	putStr(m, "rich_text_content", e.RichTextContent)
	putStr(m, "title", e.Title)
	putStr(m, "notebook", e.Notebook)
	putStr(m, "mood_label", e.MoodLabel)
	putStr(m, "location_name", e.LocationName)
	putStr(m, "location_address", e.LocationAddress)
	putStr(m, "weather_condition", e.WeatherCondition)
	putStr(m, "device_name", e.DeviceName)
	putStr(m, "source_original_id", e.SourceOriginalID)
	putFloat(m, "mood_score", e.MoodScore)
	putFloat(m, "location_lat", e.LocationLat)
	putFloat(m, "location_lon", e.LocationLon)
	putFloat(m, "location_altitude", e.LocationAltitude)
	putFloat(m, "weather_temperature", e.WeatherTemperature)
	putFloat(m, "weather_humidity", e.WeatherHumidity)
	putFloat(m, "weather_pressure", e.WeatherPressure)
	if e.StepCount != nil {
		m["step_count"] = *e.StepCount
	}
	if len(e.Tags) > 0 {
		m["tags"] = e.Tags
	}
	if len(e.Activities) > 0 {
		m["activities"] = e.Activities
	}
	if len(e.MediaAttachments) > 0 {
		m["media_attachments"] = e.MediaAttachments
	}
	if e.SourceRawData != "" {
		m["source_raw_data"] = e.SourceRawData
	}
	return m
}

func putStr(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func putTime(m map[string]any, key string, v *time.Time) {
	if v != nil {
		m[key] = FormatTime(*v)
	}
}

// FormatTime serializes to ISO-8601 with the Z suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseTime accepts Z-suffixed, offset-suffixed, and zone-less ISO-8601
// strings; zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
