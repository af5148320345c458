package fieldmap

import (
	"fmt"
	"sort"
	"time"

	"journalsync/internal/domain"
)

// accessor binds one canonical field to its typed getter and setter. The
// getter's boolean reports presence; absent fields are skipped on encode.
type accessor struct {
	kind Kind
	get  func(e *domain.JournalEntry) (any, bool)
	set  func(e *domain.JournalEntry, v any) error
}

func strAccessor(get func(e *domain.JournalEntry) *string, set func(e *domain.JournalEntry, v *string)) accessor {
	return accessor{
		kind: KindString,
		get: func(e *domain.JournalEntry) (any, bool) {
			p := get(e)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(e *domain.JournalEntry, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			set(e, &s)
			return nil
		},
	}
}

func floatAccessor(get func(e *domain.JournalEntry) *float64, set func(e *domain.JournalEntry, v *float64)) accessor {
	return accessor{
		kind: KindFloat,
		get: func(e *domain.JournalEntry) (any, bool) {
			p := get(e)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(e *domain.JournalEntry, v any) error {
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("expected float, got %T", v)
			}
			set(e, &f)
			return nil
		},
	}
}

func timeAccessor(get func(e *domain.JournalEntry) *time.Time, set func(e *domain.JournalEntry, v *time.Time)) accessor {
	return accessor{
		kind: KindDateTime,
		get: func(e *domain.JournalEntry) (any, bool) {
			p := get(e)
			if p == nil {
				return nil, false
			}
			return *p, true
		},
		set: func(e *domain.JournalEntry, v any) error {
			t, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("expected time, got %T", v)
			}
			set(e, &t)
			return nil
		},
	}
}

func boolAccessor(get func(e *domain.JournalEntry) bool, set func(e *domain.JournalEntry, v bool)) accessor {
	return accessor{
		kind: KindBool,
		get: func(e *domain.JournalEntry) (any, bool) {
			return get(e), true
		},
		set: func(e *domain.JournalEntry, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("expected bool, got %T", v)
			}
			set(e, b)
			return nil
		},
	}
}

func listAccessor(get func(e *domain.JournalEntry) []string, set func(e *domain.JournalEntry, v []string)) accessor {
	return accessor{
		kind: KindStringList,
		get: func(e *domain.JournalEntry) (any, bool) {
			items := get(e)
			return items, len(items) > 0
		},
		set: func(e *domain.JournalEntry, v any) error {
			items, ok := v.([]string)
			if !ok {
				return fmt.Errorf("expected string list, got %T", v)
			}
			set(e, items)
			return nil
		},
	}
}

// Canonical returns an identity mapping covering every registered
// field, with each column named after its canonical field. Useful for
// stores that keep records in the canonical shape.
func Canonical() []Field {
	names := make([]string, 0, len(accessors))
	for name := range accessors {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Canonical: name, Column: name, Kind: accessors[name].kind}
	}
	return fields
}

// accessors is the canonical field registry. Mapping tables may bind any
// subset of it, but id and entry_at are mandatory.
var accessors = map[string]accessor{
	"id": {
		kind: KindString,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.ID, e.ID != ""
		},
		set: func(e *domain.JournalEntry, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			e.ID = s
			return nil
		},
	},
	"entry_at": {
		kind: KindDateTime,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.EntryAt, !e.EntryAt.IsZero()
		},
		set: func(e *domain.JournalEntry, v any) error {
			t, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("expected time, got %T", v)
			}
			e.EntryAt = t
			return nil
		},
	},
	"created_at": timeAccessor(
		func(e *domain.JournalEntry) *time.Time { return e.CreatedAt },
		func(e *domain.JournalEntry, v *time.Time) { e.CreatedAt = v },
	),
	"modified_at": timeAccessor(
		func(e *domain.JournalEntry) *time.Time { return e.ModifiedAt },
		func(e *domain.JournalEntry, v *time.Time) { e.ModifiedAt = v },
	),
	"timezone": strAccessor(
		func(e *domain.JournalEntry) *string { return e.Timezone },
		func(e *domain.JournalEntry, v *string) { e.Timezone = v },
	),
	"text_content": strAccessor(
		func(e *domain.JournalEntry) *string { return e.TextContent },
		func(e *domain.JournalEntry, v *string) { e.TextContent = v },
	),
	"rich_text_content": strAccessor(
		func(e *domain.JournalEntry) *string { return e.RichTextContent },
		func(e *domain.JournalEntry, v *string) { e.RichTextContent = v },
	),
	"title": strAccessor(
		func(e *domain.JournalEntry) *string { return e.Title },
		func(e *domain.JournalEntry, v *string) { e.Title = v },
	),
	"tags": listAccessor(
		func(e *domain.JournalEntry) []string { return e.Tags },
		func(e *domain.JournalEntry, v []string) { e.Tags = v },
	),
	"notebook": strAccessor(
		func(e *domain.JournalEntry) *string { return e.Notebook },
		func(e *domain.JournalEntry, v *string) { e.Notebook = v },
	),
	"is_favorite": boolAccessor(
		func(e *domain.JournalEntry) bool { return e.IsFavorite },
		func(e *domain.JournalEntry, v bool) { e.IsFavorite = v },
	),
	"is_pinned": boolAccessor(
		func(e *domain.JournalEntry) bool { return e.IsPinned },
		func(e *domain.JournalEntry, v bool) { e.IsPinned = v },
	),
	"mood_label": strAccessor(
		func(e *domain.JournalEntry) *string { return e.MoodLabel },
		func(e *domain.JournalEntry, v *string) { e.MoodLabel = v },
	),
	"mood_score": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.MoodScore },
		func(e *domain.JournalEntry, v *float64) { e.MoodScore = v },
	),
	"activities": listAccessor(
		func(e *domain.JournalEntry) []string { return e.Activities },
		func(e *domain.JournalEntry, v []string) { e.Activities = v },
	),
	"location_lat": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.LocationLat },
		func(e *domain.JournalEntry, v *float64) { e.LocationLat = v },
	),
	"location_lon": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.LocationLon },
		func(e *domain.JournalEntry, v *float64) { e.LocationLon = v },
	),
	"location_name": strAccessor(
		func(e *domain.JournalEntry) *string { return e.LocationName },
		func(e *domain.JournalEntry, v *string) { e.LocationName = v },
	),
	"location_address": strAccessor(
		func(e *domain.JournalEntry) *string { return e.LocationAddress },
		func(e *domain.JournalEntry, v *string) { e.LocationAddress = v },
	),
	"location_altitude": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.LocationAltitude },
		func(e *domain.JournalEntry, v *float64) { e.LocationAltitude = v },
	),
	"weather_temperature": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.WeatherTemperature },
		func(e *domain.JournalEntry, v *float64) { e.WeatherTemperature = v },
	),
	"weather_condition": strAccessor(
		func(e *domain.JournalEntry) *string { return e.WeatherCondition },
		func(e *domain.JournalEntry, v *string) { e.WeatherCondition = v },
	),
	"weather_humidity": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.WeatherHumidity },
		func(e *domain.JournalEntry, v *float64) { e.WeatherHumidity = v },
	),
	"weather_pressure": floatAccessor(
		func(e *domain.JournalEntry) *float64 { return e.WeatherPressure },
		func(e *domain.JournalEntry, v *float64) { e.WeatherPressure = v },
	),
	"device_name": strAccessor(
		func(e *domain.JournalEntry) *string { return e.DeviceName },
		func(e *domain.JournalEntry, v *string) { e.DeviceName = v },
	),
	"step_count": {
		kind: KindInt,
		get: func(e *domain.JournalEntry) (any, bool) {
			if e.StepCount == nil {
				return nil, false
			}
			return *e.StepCount, true
		},
		set: func(e *domain.JournalEntry, v any) error {
			n, ok := v.(int)
			if !ok {
				return fmt.Errorf("expected int, got %T", v)
			}
			e.StepCount = &n
			return nil
		},
	},
	"media_attachments": {
		kind: KindAttachments,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.MediaAttachments, len(e.MediaAttachments) > 0
		},
		set: func(e *domain.JournalEntry, v any) error {
			atts, ok := v.([]domain.MediaAttachment)
			if !ok {
				return fmt.Errorf("expected attachments, got %T", v)
			}
			e.MediaAttachments = atts
			return nil
		},
	},
	"source_app_name": {
		kind: KindString,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.SourceAppName, e.SourceAppName != ""
		},
		set: func(e *domain.JournalEntry, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			e.SourceAppName = s
			return nil
		},
	},
	"source_original_id": strAccessor(
		func(e *domain.JournalEntry) *string { return e.SourceOriginalID },
		func(e *domain.JournalEntry, v *string) { e.SourceOriginalID = v },
	),
	"source_imported_at": {
		kind: KindDateTime,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.SourceImportedAt, !e.SourceImportedAt.IsZero()
		},
		set: func(e *domain.JournalEntry, v any) error {
			t, ok := v.(time.Time)
			if !ok {
				return fmt.Errorf("expected time, got %T", v)
			}
			e.SourceImportedAt = t
			return nil
		},
	},
	"source_raw_data": {
		kind: KindJSON,
		get: func(e *domain.JournalEntry) (any, bool) {
			return e.SourceRawData, e.SourceRawData != ""
		},
		set: func(e *domain.JournalEntry, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", v)
			}
			e.SourceRawData = s
			return nil
		},
	},
}
