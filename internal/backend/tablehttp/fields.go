package tablehttp

import "journalsync/internal/fieldmap"

// standardFields is the common column layout the table backends share.
// Dialects override individual column names where their schema differs
// (Grist and NocoDB reserve "Id" for the row id, so the entry id lives
// in "JournalId" there).
func standardFields(overrides map[string]string) []fieldmap.Field {
	base := []fieldmap.Field{
		{Canonical: "id", Column: "Id", Kind: fieldmap.KindString},
		{Canonical: "entry_at", Column: "EntryAt", Kind: fieldmap.KindDateTime},
		{Canonical: "timezone", Column: "Timezone", Kind: fieldmap.KindString},
		{Canonical: "created_at", Column: "CreatedAt", Kind: fieldmap.KindDateTime},
		{Canonical: "modified_at", Column: "ModifiedAt", Kind: fieldmap.KindDateTime},
		{Canonical: "text_content", Column: "TextContent", Kind: fieldmap.KindText},
		{Canonical: "rich_text_content", Column: "RichTextContent", Kind: fieldmap.KindText},
		{Canonical: "title", Column: "Title", Kind: fieldmap.KindString},
		{Canonical: "tags", Column: "Tags", Kind: fieldmap.KindStringList},
		{Canonical: "notebook", Column: "Notebook", Kind: fieldmap.KindString},
		{Canonical: "is_favorite", Column: "IsFavorite", Kind: fieldmap.KindBool},
		{Canonical: "is_pinned", Column: "IsPinned", Kind: fieldmap.KindBool},
		{Canonical: "mood_label", Column: "Mood", Kind: fieldmap.KindString},
		{Canonical: "mood_score", Column: "MoodScore", Kind: fieldmap.KindFloat},
		{Canonical: "activities", Column: "Activities", Kind: fieldmap.KindStringList},
		{Canonical: "location_lat", Column: "LocationLat", Kind: fieldmap.KindFloat},
		{Canonical: "location_lon", Column: "LocationLon", Kind: fieldmap.KindFloat},
		{Canonical: "location_name", Column: "LocationName", Kind: fieldmap.KindString},
		{Canonical: "location_address", Column: "LocationAddress", Kind: fieldmap.KindText},
		{Canonical: "location_altitude", Column: "LocationAltitude", Kind: fieldmap.KindFloat},
		{Canonical: "weather_temperature", Column: "WeatherTemp", Kind: fieldmap.KindFloat},
		{Canonical: "weather_condition", Column: "WeatherCondition", Kind: fieldmap.KindString},
		{Canonical: "weather_humidity", Column: "WeatherHumidity", Kind: fieldmap.KindFloat},
		{Canonical: "weather_pressure", Column: "WeatherPressure", Kind: fieldmap.KindFloat},
		{Canonical: "device_name", Column: "DeviceName", Kind: fieldmap.KindString},
		{Canonical: "step_count", Column: "StepCount", Kind: fieldmap.KindInt},
		{Canonical: "media_attachments", Column: "Attachments", Kind: fieldmap.KindAttachments},
		{Canonical: "source_app_name", Column: "SourceAppName", Kind: fieldmap.KindString},
		{Canonical: "source_original_id", Column: "SourceOriginalId", Kind: fieldmap.KindString},
		{Canonical: "source_imported_at", Column: "SourceImportedAt", Kind: fieldmap.KindDateTime},
		{Canonical: "source_raw_data", Column: "SourceRawData", Kind: fieldmap.KindJSON},
	}
	for i := range base {
		if col, ok := overrides[base[i].Canonical]; ok {
			base[i].Column = col
		}
	}
	return base
}
