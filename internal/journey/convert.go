package journey

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"journalsync/internal/domain"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// htmlToText derives plain text from an HTML body. If conversion fails or
// produces nothing, the raw body is returned unchanged.
func htmlToText(html string) string {
	result, err := mdConverter.ConvertString(html)
	if err != nil || strings.TrimSpace(result) == "" {
		return html
	}
	return strings.TrimSpace(result)
}

// ToCanonical converts a parsed export entry to the canonical model.
// rawJSON is the full sidecar payload, retained for exact reconstruction.
// The export's entry timestamp is mandatory: entries without one fail
// here rather than being backdated to import time.
func ToCanonical(exp Entry, rawJSON []byte) (domain.JournalEntry, error) {
	entryAt, err := entryTimestamp(exp)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	e := domain.New(entryAt)
	if exp.ID != "" {
		e.ID = exp.ID
		e.SourceOriginalID = &exp.ID
	}
	e.SourceAppName = AppName
	e.SourceRawData = string(rawJSON)

	if exp.Timezone != "" {
		e.Timezone = &exp.Timezone
	}
	if ts, err := domain.ParseTime(exp.DateOfJournal); err == nil {
		e.CreatedAt = &ts
	}
	if exp.UpdatedAt != "" {
		if ts, err := domain.ParseTime(exp.UpdatedAt); err == nil {
			e.ModifiedAt = &ts
		}
	}

	body := exp.Text
	switch exp.Type {
	case TypeMarkdown:
		e.RichTextContent = &body
	case TypeHTML:
		e.RichTextContent = &body
		text := htmlToText(body)
		e.TextContent = &text
	default:
		if body != "" {
			e.TextContent = &body
		}
	}

	for _, tag := range exp.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			e.Tags = append(e.Tags, trimmed)
		}
	}
	e.IsFavorite = exp.Favourite
	if exp.Sentiment != 0 {
		s := exp.Sentiment
		e.MoodScore = &s
	}
	if exp.Activity != 0 {
		e.Activities = []string{strconv.Itoa(exp.Activity)}
	}

	if loc := exp.Location; loc != nil {
		e.LocationLat = loc.Lat
		e.LocationLon = loc.Lng
		e.LocationName = loc.Name
		e.LocationAltitude = loc.Altitude
	}
	e.LocationAddress = exp.Address
	if w := exp.Weather; w != nil {
		e.WeatherTemperature = w.DegreeC
		e.WeatherCondition = w.Description
		e.WeatherHumidity = w.Humidity
		e.WeatherPressure = w.Pressure
	}

	return e, nil
}

// entryTimestamp tries the journal date, then the creation date.
func entryTimestamp(exp Entry) (time.Time, error) {
	if exp.DateOfJournal != "" {
		if ts, err := domain.ParseTime(exp.DateOfJournal); err == nil {
			return ts, nil
		}
	}
	if exp.CreatedAt != "" {
		if ts, err := domain.ParseTime(exp.CreatedAt); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no usable entry timestamp (dateOfJournal=%q createdAt=%q)", exp.DateOfJournal, exp.CreatedAt)
}

// FromCanonical reconstructs the Journey wire form of an entry. When the
// original sidecar payload survived in SourceRawData it is deserialized
// as-is; otherwise the entry is rebuilt from the flattened fields with
// the same field coverage the raw path preserves.
func FromCanonical(e domain.JournalEntry) Entry {
	if e.SourceRawData != "" {
		var exp Entry
		if err := json.Unmarshal([]byte(e.SourceRawData), &exp); err == nil {
			return exp
		}
	}
	return rebuild(e)
}

func rebuild(e domain.JournalEntry) Entry {
	exp := Entry{
		ID:            e.ID,
		DateOfJournal: formatMillis(e.EntryAt),
		Favourite:     e.IsFavorite,
		Tags:          e.Tags,
	}
	if e.CreatedAt != nil {
		exp.CreatedAt = formatMillis(*e.CreatedAt)
	}
	if e.ModifiedAt != nil {
		exp.UpdatedAt = formatMillis(*e.ModifiedAt)
	}
	if e.Timezone != nil {
		exp.Timezone = *e.Timezone
	}
	switch {
	case e.RichTextContent != nil:
		exp.Text = *e.RichTextContent
		exp.Type = TypeMarkdown
	case e.TextContent != nil:
		exp.Text = *e.TextContent
	}
	if e.MoodScore != nil {
		exp.Sentiment = *e.MoodScore
	}
	if len(e.Activities) > 0 {
		if code, err := strconv.Atoi(e.Activities[0]); err == nil {
			exp.Activity = code
		}
	}
	exp.Address = e.LocationAddress
	if e.LocationLat != nil || e.LocationLon != nil {
		exp.Location = &Location{
			Lat:      e.LocationLat,
			Lng:      e.LocationLon,
			Name:     e.LocationName,
			Altitude: e.LocationAltitude,
		}
	}
	if e.WeatherTemperature != nil || e.WeatherCondition != nil {
		exp.Weather = &Weather{
			DegreeC:     e.WeatherTemperature,
			Description: e.WeatherCondition,
			Humidity:    e.WeatherHumidity,
			Pressure:    e.WeatherPressure,
		}
	}
	for _, att := range e.MediaAttachments {
		if att.Filename != "" {
			exp.Attachments = append(exp.Attachments, att.Filename)
		}
	}
	return exp
}

// formatMillis matches the export format: millisecond precision, Z suffix.
func formatMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
