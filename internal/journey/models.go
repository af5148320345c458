// Package journey reads Journey.Cloud journal exports and converts them
// to and from the canonical entry model.
package journey

// Entry mirrors one Journey.Cloud export sidecar. The same struct backs
// sidecar parsing and round-trip reconstruction so the two directions
// cannot disagree about the wire names.
type Entry struct {
	ID            string    `json:"id"`
	DateOfJournal string    `json:"dateOfJournal"`
	Text          string    `json:"text"`
	Timezone      string    `json:"timezone,omitempty"`
	UpdatedAt     string    `json:"updatedAt,omitempty"`
	CreatedAt     string    `json:"createdAt,omitempty"`
	Favourite     bool      `json:"favourite"`
	Sentiment     float64   `json:"sentiment"`
	Address       *string   `json:"address,omitempty"`
	Location      *Location `json:"location,omitempty"`
	Weather       *Weather  `json:"weather,omitempty"`
	Attachments   []string  `json:"attachments,omitempty"`
	Tags          []string  `json:"tags"`
	Encrypted     bool      `json:"encrypted"`
	Version       int       `json:"version,omitempty"`
	Activity      int       `json:"activity"`
	Type          string    `json:"type,omitempty"`
	SchemaVersion int       `json:"schemaVersion,omitempty"`
}

type Location struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Name     *string  `json:"name,omitempty"`
	Altitude *float64 `json:"altitude,omitempty"`
}

type Weather struct {
	ID          *int     `json:"id,omitempty"`
	DegreeC     *float64 `json:"degree_c,omitempty"`
	Description *string  `json:"description,omitempty"`
	Icon        *string  `json:"icon,omitempty"`
	Place       *string  `json:"place,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
}

// Content type markers used by Journey exports.
const (
	TypeMarkdown = "markdown"
	TypeHTML     = "html"
)

// AppName is the provenance label stamped on imported entries.
const AppName = "JourneyCloud"
