package model

import "time"

// Genre is the fixed set of accepted genres.
type Genre string

const (
	GenreHouse       Genre = "house"
	GenreTechno      Genre = "techno"
	GenreTrance      Genre = "trance"
	GenreDubstep     Genre = "dubstep"
	GenreDrumAndBass Genre = "drum_and_bass"
	GenreElectronic  Genre = "electronic"
	GenreDeepHouse   Genre = "deep_house"
	GenreProgressive Genre = "progressive"
	GenreAmbient     Genre = "ambient"
	GenreDowntempo   Genre = "downtempo"
)

var genres = map[Genre]bool{
	GenreHouse: true, GenreTechno: true, GenreTrance: true, GenreDubstep: true,
	GenreDrumAndBass: true, GenreElectronic: true, GenreDeepHouse: true,
	GenreProgressive: true, GenreAmbient: true, GenreDowntempo: true,
}

// Valid reports whether the genre belongs to the fixed set.
func (g Genre) Valid() bool { return genres[g] }

// LicensingType selects the sale mode of a vocal.
type LicensingType string

const (
	// LicensingExclusive permits at most one sale ever.
	LicensingExclusive LicensingType = "exclusive"
	// LicensingNonExclusive permits unlimited sales.
	LicensingNonExclusive LicensingType = "non_exclusive"
)

// Valid reports whether the licensing type is known.
func (l LicensingType) Valid() bool {
	return l == LicensingExclusive || l == LicensingNonExclusive
}

// VocalStatus tracks the asset pipeline state of an upload.
type VocalStatus string

const (
	VocalProcessing VocalStatus = "processing"
	VocalCompleted  VocalStatus = "completed"
	VocalFailed     VocalStatus = "failed"
)

// Vocal represents an uploaded vocal track with its sale metadata.
type Vocal struct {
	ID            int64         `json:"id"`
	SingerID      int64         `json:"singerId"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Genre         Genre         `json:"genre"`
	Bpm           int           `json:"bpm"`
	Key           string        `json:"key"`
	Tone          string        `json:"tone"`
	Duration      int           `json:"duration"` // whole seconds, derived by the pipeline
	Price         float64       `json:"price"`
	LicensingType LicensingType `json:"licensingType"`
	FilePath      string        `json:"-"` // master audio, never exposed directly
	PreviewPath   string        `json:"previewPath"`
	FileSize      int64         `json:"fileSize"`
	Status        VocalStatus   `json:"status"`
	IsExclusive   bool          `json:"isExclusive"`
	IsSold        bool          `json:"isSold"`
	IsActive      bool          `json:"isActive"`
	ViewCount     int64         `json:"viewCount"`
	DownloadCount int64         `json:"downloadCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	// Singer is joined in for search responses; nil elsewhere.
	Singer *User `json:"singer,omitempty"`
}

// SearchFilters restricts a catalog search. Nil/zero fields are ignored.
type SearchFilters struct {
	Genre         Genre
	MinPrice      *float64
	MaxPrice      *float64
	MinBpm        *int
	MaxBpm        *int
	Key           string
	LicensingType LicensingType
	Search        string // case-insensitive substring over title/description/singer names
}

// VocalPatch is a partial update of owner-editable fields.
type VocalPatch struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Genre         *Genre         `json:"genre"`
	Bpm           *int           `json:"bpm"`
	Key           *string        `json:"key"`
	Tone          *string        `json:"tone"`
	Price         *float64       `json:"price"`
	LicensingType *LicensingType `json:"licensingType"`
}
