package translate

import (
	"regexp"
	"strings"
)

// TrackIDPrefix namespaces synthesized track object paths.
const TrackIDPrefix = "/fi/iki/tpr/hassbridge/"

// NoTrackID is the MPRIS path for "no current track".
const NoTrackID = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

var trackIDInvalidChars = regexp.MustCompile(`[^0-9a-zA-Z_]`)

// Metadata is the typed form of the MPRIS Metadata map. Optional text fields
// are empty when the hub did not report them and must then be omitted.
type Metadata struct {
	TrackID string
	// Length is the track duration in microseconds.
	Length int64
	Artist string
	Album  string
	Title  string
	ArtURL string
}

// BuildMetadata synthesizes track metadata from s.
func BuildMetadata(s Snapshot, baseURL string) Metadata {
	duration, _ := s.Float("media_duration")
	md := Metadata{
		TrackID: TrackID(s),
		Length:  secondsToMicros(duration),
	}
	md.Artist, _ = s.String("media_artist")
	md.Album, _ = s.String("media_album_name")
	md.Title, _ = s.String("media_title")
	md.ArtURL = ArtURL(s, baseURL)
	return md
}

// TrackID derives an object path from media_content_id, falling back to the
// title. Without either it is NoTrackID.
func TrackID(s Snapshot) string {
	contentID, _ := s.String("media_content_id")
	if contentID == "" {
		contentID, _ = s.String("media_title")
	}
	if contentID == "" {
		return NoTrackID
	}
	return TrackIDPrefix + SanitizeTrackID(contentID)
}

// SanitizeTrackID replaces every character outside [0-9a-zA-Z_] with '_'.
func SanitizeTrackID(contentID string) string {
	return trackIDInvalidChars.ReplaceAllString(contentID, "_")
}

// ArtURL joins a relative entity_picture onto baseURL. Absolute picture URLs
// are used as they are.
func ArtURL(s Snapshot, baseURL string) string {
	picture, ok := s.String("entity_picture")
	if !ok || picture == "" {
		return ""
	}
	if strings.HasPrefix(picture, "http://") || strings.HasPrefix(picture, "https://") {
		return picture
	}
	return baseURL + picture
}
