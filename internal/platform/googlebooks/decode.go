package googlebooks

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The volumes API is loosely typed in practice. Every field below decodes
// leniently: a value of the wrong JSON type reads as its zero value instead
// of failing the whole page.

// UnmarshalJSON fails only when b is not a JSON object or null.
func (r *VolumesResponse) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = VolumesResponse{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	*r = VolumesResponse{
		Kind:       lenientString(raw["kind"]),
		TotalItems: lenientInt(raw["totalItems"]),
		Items:      lenientVolumes(raw["items"]),
		Error:      lenientAPIError(raw["error"]),
	}
	return nil
}

// UnmarshalJSON never fails. A non-object reads as the zero Volume.
func (v *Volume) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*v = Volume{}
		return nil
	}
	*v = Volume{ID: lenientString(raw["id"])}
	return v.VolumeInfo.UnmarshalJSON(raw["volumeInfo"])
}

// UnmarshalJSON never fails. A missing or non-object volumeInfo reads as the
// zero VolumeInfo, and each field falls back to its zero value on a type
// mismatch.
func (v *VolumeInfo) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if len(b) == 0 || json.Unmarshal(b, &raw) != nil {
		*v = VolumeInfo{}
		return nil
	}
	*v = VolumeInfo{
		Title:         lenientString(raw["title"]),
		Authors:       lenientStrings(raw["authors"]),
		Description:   lenientString(raw["description"]),
		ImageLinks:    lenientImageLinks(raw["imageLinks"]),
		Categories:    lenientStrings(raw["categories"]),
		PublishedDate: lenientString(raw["publishedDate"]),
	}
	return nil
}

func lenientString(b json.RawMessage) string {
	var s string
	if len(b) == 0 || json.Unmarshal(b, &s) != nil {
		return ""
	}
	return s
}

func lenientInt(b json.RawMessage) int {
	var n int
	if len(b) == 0 || json.Unmarshal(b, &n) != nil {
		return 0
	}
	return n
}

// lenientStrings drops the whole list when it is not an array of strings.
func lenientStrings(b json.RawMessage) []string {
	var s []string
	if len(b) == 0 || json.Unmarshal(b, &s) != nil {
		return nil
	}
	return s
}

func lenientVolumes(b json.RawMessage) []Volume {
	var items []json.RawMessage
	if len(b) == 0 || json.Unmarshal(b, &items) != nil {
		return nil
	}
	out := make([]Volume, len(items))
	for i, item := range items {
		_ = out[i].UnmarshalJSON(item)
	}
	return out
}

func lenientImageLinks(b json.RawMessage) *ImageLinks {
	var raw map[string]json.RawMessage
	if len(b) == 0 || json.Unmarshal(b, &raw) != nil || raw == nil {
		return nil
	}
	return &ImageLinks{
		SmallThumbnail: lenientString(raw["smallThumbnail"]),
		Thumbnail:      lenientString(raw["thumbnail"]),
	}
}

func lenientAPIError(b json.RawMessage) *APIError {
	var raw map[string]json.RawMessage
	if len(b) == 0 || json.Unmarshal(b, &raw) != nil || raw == nil {
		return nil
	}
	return &APIError{
		Code:    lenientInt(raw["code"]),
		Message: lenientString(raw["message"]),
	}
}
