package domain

import (
	"strings"

	"github.com/google/uuid"
)

// InstanceType identifies the *arr application behind an instance
type InstanceType string

const (
	InstanceTypeRadarr InstanceType = "radarr"
	InstanceTypeSonarr InstanceType = "sonarr"
)

// InstanceTypes lists every supported type in display order
var InstanceTypes = []InstanceType{InstanceTypeRadarr, InstanceTypeSonarr}

// DisplayName returns the product name ("Radarr")
func (t InstanceType) DisplayName() string {
	switch t {
	case InstanceTypeRadarr:
		return "Radarr"
	case InstanceTypeSonarr:
		return "Sonarr"
	default:
		return string(t)
	}
}

// ParseInstanceType parses a case-insensitive type name
func ParseInstanceType(s string) (InstanceType, bool) {
	switch InstanceType(strings.ToLower(strings.TrimSpace(s))) {
	case InstanceTypeRadarr:
		return InstanceTypeRadarr, true
	case InstanceTypeSonarr:
		return InstanceTypeSonarr, true
	default:
		return "", false
	}
}

// Instance is one configured *arr server
type Instance struct {
	ID     string       `json:"id"`
	Type   InstanceType `json:"type"`
	Label  string       `json:"label"`
	URL    string       `json:"url"`
	APIKey string       `json:"apiKey"`
}

// NewInstance creates an instance with a fresh identifier
func NewInstance(t InstanceType, label, url, apiKey string) Instance {
	return Instance{
		ID:     uuid.NewString(),
		Type:   t,
		Label:  label,
		URL:    url,
		APIKey: apiKey,
	}
}

// HasEmptyFields reports whether any user-supplied field is blank
func (i Instance) HasEmptyFields() bool {
	return i.Label == "" || i.URL == "" || i.APIKey == ""
}

// IsVoid reports whether the instance is the zero placeholder
func (i Instance) IsVoid() bool {
	return i.ID == ""
}
