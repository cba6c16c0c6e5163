// Package datapackage assembles the WACZ manifest (datapackage.json), its
// digest, and the optional signature attached to that digest.
package datapackage

import (
	"encoding/json"
	"fmt"

	"github.com/waczpack/waczpack/pkg/ziparchive"
)

// Version is the WACZ format version this package emits.
const Version = "1.1.1"

// Resource mirrors ziparchive.Resource in the manifest's JSON shape.
type Resource struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Hash  string `json:"hash"`
	Bytes int64  `json:"bytes"`
}

func resourceOf(r ziparchive.Resource) Resource {
	return Resource{Name: r.Name, Path: r.Path, Hash: r.Hash, Bytes: r.Bytes}
}

// Resources converts a slice of ziparchive.Resource, preserving order.
func Resources(rs []ziparchive.Resource) []Resource {
	out := make([]Resource, len(rs))
	for i, r := range rs {
		out[i] = resourceOf(r)
	}

	return out
}

// DataPackage is the manifest written as datapackage.json.
type DataPackage struct {
	Created      string         `json:"created"`
	WACZVersion  string         `json:"wacz_version"`
	Software     string         `json:"software"`
	Resources    []Resource     `json:"resources"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	MainPageURL  string         `json:"mainPageUrl,omitempty"`
	MainPageDate string         `json:"mainPageDate,omitempty"`
	Extras       map[string]any `json:"extras,omitempty"`
}

// New builds a DataPackage. created must already be an RFC3339 UTC
// timestamp; title defaults to "WACZ" and description to "" when empty.
func New(created, software, title, description, mainPageURL, mainPageDate string, extras map[string]any, resources []Resource) DataPackage {
	if title == "" {
		title = "WACZ"
	}

	return DataPackage{
		Created:      created,
		WACZVersion:  Version,
		Software:     software,
		Resources:    resources,
		Title:        title,
		Description:  description,
		MainPageURL:  mainPageURL,
		MainPageDate: mainPageDate,
		Extras:       extras,
	}
}

// Marshal renders the manifest as 2-space-indented JSON, matching the
// stability requirement that datapackage.json bytes are themselves hashed.
func (d DataPackage) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling datapackage: %w", err)
	}

	return b, nil
}
