package model

import "time"

// Place is the opaque campaign-metadata record a template points at.
// Display attributes (address, opening hours, geocoding) are managed by
// external tooling; the core only needs the owning merchant for
// authorisation and a name for event payloads.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – merchant user owning this place.
//  Name      – display name.
//  ImageURL  – opaque image URL.
//  CreatedAt – creation timestamp.
type Place struct {
	ID        uint64    // places.id
	OwnerID   uint64    // places.owner_id
	Name      string    // places.name
	ImageURL  string    // places.image_url
	CreatedAt time.Time // places.created_at
}
