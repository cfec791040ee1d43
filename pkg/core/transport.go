// pkg/core/transport.go
package core

import "time"

// Transport links a carrier unit to a destination building. Passengers are
// the units whose OnboardID is the transport's ID.
type Transport struct {
	ID            ID
	CarrierID     ID
	DestinationID ID
	OriginID      ID         // location the carrier took off from
	LandAt        *time.Time // set while airborne
	Route         []Point    // planned flight path, launch square first
}

// Airborne reports whether the carrier is in flight.
func (t *Transport) Airborne() bool {
	return t.LandAt != nil
}
