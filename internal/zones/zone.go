package zones

import (
	"github.com/twpayne/go-geos"
)

// SRID of every boundary and location handled by the engine (WGS 84).
const SRID = 4326

// Zone is a contract zone: a polygon-bounded area whose contractor handles
// the events inside it.
type Zone struct {
	ID                     int        `json:"id,omitempty"`
	OriginID               string     `json:"origin_id"` // Identifier in the import feed
	Name                   string     `json:"name"`
	Boundary               *geos.Geom `json:"-"`
	ContactPerson          string     `json:"contact_person"`
	Email                  string     `json:"email"`
	Phone                  string     `json:"phone"`
	SecondaryContactPerson string     `json:"secondary_contact_person"`
	SecondaryEmail         string     `json:"secondary_email"`
	SecondaryPhone         string     `json:"secondary_phone"`
	Contractor             string     `json:"contractor"`
	ContractorUsers        []int      `json:"contractor_users"`
	Active                 bool       `json:"active"`
}

// Covers reports whether the point lies inside the zone boundary or on its edge.
func (zone *Zone) Covers(point *geos.Geom) bool {
	if zone.Boundary == nil || point == nil {
		return false
	}
	return zone.Boundary.Covers(point)
}

// ContactEmails returns the non-empty primary and secondary contact e-mails.
func (zone *Zone) ContactEmails() []string {
	emails := []string{}
	for _, email := range []string{zone.Email, zone.SecondaryEmail} {
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// HasContractor reports whether the user is one of the zone's contractors.
func (zone *Zone) HasContractor(userID int) bool {
	for _, id := range zone.ContractorUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func (zone *Zone) String() string {
	return zone.Name
}

// Point builds a WGS 84 point geometry.
func Point(lon, lat float64) *geos.Geom {
	return geos.NewPoint([]float64{lon, lat}).SetSRID(SRID)
}
