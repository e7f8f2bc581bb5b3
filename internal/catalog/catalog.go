// Package catalog holds the static reference data the scheduling flow selects
// from: locations (sedes), medical specialties and professionals, with their
// many-to-many location relations. The catalog is read-only; it is seeded in
// code and never persisted.
package catalog

// Location is a clinic site where appointments take place.
type Location struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Specialty is a medical specialty offered at one or more locations.
type Specialty struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	LocationIDs []string `json:"locationIds"`
}

// Professional is a practitioner attached to a specialty and a set of locations.
type Professional struct {
	ID          string   `json:"id"`
	FullName    string   `json:"fullName"`
	SpecialtyID string   `json:"specialtyId"`
	LocationIDs []string `json:"locationIds"`
}

// Catalog provides lookups over the reference entities.
type Catalog struct {
	locations     []Location
	specialties   []Specialty
	professionals []Professional
}

// New returns a catalog seeded with the default reference data.
func New() *Catalog {
	return &Catalog{
		locations: []Location{
			{ID: "1", Name: "Sede Norte", Address: "Calle 123 #45-67"},
			{ID: "2", Name: "Sede Sur", Address: "Carrera 78 #90-12"},
			{ID: "3", Name: "Sede Centro", Address: "Avenida 34 #56-78"},
		},
		specialties: []Specialty{
			{ID: "1", Name: "Medicina General", LocationIDs: []string{"1", "2", "3"}},
			{ID: "2", Name: "Cardiología", LocationIDs: []string{"1", "3"}},
			{ID: "3", Name: "Pediatría", LocationIDs: []string{"2", "3"}},
			{ID: "4", Name: "Dermatología", LocationIDs: []string{"1"}},
			{ID: "5", Name: "Oftalmología", LocationIDs: []string{"2", "3"}},
		},
		professionals: []Professional{
			{ID: "1", FullName: "Dr. Carlos Méndez", SpecialtyID: "1", LocationIDs: []string{"1", "2"}},
			{ID: "2", FullName: "Dra. Ana Rodríguez", SpecialtyID: "1", LocationIDs: []string{"3"}},
			{ID: "3", FullName: "Dr. Juan Pérez", SpecialtyID: "2", LocationIDs: []string{"1", "3"}},
			{ID: "4", FullName: "Dra. María González", SpecialtyID: "3", LocationIDs: []string{"2", "3"}},
			{ID: "5", FullName: "Dr. Luis Torres", SpecialtyID: "4", LocationIDs: []string{"1"}},
			{ID: "6", FullName: "Dra. Patricia Silva", SpecialtyID: "5", LocationIDs: []string{"2", "3"}},
		},
	}
}

// Locations returns all clinic sites.
func (c *Catalog) Locations() []Location {
	return c.locations
}

// Specialties returns all specialties, optionally narrowed to a location.
func (c *Catalog) Specialties(locationID string) []Specialty {
	if locationID == "" {
		return c.specialties
	}
	out := make([]Specialty, 0, len(c.specialties))
	for _, s := range c.specialties {
		if contains(s.LocationIDs, locationID) {
			out = append(out, s)
		}
	}
	return out
}

// Professionals returns professionals matching the given specialty and
// location filters; empty filters match everything.
func (c *Catalog) Professionals(specialtyID, locationID string) []Professional {
	out := make([]Professional, 0, len(c.professionals))
	for _, p := range c.professionals {
		if specialtyID != "" && p.SpecialtyID != specialtyID {
			continue
		}
		if locationID != "" && !contains(p.LocationIDs, locationID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LocationByID looks up a location.
func (c *Catalog) LocationByID(id string) (Location, bool) {
	for _, l := range c.locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// SpecialtyByID looks up a specialty.
func (c *Catalog) SpecialtyByID(id string) (Specialty, bool) {
	for _, s := range c.specialties {
		if s.ID == id {
			return s, true
		}
	}
	return Specialty{}, false
}

// ProfessionalByID looks up a professional.
func (c *Catalog) ProfessionalByID(id string) (Professional, bool) {
	for _, p := range c.professionals {
		if p.ID == id {
			return p, true
		}
	}
	return Professional{}, false
}

// ValidSelection reports whether the (location, specialty, professional)
// triple is mutually consistent: the specialty is offered at the location, the
// professional practices the specialty and attends the location.
func (c *Catalog) ValidSelection(locationID, specialtyID, professionalID string) bool {
	if _, ok := c.LocationByID(locationID); !ok {
		return false
	}
	s, ok := c.SpecialtyByID(specialtyID)
	if !ok || !contains(s.LocationIDs, locationID) {
		return false
	}
	p, ok := c.ProfessionalByID(professionalID)
	if !ok || p.SpecialtyID != specialtyID || !contains(p.LocationIDs, locationID) {
		return false
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
