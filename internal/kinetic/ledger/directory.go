package ledger

import (
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/visibility"
)

// Credential is a clinic's login identity. Hash is a bcrypt hash; an empty
// hash means the clinic cannot log in.
type Credential struct {
	ClinicID string
	Username string
	Hash     []byte
}

// Directory is the static reference data: clinics in seed order, patients
// and credentials. It never changes after construction, so contributor
// labels derived from it are stable.
type Directory struct {
	order    []types.Clinic // initial state, seed order
	position map[string]int
	patients []types.Patient
	patient  map[string]int
	creds    map[string]Credential // by lower-cased username
}

func NewDirectory(clinics []types.Clinic, patients []types.Patient, creds []Credential) (*Directory, error) {
	d := &Directory{
		order:    make([]types.Clinic, 0, len(clinics)),
		position: make(map[string]int, len(clinics)),
		patients: make([]types.Patient, 0, len(patients)),
		patient:  make(map[string]int, len(patients)),
		creds:    make(map[string]Credential, len(creds)),
	}

	for _, c := range clinics {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("directory: clinic with empty id")
		}
		if _, dup := d.position[c.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate clinic %s", c.ID)
		}
		if c.Credits < 0 {
			return nil, fmt.Errorf("directory: clinic %s has negative credits", c.ID)
		}
		d.position[c.ID] = len(d.order)
		d.order = append(d.order, c)
	}

	for _, p := range patients {
		if _, dup := d.patient[p.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate patient %s", p.ID)
		}
		if _, ok := d.position[p.HomeClinicID]; !ok {
			return nil, fmt.Errorf("directory: patient %s has unknown home clinic %s", p.ID, p.HomeClinicID)
		}
		d.patient[p.ID] = len(d.patients)
		d.patients = append(d.patients, p)
	}

	for _, cr := range creds {
		if _, ok := d.position[cr.ClinicID]; !ok {
			return nil, fmt.Errorf("directory: credential for unknown clinic %s", cr.ClinicID)
		}
		key := strings.ToLower(strings.TrimSpace(cr.Username))
		if key == "" {
			continue
		}
		d.creds[key] = cr
	}

	return d, nil
}

// Label is the pseudonymous contributor label for a clinic.
func (d *Directory) Label(clinicID string) string {
	pos, ok := d.position[clinicID]
	if !ok {
		return "Contributor #?"
	}
	return visibility.ContributorLabel(pos)
}

func (d *Directory) HasClinic(id string) bool {
	_, ok := d.position[id]
	return ok
}

// ClinicIDs returns clinic ids in seed order.
func (d *Directory) ClinicIDs() []string {
	out := make([]string, len(d.order))
	for i, c := range d.order {
		out[i] = c.ID
	}
	return out
}

func (d *Directory) Patient(id string) (types.Patient, bool) {
	i, ok := d.patient[id]
	if !ok {
		return types.Patient{}, false
	}
	return d.patients[i], true
}

func (d *Directory) Patients() []types.Patient {
	out := make([]types.Patient, len(d.patients))
	copy(out, d.patients)
	return out
}

func (d *Directory) Credential(username string) (Credential, bool) {
	cr, ok := d.creds[strings.ToLower(strings.TrimSpace(username))]
	return cr, ok
}

func (d *Directory) initialClinics() []types.Clinic {
	out := make([]types.Clinic, len(d.order))
	copy(out, d.order)
	return out
}
