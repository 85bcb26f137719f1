// Package seed provides the reference data the collective starts from: the
// clinic directory, patients and a handful of pre-authored reports.
package seed

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/BrandonDHaskell/kinetic/internal/kinetic/ledger"
	"github.com/BrandonDHaskell/kinetic/internal/kinetic/types"
)

type Clinic struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	OptedIn  bool   `yaml:"opted_in"`
}

type Patient struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	HomeClinicID string `yaml:"home_clinic_id"`
	Consent      bool   `yaml:"consent"`
}

type Report struct {
	ID             string `yaml:"id"`
	PatientID      string `yaml:"patient_id"`
	AuthorClinicID string `yaml:"author_clinic_id"`
	Tier           string `yaml:"tier"`
	Notes          string `yaml:"notes"`
	ReportType     string `yaml:"report_type"`
	AgeDays        int    `yaml:"age_days"` // created this many days before startup
}

type Data struct {
	Clinics  []Clinic  `yaml:"clinics"`
	Patients []Patient `yaml:"patients"`
	Reports  []Report  `yaml:"reports"`
}

// Default is the demo network: five clinics (one opted out), ten patients
// (two without consent) and four shared reports.
func Default() Data {
	const pw = "Heidi123!"
	return Data{
		Clinics: []Clinic{
			{ID: "c1", Name: "Harbour Physio", Username: "harbour", Password: pw, OptedIn: true},
			{ID: "c2", Name: "Peak Performance", Username: "peak", Password: pw, OptedIn: true},
			{ID: "c3", Name: "City Sports Rehab", Username: "city", Password: pw, OptedIn: false},
			{ID: "c4", Name: "Northside Physio", Username: "north", Password: pw, OptedIn: true},
			{ID: "c5", Name: "Bayside Movement", Username: "bayside", Password: pw, OptedIn: true},
		},
		Patients: []Patient{
			{ID: "p1", Name: "Sam Lee", HomeClinicID: "c1", Consent: true},
			{ID: "p2", Name: "Maya Patel", HomeClinicID: "c1", Consent: true},
			{ID: "p3", Name: "Jordan Kim", HomeClinicID: "c2", Consent: true},
			{ID: "p4", Name: "Ava Chen", HomeClinicID: "c2", Consent: true},
			{ID: "p5", Name: "Noah Singh", HomeClinicID: "c3", Consent: false},
			{ID: "p6", Name: "Priya Rao", HomeClinicID: "c3", Consent: true},
			{ID: "p7", Name: "Ethan Park", HomeClinicID: "c4", Consent: true},
			{ID: "p8", Name: "Sofia Gomez", HomeClinicID: "c4", Consent: false},
			{ID: "p9", Name: "Liam Walker", HomeClinicID: "c5", Consent: true},
			{ID: "p10", Name: "Zara Ali", HomeClinicID: "c5", Consent: true},
		},
		Reports: []Report{
			{ID: "r1", PatientID: "p1", AuthorClinicID: "c1", Tier: "Summary", AgeDays: 1,
				Notes: "Patient showing good progress on ACL recovery. Range of motion improved by 15 degrees."},
			{ID: "r2", PatientID: "p3", AuthorClinicID: "c2", Tier: "Summary", AgeDays: 2,
				Notes: "Shoulder impingement persists. Recommended switching to eccentric loading."},
			{ID: "r3", PatientID: "p6", AuthorClinicID: "c3", Tier: "Full", AgeDays: 3,
				Notes: "Complex lower back pain history. Full MRI details attached (simulated). Daily exercises required."},
			{ID: "r4", PatientID: "p7", AuthorClinicID: "c4", Tier: "Summary", AgeDays: 4,
				Notes: "Ankle sprain Grade II. Standard RICE protocol followed for 1 week."},
		},
	}
}

// LoadFile reads seed data from a YAML file.
func LoadFile(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(d.Clinics) == 0 {
		return Data{}, fmt.Errorf("seed file %s: no clinics", path)
	}
	return d, nil
}

type BuildOptions struct {
	InitialCredits int
	Now            time.Time
	// HashCost is the bcrypt cost for seeded passwords; 0 means bcrypt.DefaultCost.
	HashCost int
}

// Build turns seed data into a directory and the seed reports.
func (d Data) Build(opt BuildOptions) (*ledger.Directory, []types.Report, error) {
	if opt.Now.IsZero() {
		opt.Now = time.Now().UTC()
	}
	cost := opt.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	clinics := make([]types.Clinic, 0, len(d.Clinics))
	creds := make([]ledger.Credential, 0, len(d.Clinics))
	for _, c := range d.Clinics {
		clinics = append(clinics, types.Clinic{
			ID:       c.ID,
			Name:     c.Name,
			Username: c.Username,
			OptedIn:  c.OptedIn,
			Credits:  opt.InitialCredits,
		})
		if strings.TrimSpace(c.Username) == "" || c.Password == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password for %s: %w", c.ID, err)
		}
		creds = append(creds, ledger.Credential{ClinicID: c.ID, Username: c.Username, Hash: hash})
	}

	patients := make([]types.Patient, 0, len(d.Patients))
	for _, p := range d.Patients {
		patients = append(patients, types.Patient{
			ID:           p.ID,
			Name:         p.Name,
			HomeClinicID: p.HomeClinicID,
			Consent:      p.Consent,
		})
	}

	dir, err := ledger.NewDirectory(clinics, patients, creds)
	if err != nil {
		return nil, nil, err
	}

	reports := make([]types.Report, 0, len(d.Reports))
	for _, r := range d.Reports {
		tier, err := types.ParseTier(r.Tier)
		if err != nil {
			return nil, nil, fmt.Errorf("seed report %s: %w", r.ID, err)
		}
		created := opt.Now.Add(-time.Duration(r.AgeDays) * 24 * time.Hour)
		reportType := r.ReportType
		if reportType == "" {
			reportType = "Visit Note"
		}
		reports = append(reports, types.Report{
			ID:             r.ID,
			PatientID:      r.PatientID,
			AuthorClinicID: r.AuthorClinicID,
			Tier:           tier,
			Notes:          r.Notes,
			ReportType:     reportType,
			VisitDate:      created.Format("2006-01-02"),
			Timestamp:      created.UnixMilli(),
		})
	}
	return dir, reports, nil
}
