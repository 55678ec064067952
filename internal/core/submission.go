package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxObjectives is the number of objective slots the form offers.
const MaxObjectives = 4

// MaxProfessionals bounds the declared professional count.
const MaxProfessionals = 10

// Submission is one institutional application as stored by the sinks.
//
// The scalar blocks are embedded so the JSON record is flat (inst_nombre,
// rep_nombre, ...) like the form payload itself. Access them through the
// block name, e.g. s.Institution.Name.
type Submission struct {
	ID          string    `json:"id"`
	SubmittedAt Timestamp `json:"fecha_envio"`

	Institution
	Representative
	Supervisor
	Narrative
	ProfileSummary
	Funding

	RequestedProfessionals int                   `json:"selector_cantidad"`
	Objectives             []Objective           `json:"objetivos"`
	Profiles               []ProfessionalProfile `json:"perfiles"`

	Origin *Origin `json:"origen,omitempty"`

	// Raw is the request body exactly as received.
	Raw json.RawMessage `json:"raw"`
}

// Institution identifies the applying institution.
type Institution struct {
	Name    string `json:"inst_nombre"`
	TaxID   string `json:"inst_rut"`
	Type    string `json:"inst_tipo"`
	Address string `json:"inst_direccion"`
	Email   string `json:"inst_email"`
	Phone   string `json:"inst_fono"`
}

// Representative is the institution's legal representative.
type Representative struct {
	Name       string `json:"rep_nombre"`
	NationalID string `json:"rep_run"`
	Role       string `json:"rep_cargo"`
	Email      string `json:"rep_email"`
	Phone      string `json:"rep_fono"`
}

// Supervisor is the person who oversees the placed professionals.
type Supervisor struct {
	Name       string `json:"sup_nombre"`
	NationalID string `json:"sup_run"`
	Role       string `json:"sup_cargo"`
	Email      string `json:"sup_email"`
	Phone      string `json:"sup_fono"`
}

// Narrative holds the free-text justification fields.
type Narrative struct {
	Justification    string `json:"justificacion"`
	StrategicArea    string `json:"area_estrategica"`
	Contribution     string `json:"contribucion_area"`
	GeneralObjective string `json:"objetivo_general"`
}

// ProfileSummary is the single-profile variant of the form.
type ProfileSummary struct {
	ProfileObjective string `json:"perfil_objetivo"`
	ProfileCareer    string `json:"perfil_carrera"`
	ProfileDuties    string `json:"perfil_labores"`
	TechnicalPlan    string `json:"plan_tecnico"`
	SoftSkillsPlan   string `json:"plan_blando"`
	Impact           string `json:"impacto"`
	Sustainability   string `json:"sostenibilidad"`
}

// Funding holds the requested amounts by category. Amounts are kept as
// the submitter wrote them.
type Funding struct {
	UniversityHR       string `json:"monto_uaysen_rrhh"`
	PartnerOperations  string `json:"monto_socio_op"`
	UniversityTraining string `json:"monto_uaysen_cap"`
	PartnerTraining    string `json:"monto_socio_cap"`
	NonMonetary        string `json:"no_pecuniarios"`
}

// Objective is one specific objective of the proposal.
type Objective struct {
	Description string `json:"descripcion"`
	Activities  string `json:"actividades"`
	Results     string `json:"resultados"`
	Methodology string `json:"metodologia"`
}

// ProfessionalProfile describes one requested professional, numbered from 1.
type ProfessionalProfile struct {
	Number         int    `json:"numero"`
	Career         string `json:"carrera"`
	Objective      string `json:"objetivo"`
	Duties         string `json:"labores"`
	Technical      string `json:"tecnica"`
	Soft           string `json:"blanda"`
	Impact         string `json:"impacto"`
	Sustainability string `json:"sostenibilidad"`
}

// Origin records where a submission came from.
type Origin struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// NewSubmission maps a validated payload onto the structured record.
// The payload must already have passed Validate.
func NewSubmission(p Payload, raw []byte, id string, at time.Time, origin *Origin) *Submission {
	count, err := professionalCount(p)
	if err != nil {
		count = 1
	}

	return &Submission{
		ID:          id,
		SubmittedAt: Timestamp{at},
		Institution: Institution{
			Name:    p.String(KeyInstName),
			TaxID:   p.String(KeyInstTaxID),
			Type:    p.String(KeyInstType),
			Address: p.String(KeyInstAddress),
			Email:   p.String(KeyInstEmail),
			Phone:   p.String(KeyInstPhone),
		},
		Representative: Representative{
			Name:       p.String(KeyRepName),
			NationalID: p.String(KeyRepRUN),
			Role:       p.String(KeyRepRole),
			Email:      p.String(KeyRepEmail),
			Phone:      p.String(KeyRepPhone),
		},
		Supervisor: Supervisor{
			Name:       p.String(KeySupName),
			NationalID: p.String(KeySupRUN),
			Role:       p.String(KeySupRole),
			Email:      p.String(KeySupEmail),
			Phone:      p.String(KeySupPhone),
		},
		Narrative: Narrative{
			Justification:    p.String("justificacion"),
			StrategicArea:    firstOf(p, "area_estrategica", "area"),
			Contribution:     firstOf(p, "contribucion_area", "contribucion"),
			GeneralObjective: p.String("objetivo_general"),
		},
		ProfileSummary: ProfileSummary{
			ProfileObjective: p.String("perfil_objetivo"),
			ProfileCareer:    p.String("perfil_carrera"),
			ProfileDuties:    p.String("perfil_labores"),
			TechnicalPlan:    p.String("plan_tecnico"),
			SoftSkillsPlan:   p.String("plan_blando"),
			Impact:           p.String("impacto"),
			Sustainability:   p.String("sostenibilidad"),
		},
		Funding: Funding{
			UniversityHR:       p.String("monto_uaysen_rrhh"),
			PartnerOperations:  p.String("monto_socio_op"),
			UniversityTraining: p.String("monto_uaysen_cap"),
			PartnerTraining:    p.String("monto_socio_cap"),
			NonMonetary:        p.String("no_pecuniarios"),
		},
		RequestedProfessionals: count,
		Objectives:             objectives(p),
		Profiles:               profiles(p, count),
		Origin:                 origin,
		Raw:                    json.RawMessage(append([]byte(nil), raw...)),
	}
}

// objectives collects obj_*_n for n=1..MaxObjectives, keeping a slot only
// when its description was filled in.
func objectives(p Payload) []Objective {
	out := make([]Objective, 0, MaxObjectives)
	for n := 1; n <= MaxObjectives; n++ {
		if !p.Present(indexed("obj_desc_%d", n)) {
			continue
		}
		out = append(out, Objective{
			Description: p.String(indexed("obj_desc_%d", n)),
			Activities:  p.String(indexed("obj_act_%d", n)),
			Results:     p.String(indexed("obj_res_%d", n)),
			Methodology: p.String(indexed("obj_met_%d", n)),
		})
	}
	return out
}

// profiles collects perfil_n_* for n=1..count.
func profiles(p Payload, count int) []ProfessionalProfile {
	out := make([]ProfessionalProfile, 0, count)
	for n := 1; n <= count; n++ {
		out = append(out, ProfessionalProfile{
			Number:         n,
			Career:         p.String(indexed("perfil_%d_carrera", n)),
			Objective:      p.String(indexed("perfil_%d_objetivo", n)),
			Duties:         p.String(indexed("perfil_%d_labores", n)),
			Technical:      p.String(indexed("perfil_%d_tecnica", n)),
			Soft:           p.String(indexed("perfil_%d_blanda", n)),
			Impact:         p.String(indexed("perfil_%d_impacto", n)),
			Sustainability: p.String(indexed("perfil_%d_sostenibilidad", n)),
		})
	}
	return out
}

// professionalCount reads the declared profile count. Absent or blank
// means one profile. Whole numbers written with a fraction (2.0) are
// accepted.
func professionalCount(p Payload) (int, error) {
	s := strings.TrimSpace(p.String(KeyProfessionalCount))
	if s == "" {
		return 1, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, strconv.ErrSyntax
	}
	if f < 1 || f > MaxProfessionals {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}

// firstOf returns the first non-blank value among keys.
func firstOf(p Payload, keys ...string) string {
	for _, k := range keys {
		if p.Present(k) {
			return p.String(k)
		}
	}
	return ""
}
