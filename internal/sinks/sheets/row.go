package sheets

import (
	"encoding/json"

	"github.com/formvcm/postulaciones/internal/core"
)

// RowLayoutVersion identifies the column contract below. Bump it, and
// migrate the spreadsheet, whenever a column is added, removed or moved.
const RowLayoutVersion = 1

// Header holds the column titles of layout v1, in row order.
var Header = []string{
	"ID",
	"Fecha Envío",
	"Institución",
	"RUT",
	"Tipo Institución",
	"Dirección",
	"Email Institucional",
	"Teléfono",
	"Rep. Nombre",
	"Rep. RUN",
	"Rep. Cargo",
	"Rep. Email",
	"Sup. Nombre",
	"Sup. RUN",
	"Sup. Cargo",
	"Sup. Email",
	"Justificación",
	"Área Estratégica",
	"Contribución",
	"Objetivos (JSON)",
	"Objetivo del Cargo",
	"Carrera Requerida",
	"Labores Específicas",
	"Competencias Técnicas",
	"Habilidades Blandas",
	"Impacto Territorial",
	"Sostenibilidad",
	"RRHH UAysén",
	"Operación Socio",
	"Capacitación UAysén",
	"Capacitación Socio",
}

// Row renders a submission as one spreadsheet row in layout v1.
//
// The profile columns use the flat perfil_* fields when present, otherwise
// the first enumerated profile.
func Row(s *core.Submission) []any {
	objectives := s.Objectives
	if objectives == nil {
		objectives = []core.Objective{}
	}
	objJSON, err := json.Marshal(objectives)
	if err != nil {
		objJSON = []byte("[]")
	}

	var first core.ProfessionalProfile
	if len(s.Profiles) > 0 {
		first = s.Profiles[0]
	}
	ps := s.ProfileSummary

	return []any{
		s.ID,
		s.SubmittedAt.String(),
		s.Institution.Name,
		s.Institution.TaxID,
		s.Institution.Type,
		s.Institution.Address,
		s.Institution.Email,
		s.Institution.Phone,
		s.Representative.Name,
		s.Representative.NationalID,
		s.Representative.Role,
		s.Representative.Email,
		s.Supervisor.Name,
		s.Supervisor.NationalID,
		s.Supervisor.Role,
		s.Supervisor.Email,
		s.Narrative.Justification,
		s.Narrative.StrategicArea,
		s.Narrative.Contribution,
		string(objJSON),
		or(ps.ProfileObjective, first.Objective),
		or(ps.ProfileCareer, first.Career),
		or(ps.ProfileDuties, first.Duties),
		or(ps.TechnicalPlan, first.Technical),
		or(ps.SoftSkillsPlan, first.Soft),
		or(ps.Impact, first.Impact),
		or(ps.Sustainability, first.Sustainability),
		s.Funding.UniversityHR,
		s.Funding.PartnerOperations,
		s.Funding.UniversityTraining,
		s.Funding.PartnerTraining,
	}
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
