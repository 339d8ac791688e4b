package views

import (
	"github.com/a-h/templ"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

// DoctorDashboardData is everything the doctor dashboard shows.
type DoctorDashboardData struct {
	User       models.UserProfile
	Patients   []models.Patient
	Caretakers []models.UserProfile
	Banner     *models.Banner
}

// CaretakerDashboardData is everything the caretaker dashboard shows.
type CaretakerDashboardData struct {
	User     models.UserProfile
	Patients []models.Patient
	Banner   *models.Banner
}

const latestVitalsShown = 5

type patientDetailData struct {
	models.PatientDetail
	Latest []models.Vitals
}

func GenericDashboard(user models.UserProfile) templ.Component {
	return page("dashboard_generic", user)
}

func DoctorDashboard(data DoctorDashboardData) templ.Component {
	return page("dashboard_doctor", data)
}

func CaretakerDashboard(data CaretakerDashboardData) templ.Component {
	return page("dashboard_caretaker", data)
}

// PatientDetail shows a patient's information and the latest five vitals.
func PatientDetail(detail models.PatientDetail) templ.Component {
	return page("patient_detail", patientDetailData{
		PatientDetail: detail,
		Latest:        detail.LatestVitals(latestVitalsShown),
	})
}
