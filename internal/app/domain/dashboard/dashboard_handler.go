package dashboard

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/app/domain"
	"github.com/FACorreiaa/medilive-templui/internal/app/guard"
	"github.com/FACorreiaa/medilive-templui/internal/app/middleware"
	"github.com/FACorreiaa/medilive-templui/internal/app/models"
	"github.com/FACorreiaa/medilive-templui/internal/app/session"
	"github.com/FACorreiaa/medilive-templui/internal/app/views"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/cache"
)

const (
	pageTitle = "Dashboard - MediLive"
	activeNav = "Dashboard"

	msgDoctorOnly      = "Only doctors can manage patients"
	msgCareTeamOnly    = "Only doctors and caretakers can view patient details"
	msgPatientFields   = "Please fill in name, age, gender and diagnosis"
	msgNoMeasurement   = "Enter at least one measurement"
	msgBadMeasurement  = "Measurements must be numbers"
	msgEmailRequired   = "Caretaker email is required"
	msgActionFailed    = "Something went wrong. Please try again."
	msgPatientAdded    = "Patient added successfully"
	msgVitalsAdded     = "Vitals added successfully"
	msgCaretakerLinked = "Caretaker assigned successfully"
	msgDischarged      = "Patient discharged"
	msgRemoved         = "Patient removed"
)

// Backend is the part of the API client the dashboards need.
type Backend interface {
	ListPatients(ctx context.Context, token string) ([]models.Patient, error)
	GetPatient(ctx context.Context, token string, id int64) (*models.PatientDetail, error)
	CreatePatient(ctx context.Context, token string, p models.NewPatient) (*models.Patient, error)
	AddVitals(ctx context.Context, token string, patientID int64, v models.NewVitals) (*models.Vitals, error)
	AssignCaretaker(ctx context.Context, token string, patientID int64, caretakerEmail string) error
	UpdatePatient(ctx context.Context, token string, patientID int64, u models.PatientUpdate) error
	DeletePatient(ctx context.Context, token string, patientID int64) error
	ListUsersByRole(ctx context.Context, token string, role models.UserType) ([]models.UserProfile, error)
}

type DashboardHandlers struct {
	*domain.BaseHandler
	backend Backend
	caches  *cache.CacheManager
}

func NewDashboardHandlers(base *domain.BaseHandler, backend Backend, caches *cache.CacheManager) *DashboardHandlers {
	return &DashboardHandlers{
		BaseHandler: base,
		backend:     backend,
		caches:      caches,
	}
}

// ShowDashboard renders the dashboard variant the route guard picked.
func (h *DashboardHandlers) ShowDashboard(c *gin.Context) {
	st := middleware.GetSessionState(c)
	d, _ := middleware.GetDecisionFromContext(c)

	switch d.Target {
	case guard.TargetDoctorDashboard:
		h.renderDoctor(c, st, http.StatusOK, nil)
	case guard.TargetCaretakerDashboard:
		h.renderCaretaker(c, st)
	case guard.TargetGenericDashboard:
		h.RenderPage(c, pageTitle, activeNav, views.GenericDashboard(*st.User))
	default:
		h.Logger.Warn("Dashboard reached without a dashboard decision", zap.Stringer("target", d.Target))
		h.RenderPageStatus(c, http.StatusNotFound, "Not Found - MediLive", "", views.NotFound(c.Request.URL.Path))
	}
}

// ShowPatient renders one patient's details and latest vitals for the care team.
func (h *DashboardHandlers) ShowPatient(c *gin.Context) {
	st, ok := h.requireTarget(c, msgCareTeamOnly, guard.TargetDoctorDashboard, guard.TargetCaretakerDashboard)
	if !ok {
		return
	}
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	detail, err := h.backend.GetPatient(c.Request.Context(), st.Token, id)
	if err != nil {
		h.Logger.Warn("Failed to load patient", zap.Int64("patient_id", id), zap.Error(err))
		h.RenderPageStatus(c, domain.StatusFor(err), pageTitle, activeNav, views.Banner(&models.Banner{
			Kind:    models.BannerError,
			Message: client.MessageOr(err, "Failed to load patient details"),
		}))
		return
	}
	h.RenderPage(c, pageTitle, activeNav, views.PatientDetail(*detail))
}

func (h *DashboardHandlers) CreatePatient(c *gin.Context) {
	st, ok := h.requireDoctor(c)
	if !ok {
		return
	}

	p, err := parseNewPatient(c)
	if err != nil {
		h.renderDoctor(c, st, http.StatusBadRequest, errorBanner(msgPatientFields))
		return
	}
	created, err := h.backend.CreatePatient(c.Request.Context(), st.Token, p)
	if err != nil {
		h.actionFailed(c, st, "create patient", 0, err)
		return
	}
	h.Logger.Info("Patient created", zap.Int64("patient_id", created.ID), zap.String("doctor_id", st.User.ID.String()))
	h.renderDoctor(c, st, http.StatusCreated, successBanner(msgPatientAdded))
}

func (h *DashboardHandlers) AddVitals(c *gin.Context) {
	st, ok := h.requireDoctor(c)
	if !ok {
		return
	}
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	v, err := parseVitals(c)
	if err != nil {
		h.renderDoctor(c, st, http.StatusBadRequest, errorBanner(msgBadMeasurement))
		return
	}
	if v.Empty() {
		h.renderDoctor(c, st, http.StatusBadRequest, errorBanner(msgNoMeasurement))
		return
	}
	if _, err := h.backend.AddVitals(c.Request.Context(), st.Token, id, v); err != nil {
		h.actionFailed(c, st, "add vitals", id, err)
		return
	}
	h.renderDoctor(c, st, http.StatusCreated, successBanner(msgVitalsAdded))
}

func (h *DashboardHandlers) AssignCaretaker(c *gin.Context) {
	st, ok := h.requireDoctor(c)
	if !ok {
		return
	}
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.PostForm("caretakerEmail"))
	if email == "" {
		h.renderDoctor(c, st, http.StatusBadRequest, errorBanner(msgEmailRequired))
		return
	}
	if err := h.backend.AssignCaretaker(c.Request.Context(), st.Token, id, email); err != nil {
		h.actionFailed(c, st, "assign caretaker", id, err)
		return
	}
	h.forgetDirectory(st.Token)
	h.Logger.Info("Caretaker assigned", zap.Int64("patient_id", id), zap.String("caretaker_email", email))
	h.renderDoctor(c, st, http.StatusOK, successBanner(msgCaretakerLinked))
}

func (h *DashboardHandlers) DischargePatient(c *gin.Context) {
	st, ok := h.requireDoctor(c)
	if !ok {
		return
	}
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	update := models.PatientUpdate{Status: models.PatientStatusDischarged}
	if err := h.backend.UpdatePatient(c.Request.Context(), st.Token, id, update); err != nil {
		h.actionFailed(c, st, "discharge patient", id, err)
		return
	}
	h.renderDoctor(c, st, http.StatusOK, successBanner(msgDischarged))
}

func (h *DashboardHandlers) RemovePatient(c *gin.Context) {
	st, ok := h.requireDoctor(c)
	if !ok {
		return
	}
	id, ok := h.patientID(c)
	if !ok {
		return
	}
	if err := h.backend.DeletePatient(c.Request.Context(), st.Token, id); err != nil {
		h.actionFailed(c, st, "remove patient", id, err)
		return
	}
	h.Logger.Info("Patient removed", zap.Int64("patient_id", id))
	h.renderDoctor(c, st, http.StatusOK, successBanner(msgRemoved))
}

// renderDoctor loads patients and the caretaker directory side by side. A failed load is
// logged and that part of the page shows its empty state.
func (h *DashboardHandlers) renderDoctor(c *gin.Context, st session.State, status int, banner *models.Banner) {
	ctx := c.Request.Context()
	data := views.DoctorDashboardData{User: *st.User, Banner: banner}

	var g errgroup.Group
	g.Go(func() error {
		patients, err := h.backend.ListPatients(ctx, st.Token)
		if err != nil {
			return fmt.Errorf("list patients: %w", err)
		}
		data.Patients = patients
		return nil
	})
	g.Go(func() error {
		caretakers, err := h.directory(ctx, st.Token, models.UserTypeCaretaker)
		if err != nil {
			return fmt.Errorf("list caretakers: %w", err)
		}
		data.Caretakers = caretakers
		return nil
	})
	if err := g.Wait(); err != nil {
		h.Logger.Warn("Doctor dashboard data load failed", zap.String("user_id", st.User.ID.String()), zap.Error(err))
	}

	h.RenderPageStatus(c, status, pageTitle, activeNav, views.DoctorDashboard(data))
}

func (h *DashboardHandlers) renderCaretaker(c *gin.Context, st session.State) {
	data := views.CaretakerDashboardData{User: *st.User}
	patients, err := h.backend.ListPatients(c.Request.Context(), st.Token)
	if err != nil {
		h.Logger.Warn("Caretaker dashboard data load failed", zap.String("user_id", st.User.ID.String()), zap.Error(err))
	} else {
		data.Patients = patients
	}
	h.RenderPage(c, pageTitle, activeNav, views.CaretakerDashboard(data))
}

// directory lists users of one role, cached per credential for a short TTL.
func (h *DashboardHandlers) directory(ctx context.Context, token string, role models.UserType) ([]models.UserProfile, error) {
	key, err := cache.DirectoryKey(token, role)
	if err != nil {
		return nil, err
	}
	if users, ok := h.caches.Directory.Get(key); ok {
		return users, nil
	}
	users, err := h.backend.ListUsersByRole(ctx, token, role)
	if err != nil {
		return nil, err
	}
	h.caches.Directory.Set(key, users)
	return users, nil
}

func (h *DashboardHandlers) forgetDirectory(token string) {
	if key, err := cache.DirectoryKey(token, models.UserTypeCaretaker); err == nil {
		h.caches.Directory.Delete(key)
	}
}

func (h *DashboardHandlers) requireDoctor(c *gin.Context) (session.State, bool) {
	return h.requireTarget(c, msgDoctorOnly, guard.TargetDoctorDashboard)
}

// requireTarget lets the request through when the guard placed it on one of allowed.
func (h *DashboardHandlers) requireTarget(c *gin.Context, message string, allowed ...guard.Target) (session.State, bool) {
	st := middleware.GetSessionState(c)
	d, _ := middleware.GetDecisionFromContext(c)
	for _, t := range allowed {
		if d.Target == t && st.Authenticated() {
			return st, true
		}
	}
	h.Logger.Warn("Dashboard action refused",
		zap.String("path", c.Request.URL.Path),
		zap.String("phase", guard.Phase(st)),
	)
	h.RenderPageStatus(c, http.StatusForbidden, pageTitle, activeNav, views.Forbidden(message))
	return st, false
}

func (h *DashboardHandlers) patientID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.RenderPageStatus(c, http.StatusNotFound, "Not Found - MediLive", "", views.NotFound(c.Request.URL.Path))
		return 0, false
	}
	return id, true
}

func (h *DashboardHandlers) actionFailed(c *gin.Context, st session.State, action string, patientID int64, err error) {
	h.Logger.Warn("Dashboard action failed",
		zap.String("action", action),
		zap.Int64("patient_id", patientID),
		zap.Error(err),
	)
	h.renderDoctor(c, st, domain.StatusFor(err), errorBanner(client.MessageOr(err, msgActionFailed)))
}

func parseNewPatient(c *gin.Context) (models.NewPatient, error) {
	p := models.NewPatient{
		Name:      strings.TrimSpace(c.PostForm("name")),
		Gender:    strings.TrimSpace(c.PostForm("gender")),
		Diagnosis: strings.TrimSpace(c.PostForm("diagnosis")),
		Status:    models.PatientStatusActive,
	}
	age, err := strconv.Atoi(strings.TrimSpace(c.PostForm("age")))
	if err != nil || age < 0 {
		return p, fmt.Errorf("age %q: %w", c.PostForm("age"), models.ErrValidation)
	}
	p.Age = age
	if p.Name == "" || p.Gender == "" || p.Diagnosis == "" {
		return p, fmt.Errorf("missing patient fields: %w", models.ErrValidation)
	}
	return p, nil
}

// parseVitals reads the vitals form. Blank fields stay unset.
func parseVitals(c *gin.Context) (models.NewVitals, error) {
	var v models.NewVitals
	var err error
	if v.HeartRate, err = optionalInt(c.PostForm("heartRate")); err != nil {
		return v, err
	}
	if v.Temperature, err = optionalFloat(c.PostForm("temperature")); err != nil {
		return v, err
	}
	if v.OxygenLevel, err = optionalInt(c.PostForm("oxygenLevel")); err != nil {
		return v, err
	}
	v.BloodPressure = strings.TrimSpace(c.PostForm("bloodPressure"))
	return v, nil
}

func optionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", raw, models.ErrValidation)
	}
	return &n, nil
}

func optionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%q: %w", raw, models.ErrValidation)
	}
	return &f, nil
}

func errorBanner(msg string) *models.Banner {
	return &models.Banner{Kind: models.BannerError, Message: msg}
}

func successBanner(msg string) *models.Banner {
	return &models.Banner{Kind: models.BannerSuccess, Message: msg}
}
