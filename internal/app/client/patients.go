package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

func patientPath(id int64, suffix string) string {
	return fmt.Sprintf("/patients/%d%s", id, suffix)
}

func (c *Client) ListPatients(ctx context.Context, token string) ([]models.Patient, error) {
	var patients []models.Patient
	if err := c.do(ctx, http.MethodGet, "/patients", token, nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (c *Client) GetPatient(ctx context.Context, token string, id int64) (*models.PatientDetail, error) {
	var patient models.PatientDetail
	if err := c.do(ctx, http.MethodGet, patientPath(id, ""), token, nil, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (c *Client) CreatePatient(ctx context.Context, token string, p models.NewPatient) (*models.Patient, error) {
	if p.Status == "" {
		p.Status = models.PatientStatusActive
	}
	var resp struct {
		Patient models.Patient `json:"patient"`
	}
	if err := c.do(ctx, http.MethodPost, "/patients", token, p, &resp); err != nil {
		return nil, err
	}
	return &resp.Patient, nil
}

func (c *Client) AddVitals(ctx context.Context, token string, patientID int64, v models.NewVitals) (*models.Vitals, error) {
	var resp struct {
		Vitals models.Vitals `json:"vitals"`
	}
	if err := c.do(ctx, http.MethodPost, patientPath(patientID, "/vitals"), token, v, &resp); err != nil {
		return nil, err
	}
	return &resp.Vitals, nil
}

func (c *Client) AssignCaretaker(ctx context.Context, token string, patientID int64, caretakerEmail string) error {
	body := map[string]string{"caretakerEmail": caretakerEmail}
	return c.do(ctx, http.MethodPost, patientPath(patientID, "/assign-caretaker"), token, body, nil)
}

// UpdatePatient changes status or assignments; discharging sets Status to Discharged.
func (c *Client) UpdatePatient(ctx context.Context, token string, patientID int64, u models.PatientUpdate) error {
	return c.do(ctx, http.MethodPatch, patientPath(patientID, ""), token, u, nil)
}

func (c *Client) DeletePatient(ctx context.Context, token string, patientID int64) error {
	return c.do(ctx, http.MethodDelete, patientPath(patientID, ""), token, nil, nil)
}

// ListUsersByRole looks up accounts of one type, e.g. every caretaker.
func (c *Client) ListUsersByRole(ctx context.Context, token string, role models.UserType) ([]models.UserProfile, error) {
	var users []models.UserProfile
	path := "/users?role=" + url.QueryEscape(string(role))
	if err := c.do(ctx, http.MethodGet, path, token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
