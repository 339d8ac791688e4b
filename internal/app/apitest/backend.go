// Package apitest runs an in-process stand-in for the MediLive backend API.
// It mirrors the backend's contract closely enough for handler and client tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

const secret = "apitest-signing-key"

type claims struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

type account struct {
	profile models.UserProfile
	hash    []byte
}

type patientRecord struct {
	models.Patient
	vitals []models.Vitals
}

// Backend is a fake API server. All fields are guarded by mu.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account // by email
	patients  map[int64]*patientRecord
	nextUser  int64
	nextPat   int64
	nextVital int64
	calls     map[string]int
	delay     time.Duration
	failPaths map[string]int
}

// New starts a backend; it is closed when the test ends.
func New(t interface {
	Cleanup(func())
}) *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		accounts:  make(map[string]*account),
		patients:  make(map[int64]*patientRecord),
		calls:     make(map[string]int),
		failPaths: make(map[string]int),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the API base URL, including the /api prefix.
func (b *Backend) URL() string { return b.Server.URL + "/api" }

// AddUser registers an account directly and returns its profile.
func (b *Backend) AddUser(email, password, first, last string, userType models.UserType) models.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password, first, last, userType)
}

// Token mints an access token for an existing account.
func (b *Backend) Token(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[email]
	if !ok {
		panic("apitest: unknown account " + email)
	}
	tok, err := mint(acc.profile)
	if err != nil {
		panic(err)
	}
	return tok
}

// AddPatient stores a patient owned by doctorID.
func (b *Backend) AddPatient(p models.Patient) models.Patient {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextPat++
	p.ID = b.nextPat
	if p.Status == "" {
		p.Status = models.PatientStatusActive
	}
	if p.AdmissionDate == "" {
		p.AdmissionDate = time.Now().UTC().Format("2006-01-02T15:04:05.999999")
	}
	b.patients[p.ID] = &patientRecord{Patient: p}
	return p
}

// Patient returns a stored patient and its vitals.
func (b *Backend) Patient(id int64) (models.PatientDetail, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.patients[id]
	if !ok {
		return models.PatientDetail{}, false
	}
	return b.detailLocked(rec), true
}

// Calls reports how many requests hit "METHOD /path" (route pattern).
func (b *Backend) Calls(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

// SetDelay makes every handler sleep before answering.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Fail makes the route "METHOD /path" answer with status until cleared with 0.
func (b *Backend) Fail(key string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPaths[key] = status
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(b.track)
	api := r.Group("/api")
	api.POST("/auth/signup", b.signup)
	api.POST("/auth/login", b.login)

	authed := api.Group("/", b.requireToken)
	authed.GET("/auth/me", b.me)
	authed.GET("/patients", b.listPatients)
	authed.POST("/patients", b.createPatient)
	authed.GET("/patients/:id", b.getPatient)
	authed.PATCH("/patients/:id", b.updatePatient)
	authed.DELETE("/patients/:id", b.deletePatient)
	authed.POST("/patients/:id/vitals", b.addVitals)
	authed.POST("/patients/:id/assign-caretaker", b.assignCaretaker)
	authed.GET("/users", b.listUsers)
	return r
}

func (b *Backend) track(c *gin.Context) {
	key := c.Request.Method + " " + c.FullPath()
	b.mu.Lock()
	b.calls[key]++
	delay := b.delay
	status := b.failPaths[key]
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"error": "injected failure"})
		return
	}
	c.Next()
}

func (b *Backend) addUserLocked(email, password, first, last string, userType models.UserType) models.UserProfile {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	b.nextUser++
	profile := models.UserProfile{
		ID:        models.UserID(strconv.FormatInt(b.nextUser, 10)),
		Email:     email,
		FirstName: first,
		LastName:  last,
		UserType:  userType,
	}
	b.accounts[email] = &account{profile: profile, hash: hash}
	return profile
}

func mint(p models.UserProfile) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:    p.Email,
		UserType: string(p.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	})
	return tok.SignedString([]byte(secret))
}

func (b *Backend) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing Authorization Header"})
		return
	}
	cl := &claims{}
	_, err := jwt.ParseWithClaims(raw, cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is invalid"})
		return
	}
	c.Set("claims", cl)
	c.Next()
}

func current(c *gin.Context) *claims {
	return c.MustGet("claims").(*claims)
}

func (b *Backend) signup(c *gin.Context) {
	var req struct {
		Email     *string `json:"email"`
		Password  *string `json:"password"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		UserType  *string `json:"userType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == nil || req.Password == nil ||
		req.FirstName == nil || req.LastName == nil || req.UserType == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[*req.Email]; exists {
		b.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	profile := b.addUserLocked(*req.Email, *req.Password, *req.FirstName, *req.LastName, models.UserType(*req.UserType))
	b.mu.Unlock()

	tok, err := mint(profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "User created successfully",
		"access_token": tok,
		"user":         wireUser(profile),
	})
}

func (b *Backend) login(c *gin.Context) {
	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == nil || req.Password == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email or password"})
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[*req.Email]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(*req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	tok, err := mint(acc.profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"access_token": tok,
		"user":         wireUser(acc.profile),
	})
}

// wireUser renders ids as numbers, the way the real backend does.
func wireUser(p models.UserProfile) gin.H {
	id, err := strconv.ParseInt(p.ID.String(), 10, 64)
	if err != nil {
		return gin.H{"id": p.ID, "email": p.Email, "firstName": p.FirstName, "lastName": p.LastName, "userType": p.UserType}
	}
	return gin.H{"id": id, "email": p.Email, "firstName": p.FirstName, "lastName": p.LastName, "userType": p.UserType}
}

func (b *Backend) me(c *gin.Context) {
	c.JSON(http.StatusOK, current(c).Subject)
}

func (b *Backend) listPatients(c *gin.Context) {
	cl := current(c)
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Patient, 0, len(b.patients))
	for _, rec := range b.patients {
		switch cl.UserType {
		case string(models.UserTypeDoctor):
			if rec.DoctorID.String() != cl.Subject {
				continue
			}
		case string(models.UserTypeCaretaker):
			if rec.CaretakerID.String() != cl.Subject {
				continue
			}
		}
		out = append(out, rec.Patient)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (b *Backend) requireDoctor(c *gin.Context, action string) bool {
	if current(c).UserType != string(models.UserTypeDoctor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only doctors can " + action})
		return false
	}
	return true
}

func (b *Backend) createPatient(c *gin.Context) {
	if !b.requireDoctor(c, "create patient records") {
		return
	}
	var req models.NewPatient
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := b.AddPatient(models.Patient{
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		Diagnosis: req.Diagnosis,
		Status:    req.Status,
		DoctorID:  models.UserID(current(c).Subject),
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Patient created successfully", "patient": p})
}

func (b *Backend) lookup(c *gin.Context) (*patientRecord, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return nil, false
	}
	rec, ok := b.patients[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return nil, false
	}
	return rec, true
}

func (b *Backend) detailLocked(rec *patientRecord) models.PatientDetail {
	vitals := make([]models.Vitals, len(rec.vitals))
	// newest first
	for i, v := range rec.vitals {
		vitals[len(rec.vitals)-1-i] = v
	}
	return models.PatientDetail{Patient: rec.Patient, Vitals: vitals}
}

func (b *Backend) getPatient(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b.detailLocked(rec))
}

func (b *Backend) addVitals(c *gin.Context) {
	if !b.requireDoctor(c, "add vitals") {
		return
	}
	var req models.NewVitals
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(c)
	if !ok {
		return
	}
	b.nextVital++
	v := models.Vitals{
		ID:            b.nextVital,
		HeartRate:     req.HeartRate,
		BloodPressure: req.BloodPressure,
		Temperature:   req.Temperature,
		OxygenLevel:   req.OxygenLevel,
		RecordedAt:    time.Now().UTC().Format("2006-01-02T15:04:05.999999"),
	}
	rec.vitals = append(rec.vitals, v)
	c.JSON(http.StatusCreated, gin.H{"message": "Vitals added successfully", "vitals": v})
}

func (b *Backend) assignCaretaker(c *gin.Context) {
	if !b.requireDoctor(c, "assign caretakers") {
		return
	}
	var req struct {
		CaretakerEmail string `json:"caretakerEmail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(c)
	if !ok {
		return
	}
	acc, found := b.accounts[req.CaretakerEmail]
	if !found || acc.profile.UserType != models.UserTypeCaretaker {
		c.JSON(http.StatusNotFound, gin.H{"error": "Caretaker not found"})
		return
	}
	rec.CaretakerID = acc.profile.ID
	c.JSON(http.StatusOK, gin.H{"message": "Caretaker assigned successfully"})
}

func (b *Backend) updatePatient(c *gin.Context) {
	if !b.requireDoctor(c, "update patients") {
		return
	}
	var req models.PatientUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(c)
	if !ok {
		return
	}
	if req.Status != "" {
		rec.Status = req.Status
	}
	if req.DoctorID != "" {
		rec.DoctorID = req.DoctorID
	}
	if req.CaretakerID != "" {
		rec.CaretakerID = req.CaretakerID
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient updated successfully"})
}

func (b *Backend) deletePatient(c *gin.Context) {
	if !b.requireDoctor(c, "remove patients") {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(c)
	if !ok {
		return
	}
	delete(b.patients, rec.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Patient removed successfully"})
}

func (b *Backend) listUsers(c *gin.Context) {
	role := models.UserType(c.Query("role"))
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]gin.H, 0)
	emails := make([]string, 0, len(b.accounts))
	for email := range b.accounts {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		acc := b.accounts[email]
		if role != "" && acc.profile.UserType != role {
			continue
		}
		out = append(out, wireUser(acc.profile))
	}
	c.JSON(http.StatusOK, out)
}
