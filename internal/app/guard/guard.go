// Package guard decides what a visitor may see for a requested path.
package guard

import (
	"path"
	"strings"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
	"github.com/FACorreiaa/medilive-templui/internal/app/session"
)

const (
	HomePath       = "/"
	IndexPath      = "/index"
	AIServicesPath = "/ai-services"
	LoginPath      = "/login"
	SignupPath     = "/signup"
	DashboardPath  = "/dashboard"
)

// Role selects the dashboard variant.
type Role int

const (
	RoleOther Role = iota
	RoleDoctor
	RoleCaretaker
)

func (r Role) String() string {
	switch r {
	case RoleDoctor:
		return "doctor"
	case RoleCaretaker:
		return "caretaker"
	default:
		return "other"
	}
}

// RoleFor maps an account type to a dashboard role. Only doctors and caretakers
// have their own dashboards; patients, hospital staff and unrecognized types
// all get the generic one.
func RoleFor(t models.UserType) Role {
	switch t {
	case models.UserTypeDoctor:
		return RoleDoctor
	case models.UserTypeCaretaker:
		return RoleCaretaker
	default:
		return RoleOther
	}
}

// Target is what a request resolves to.
type Target int

const (
	TargetLoading Target = iota
	TargetRedirectLogin
	TargetRedirectDashboard
	TargetDoctorDashboard
	TargetCaretakerDashboard
	TargetGenericDashboard
	TargetHome
	TargetAIServices
	TargetLogin
	TargetSignup
	TargetNotFound
)

var targetNames = map[Target]string{
	TargetLoading:            "loading",
	TargetRedirectLogin:      "redirect_login",
	TargetRedirectDashboard:  "redirect_dashboard",
	TargetDoctorDashboard:    "doctor_dashboard",
	TargetCaretakerDashboard: "caretaker_dashboard",
	TargetGenericDashboard:   "generic_dashboard",
	TargetHome:               "home",
	TargetAIServices:         "ai_services",
	TargetLogin:              "login",
	TargetSignup:             "signup",
	TargetNotFound:           "not_found",
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsDashboard reports whether t is one of the three dashboard variants.
func (t Target) IsDashboard() bool {
	return t == TargetDoctorDashboard || t == TargetCaretakerDashboard || t == TargetGenericDashboard
}

// Decision is the outcome of Decide. Location is set only for redirects.
type Decision struct {
	Target   Target
	Location string
}

// IsRedirect reports whether the visitor should be sent elsewhere.
func (d Decision) IsRedirect() bool { return d.Location != "" }

// Decide maps a session and a requested path to exactly one target.
// It has no side effects and depends on nothing but its arguments.
func Decide(st session.State, requested string) Decision {
	if !st.Hydrated {
		return Decision{Target: TargetLoading}
	}

	p := normalize(requested)
	signedIn := st.Authenticated()

	switch {
	case IsProtected(p) && !signedIn:
		return Decision{Target: TargetRedirectLogin, Location: LoginPath}
	case (p == LoginPath || p == SignupPath) && signedIn:
		return Decision{Target: TargetRedirectDashboard, Location: DashboardPath}
	case IsProtected(p):
		return Decision{Target: dashboardFor(RoleFor(st.User.UserType))}
	}

	switch p {
	case HomePath, IndexPath:
		return Decision{Target: TargetHome}
	case AIServicesPath:
		return Decision{Target: TargetAIServices}
	case LoginPath:
		return Decision{Target: TargetLogin}
	case SignupPath:
		return Decision{Target: TargetSignup}
	}
	return Decision{Target: TargetNotFound}
}

// IsProtected reports whether p needs a signed-in visitor: the dashboard and
// the actions mounted under it.
func IsProtected(p string) bool {
	p = normalize(p)
	return p == DashboardPath || strings.HasPrefix(p, DashboardPath+"/")
}

// Phase names the state of the guard for a session, for logs.
func Phase(st session.State) string {
	switch {
	case !st.Hydrated:
		return "hydrating"
	case !st.Authenticated():
		return "unauthenticated"
	default:
		return "authenticated:" + RoleFor(st.User.UserType).String()
	}
}

func dashboardFor(r Role) Target {
	switch r {
	case RoleDoctor:
		return TargetDoctorDashboard
	case RoleCaretaker:
		return TargetCaretakerDashboard
	default:
		return TargetGenericDashboard
	}
}

func normalize(p string) string {
	if p == "" {
		return HomePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
