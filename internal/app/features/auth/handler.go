// internal/app/features/auth/handler.go
package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/users"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	sysauth "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/httpjson"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/sanitize"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/blood"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/domain/models"
)

// Handler owns registration and login.
type Handler struct {
	Users  *userstore.Store
	Tokens *sysauth.TokenService
	Log    *zap.Logger
}

// NewHandler constructs an auth Handler.
func NewHandler(users *userstore.Store, tokens *sysauth.TokenService, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Tokens: tokens, Log: logger}
}

type registerRequest struct {
	FullName  string           `json:"full_name"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Phone     string           `json:"phone,omitempty"`
	Role      string           `json:"role"`
	BloodType string           `json:"blood_type,omitempty"`
	Location  *models.GeoPoint `json:"location,omitempty"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account and returns an access token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, err)
		return
	}

	in.FullName = sanitize.Text(in.FullName)
	if in.FullName == "" {
		httpjson.ErrorKind(w, apperr.Validation, "full name is required")
		return
	}
	if !strings.Contains(in.Email, "@") {
		httpjson.ErrorKind(w, apperr.Validation, "a valid email is required")
		return
	}
	if len(in.Password) < 8 {
		httpjson.ErrorKind(w, apperr.Validation, "password must be at least 8 characters")
		return
	}
	if in.Role == models.RoleDonor && !blood.ValidType(in.BloodType) {
		httpjson.ErrorKind(w, apperr.Validation, "donors must register a valid blood type")
		return
	}
	if in.BloodType != "" && !blood.ValidType(in.BloodType) {
		httpjson.ErrorKind(w, apperr.Validation, "invalid blood type")
		return
	}
	if in.Location != nil && !in.Location.Valid() {
		httpjson.ErrorKind(w, apperr.Validation, "location must be valid GeoJSON [lng, lat]")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpjson.ErrorKind(w, apperr.Internal, "")
		return
	}

	u := models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        sanitize.Text(in.Phone),
		Role:         in.Role,
		BloodType:    in.BloodType,
		Location:     in.Location,
		Available:    in.Role == models.RoleDonor,
	}
	if in.Role == models.RoleDonor {
		u.Donor = &models.DonorProfile{}
	}

	created, err := h.Users.Create(r.Context(), u)
	if err != nil {
		httpjson.Error(w, err)
		return
	}

	token, err := h.Tokens.Issue(created.ID.Hex(), created.Role)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err))
		httpjson.ErrorKind(w, apperr.Internal, "")
		return
	}

	h.Log.Info("user registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role))
	httpjson.Write(w, http.StatusCreated, authResponse{Token: token, User: created})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Error(w, err)
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), in.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			httpjson.ErrorKind(w, apperr.Unauthorized, "invalid email or password")
			return
		}
		httpjson.Error(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		httpjson.ErrorKind(w, apperr.Unauthorized, "invalid email or password")
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err))
		httpjson.ErrorKind(w, apperr.Internal, "")
		return
	}

	httpjson.Write(w, http.StatusOK, authResponse{Token: token, User: *u})
}
