package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go-signup-backend/internal/delivery/http/middleware"
	v1 "go-signup-backend/internal/delivery/http/v1"
	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/repository/redisstore"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/identity"
	"go-signup-backend/pkg/logger"
	"go-signup-backend/pkg/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init()
	os.Exit(m.Run())
}

// stubUserRepo reports every username and email as free.
type stubUserRepo struct{}

func (stubUserRepo) Create(context.Context, *domain.User) error { return nil }
func (stubUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (stubUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (stubUserRepo) GetBySocialID(context.Context, string) (*domain.User, error) {
	return nil, nil
}
func (stubUserRepo) Update(context.Context, *domain.User) error { return nil }

// stubIdentity satisfies the identity contract without network calls.
type stubIdentity struct{}

func (stubIdentity) SignUp(context.Context, string, string) (*identity.AuthUser, *identity.Session, error) {
	return &identity.AuthUser{ID: "auth-1"}, nil, nil
}
func (stubIdentity) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return nil, identity.ErrInvalidCredentials
}
func (stubIdentity) GetUser(context.Context, string) (*identity.AuthUser, error) {
	return nil, identity.ErrUnauthorized
}
func (stubIdentity) SignOut(context.Context, string) error { return nil }
func (stubIdentity) AuthorizeURL(string, string) string    { return "" }
func (stubIdentity) RequestPasswordReset(context.Context, string, string) error { return nil }
func (stubIdentity) UpdatePassword(context.Context, string, string) error       { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisstore.NewWizardRepository(rdb, time.Hour)

	validate := validator.New()
	validation.RegisterValidators(validate)

	users := stubUserRepo{}
	idp := stubIdentity{}
	links := usecase.NewLinkRegistry("github", identity.NewHub())

	wizardUC := usecase.NewWizardUsecase(store, nil, validate)
	availabilityUC := usecase.NewAvailabilityUsecase(users, store)
	signupUC := usecase.NewSignupUsecase(users, nil, store, idp, links, nil, "github", "http://localhost:3000/home")

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())

	grp := r.Group("/v1")
	grp.Use(middleware.WizardSession())
	v1.NewSignupHandler(grp, wizardUC, availabilityUC, signupUC, links, idp)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStep3GuardRespondsConflictWhenEmpty(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/v1/signup/step3", nil, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			RedirectStep int `json:"redirect_step"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, 1, body.Error.RedirectStep)
}

func TestStep1RejectedWithoutAvailabilityChecks(t *testing.T) {
	r := newTestRouter(t)

	payload := map[string]string{
		"username":         "validUser1",
		"email":            "new@example.com",
		"password":         "Abcdef1!",
		"confirm_password": "Abcdef1!",
		"phone":            "01012345678",
	}
	w := doJSON(r, http.MethodPost, "/v1/signup/step1", payload, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizardFlowOverOneSession(t *testing.T) {
	r := newTestRouter(t)

	// First touch issues the wizard session cookie.
	w := doJSON(r, http.MethodGet, "/v1/signup/state", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Availability checks settle for this session.
	w = doJSON(r, http.MethodGet, "/v1/signup/check/username?value=validUser1", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/v1/signup/check/email?value=new@example.com", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	payload := map[string]string{
		"username":         "validUser1",
		"email":            "new@example.com",
		"password":         "Abcdef1!",
		"confirm_password": "Abcdef1!",
		"phone":            "01012345678",
	}
	w = doJSON(r, http.MethodPost, "/v1/signup/step1", payload, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The stored state advances and never echoes the password back.
	w = doJSON(r, http.MethodGet, "/v1/signup/state", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data domain.WizardState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.CurrentStep)
	require.NotNil(t, body.Data.Step1)
	assert.Equal(t, "validUser1", body.Data.Step1.Username)
	assert.Empty(t, body.Data.Step1.Password)
	assert.Empty(t, body.Data.Step1.ConfirmPassword)

	// Step 2 via JSON (no image).
	step2 := map[string]string{"birth_date": "2000-05-20", "gender": "female"}
	w = doJSON(r, http.MethodPost, "/v1/signup/step2", step2, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Guard now admits step 3.
	w = doJSON(r, http.MethodGet, "/v1/signup/step3", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	// Reset clears everything.
	w = doJSON(r, http.MethodPost, "/v1/signup/reset", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/signup/state", nil, cookies)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Data.Step1)
	assert.Equal(t, 1, body.Data.CurrentStep)
}

func TestStep1ValidationErrorsAreFieldKeyed(t *testing.T) {
	r := newTestRouter(t)

	// Settle checks first so the schema failure is what gets reported.
	w := doJSON(r, http.MethodGet, "/v1/signup/state", nil, nil)
	cookies := w.Result().Cookies()
	doJSON(r, http.MethodGet, "/v1/signup/check/username?value=validUser1", nil, cookies)
	doJSON(r, http.MethodGet, "/v1/signup/check/email?value=new@example.com", nil, cookies)

	payload := map[string]string{
		"username":         "validUser1",
		"email":            "new@example.com",
		"password":         "weakpass",
		"confirm_password": "weakpass",
		"phone":            "01012345678",
	}
	w = doJSON(r, http.MethodPost, "/v1/signup/step1", payload, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "password")
}
