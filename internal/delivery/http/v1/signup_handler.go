package v1

import (
	"io"
	"net/http"
	"strings"

	"go-signup-backend/internal/delivery/http/response"
	"go-signup-backend/internal/domain"
	"go-signup-backend/internal/usecase"
	"go-signup-backend/pkg/identity"
	"go-signup-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

type SignupHandler struct {
	wizardUC       domain.WizardUsecase
	availabilityUC domain.AvailabilityUsecase
	signupUC       usecase.SignupUsecase
	links          *usecase.LinkRegistry
	idp            usecase.IdentityService
}

func NewSignupHandler(
	r *gin.RouterGroup,
	wizardUC domain.WizardUsecase,
	availabilityUC domain.AvailabilityUsecase,
	signupUC usecase.SignupUsecase,
	links *usecase.LinkRegistry,
	idp usecase.IdentityService,
) {
	handler := &SignupHandler{
		wizardUC:       wizardUC,
		availabilityUC: availabilityUC,
		signupUC:       signupUC,
		links:          links,
		idp:            idp,
	}

	signup := r.Group("/signup")
	{
		signup.GET("/state", handler.GetState)
		signup.POST("/step1", handler.SubmitStep1)
		signup.POST("/step2", handler.SubmitStep2)
		signup.GET("/step3", handler.Step3Guard)
		signup.POST("/step3", handler.SubmitStep3)
		signup.POST("/step", handler.GoToStep)
		signup.POST("/complete", handler.Complete)
		signup.POST("/reset", handler.Reset)
		signup.GET("/check/username", handler.CheckUsername)
		signup.GET("/check/email", handler.CheckEmail)
		signup.GET("/link/status", handler.LinkStatus)
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(string(domain.KeyWizardSession))
}

// accessToken pulls the identity token from the Authorization header or the
// auth_token cookie. Empty when the visitor has no identity session.
func accessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

// GetState godoc
// @Summary      Get wizard state
// @Description  Return the signup wizard state for the current session. Passwords are redacted.
// @Tags         signup
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.WizardState}
// @Router       /signup/state [get]
func (h *SignupHandler) GetState(c *gin.Context) {
	state, err := h.wizardUC.State(c.Request.Context(), sessionID(c))
	if err != nil {
		c.Error(err)
		return
	}

	// Credentials never leave the server once stored.
	if state.Step1 != nil {
		redacted := *state.Step1
		redacted.Password = ""
		redacted.ConfirmPassword = ""
		state.Step1 = &redacted
	}

	response.Success(c, http.StatusOK, "Wizard state retrieved", state)
}

// SubmitStep1 godoc
// @Summary      Submit signup step 1
// @Description  Validate and store the credentials step. Requires settled availability checks for username and email.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request  body      domain.Step1Data  true  "Credentials"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /signup/step1 [post]
func (h *SignupHandler) SubmitStep1(c *gin.Context) {
	var req domain.Step1Data
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := h.wizardUC.SubmitStep1(c.Request.Context(), sessionID(c), &req); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Step 1 saved", gin.H{"current_step": 2})
}

// SubmitStep2 godoc
// @Summary      Submit signup step 2
// @Description  Validate and store the profile step. Accepts multipart form data with an optional profile_image file, which is uploaded immediately.
// @Tags         signup
// @Accept       multipart/form-data
// @Produce      json
// @Param        birth_date     formData  string  true   "Birth date (YYYY-MM-DD)"
// @Param        gender         formData  string  true   "Gender"
// @Param        profile_image  formData  file    false  "Profile image (jpg, png, gif, max 5MB)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /signup/step2 [post]
func (h *SignupHandler) SubmitStep2(c *gin.Context) {
	var req domain.Step2Data
	var img *domain.UploadedImage

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req.BirthDate = c.PostForm("birth_date")
		req.Gender = domain.Gender(c.PostForm("gender"))
		req.ProfileImagePreview = c.PostForm("profile_image_preview")

		file, err := c.FormFile("profile_image")
		if err == nil && file != nil {
			if file.Size > security.MaxProfileImageBytes {
				response.Error(c, http.StatusBadRequest, "Profile image must be 5MB or smaller", nil)
				return
			}
			f, err := file.Open()
			if err != nil {
				c.Error(err)
				return
			}
			defer f.Close()

			data, err := io.ReadAll(io.LimitReader(f, security.MaxProfileImageBytes+1))
			if err != nil {
				c.Error(err)
				return
			}
			img = &domain.UploadedImage{
				FileName: file.Filename,
				MIME:     file.Header.Get("Content-Type"),
				Data:     data,
			}
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
			return
		}
	}

	if err := h.wizardUC.SubmitStep2(c.Request.Context(), sessionID(c), &req, img); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Step 2 saved", gin.H{
		"current_step":      3,
		"profile_image_url": req.ProfileImageURL,
	})
}

// Step3Guard godoc
// @Summary      Check step 3 entry
// @Description  Report whether step 3 may be entered. When earlier step data is missing, responds 409 with redirect_step naming the step to return to.
// @Tags         signup
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /signup/step3 [get]
func (h *SignupHandler) Step3Guard(c *gin.Context) {
	redirect, err := h.wizardUC.Step3Guard(c.Request.Context(), sessionID(c))
	if err != nil {
		c.Error(err)
		return
	}

	if redirect != 0 {
		response.Error(c, http.StatusConflict, "Earlier steps are incomplete", gin.H{
			"redirect_step": redirect,
		})
		return
	}
	response.Success(c, http.StatusOK, "Step 3 may be entered", gin.H{"allowed": true})
}

// SubmitStep3 godoc
// @Summary      Submit signup step 3
// @Description  Store the optional social-connection selections.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request  body      domain.Step3Data  true  "Connections"
// @Success      200      {object}  response.Response
// @Router       /signup/step3 [post]
func (h *SignupHandler) SubmitStep3(c *gin.Context) {
	var req domain.Step3Data
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := h.wizardUC.SubmitStep3(c.Request.Context(), sessionID(c), &req); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Step 3 saved", nil)
}

// GoToStep godoc
// @Summary      Navigate to a wizard step
// @Description  Set the wizard's current step (1-3), typically for backward navigation.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /signup/step [post]
func (h *SignupHandler) GoToStep(c *gin.Context) {
	var req struct {
		Step int `json:"step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	if err := h.wizardUC.GoToStep(c.Request.Context(), sessionID(c), req.Step); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Step updated", gin.H{"current_step": req.Step})
}

// Complete godoc
// @Summary      Complete the signup
// @Description  Create the account from the collected wizard data. Reconciles any OAuth identity attached to the current session. Clears the wizard state only on full success.
// @Tags         signup
// @Produce      json
// @Success      201  {object}  response.Response{data=usecase.SignupResult}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /signup/complete [post]
func (h *SignupHandler) Complete(c *gin.Context) {
	result, err := h.signupUC.Complete(c.Request.Context(), sessionID(c), accessToken(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Account created successfully", result)
}

// Reset godoc
// @Summary      Reset the wizard
// @Description  Discard all wizard state for the current session.
// @Tags         signup
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /signup/reset [post]
func (h *SignupHandler) Reset(c *gin.Context) {
	if err := h.wizardUC.Reset(c.Request.Context(), sessionID(c)); err != nil {
		c.Error(err)
		return
	}
	h.links.CloseSession(sessionID(c))

	response.Success(c, http.StatusOK, "Signup reset", nil)
}

// CheckUsername godoc
// @Summary      Check username availability
// @Tags         signup
// @Produce      json
// @Param        value  query     string  true  "Username to check"
// @Success      200    {object}  response.Response{data=domain.AvailabilityResult}
// @Router       /signup/check/username [get]
func (h *SignupHandler) CheckUsername(c *gin.Context) {
	res, err := h.availabilityUC.CheckUsername(c.Request.Context(), sessionID(c), c.Query("value"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Username availability checked", res)
}

// CheckEmail godoc
// @Summary      Check email availability
// @Tags         signup
// @Produce      json
// @Param        value  query     string  true  "Email to check"
// @Success      200    {object}  response.Response{data=domain.AvailabilityResult}
// @Router       /signup/check/email [get]
func (h *SignupHandler) CheckEmail(c *gin.Context) {
	res, err := h.availabilityUC.CheckEmail(c.Request.Context(), sessionID(c), c.Query("value"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Email availability checked", res)
}

// LinkStatus godoc
// @Summary      Get OAuth link status
// @Description  Report whether an OAuth identity is linked to this signup session. Starts a session watcher on first call, seeded from the current identity session when a token is present.
// @Tags         signup
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.LinkState}
// @Router       /signup/link/status [get]
func (h *SignupHandler) LinkStatus(c *gin.Context) {
	watcher := h.links.Watch(sessionID(c), h.currentAuthUser(c))
	response.Success(c, http.StatusOK, "Link status retrieved", watcher.Snapshot())
}

func (h *SignupHandler) currentAuthUser(c *gin.Context) *identity.AuthUser {
	token := accessToken(c)
	if token == "" {
		return nil
	}
	user, err := h.idp.GetUser(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}
