package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"finassist/internal/http/middleware"
	"finassist/internal/model"
	"finassist/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the routes are served by.
type Deps struct {
	Auth    service.AuthService
	Profile service.ProfileService
	Store   Pinger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Store))
	app.Get("/healthz", LivenessProbe())

	authGroup := app.Group("/auth")
	authGroup.Post("/register", Register(d.Auth))
	authGroup.Post("/login", Login(d.Auth))
	authGroup.Post("/token/refresh", RefreshToken(d.Auth))

	gate := middleware.AuthGate(d.Auth)
	app.Get("/profile", gate, GetProfile())
	app.Put("/profile", gate, UpdateProfile(d.Profile))
	app.Get("/profile/document", gate, DocumentLink(d.Profile))
	app.Put("/users/me", gate, UpdateAccount(d.Profile))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Tags ops
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(store Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags ops
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Register godoc
// @Summary Create an account
// @Description Optional profile fields and an ITR document are merged into the new profile.
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param age formData string false "Age"
// @Param goal formData string false "Financial goal"
// @Param risk_tolerance formData string false "Risk tolerance"
// @Param work_type formData string false "Work type"
// @Param file formData file false "ITR document"
// @Success 201 {object} service.Tokens
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /auth/register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := formDocument(c)
		if err != nil {
			return uploadError(c, err)
		}
		tokens, err := svc.Register(c.UserContext(), service.RegisterInput{
			Username: c.FormValue("username"),
			Email:    c.FormValue("email"),
			Password: c.FormValue("password"),
			Profile:  profileForm(c),
			Document: doc,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tokens)
	}
}

// Login godoc
// @Summary Exchange credentials for tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginInput true "Credentials"
// @Success 200 {object} service.Tokens
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.LoginInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		tokens, err := svc.Login(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tokens)
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken godoc
// @Summary Issue a new access token from a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token"
// @Success 200 {object} service.Tokens
// @Failure 401 {object} errorPayload
// @Router /auth/token/refresh [post]
func RefreshToken(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in refreshRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		tokens, err := svc.Refresh(c.UserContext(), in.RefreshToken)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tokens)
	}
}

// GetProfile godoc
// @Summary The caller's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errorPayload
// @Router /profile [get]
func GetProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(middleware.CurrentUser(c))
	}
}

type profileResponse struct {
	Message        string                 `json:"message"`
	IncomeMode     *string                `json:"income_mode"`
	ExtractedData  *model.ExtractedFields `json:"extracted_data"`
	UpdatedProfile *model.User            `json:"updated_profile"`
}

// UpdateProfile godoc
// @Summary Merge form fields and an ITR document into the caller's profile
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param age formData string false "Age"
// @Param goal formData string false "Financial goal"
// @Param risk_tolerance formData string false "Risk tolerance"
// @Param work_type formData string false "Work type"
// @Param file formData file false "ITR document"
// @Success 200 {object} profileResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /profile [put]
func UpdateProfile(svc service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := formDocument(c)
		if err != nil {
			return uploadError(c, err)
		}
		res, err := svc.Update(c.UserContext(), middleware.CurrentUser(c), profileForm(c), doc)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(profileResponse{
			Message:        "Profile updated successfully",
			IncomeMode:     res.IncomeMode,
			ExtractedData:  res.ExtractedData,
			UpdatedProfile: res.Profile,
		})
	}
}

// UpdateAccount godoc
// @Summary Change the caller's username or email
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AccountInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /users/me [put]
func UpdateAccount(svc service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AccountInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		usr, err := svc.UpdateAccount(c.UserContext(), middleware.CurrentUser(c), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(usr)
	}
}

// DocumentLink godoc
// @Summary Temporary download link for the archived ITR document
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Router /profile/document [get]
func DocumentLink(svc service.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := svc.DocumentURL(c.UserContext(), middleware.CurrentUser(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

func uploadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errMalformedForm) {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed multipart body")
	}
	return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
}

func profileForm(c *fiber.Ctx) model.Profile {
	return model.Profile{
		Age:           model.NonEmpty(c.FormValue("age")),
		Goal:          model.NonEmpty(c.FormValue("goal")),
		RiskTolerance: model.NonEmpty(c.FormValue("risk_tolerance")),
		WorkType:      model.NonEmpty(c.FormValue("work_type")),
	}
}

var errMalformedForm = errors.New("malformed multipart body")

// formDocument reads the optional "file" part. A request without one, or one
// that is not multipart at all, yields nil.
func formDocument(c *fiber.Ctx) (*service.Upload, error) {
	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errMalformedForm, err)
	case fh == nil:
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	return &service.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}
