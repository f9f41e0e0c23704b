// Package fakeapi is an in-memory implementation of the task API. It backs
// the devserver command and the client tests.
package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/balkashynov/taskboard/internal/models"
)

// Prefix is where the API is mounted
const Prefix = "/api/v1"

const userKey = "user"

type account struct {
	models.User
	hash []byte
}

// Server holds users, projects and tasks in memory
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	projects map[string]*models.Project
	tasks    map[string]*models.Task

	secret     []byte
	tokenTTL   time.Duration
	now        func() time.Time
	failUpdate func(id string, update models.TaskUpdate) error
	logger     *zap.Logger

	e *echo.Echo
}

// Option configures a Server
type Option func(*Server)

// WithSecret sets the HS256 signing key
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL sets how long issued tokens live
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger logs every request
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns an empty server
func New(opts ...Option) *Server {
	s := &Server{
		accounts: map[string]*account{},
		projects: map[string]*models.Project{},
		tasks:    map[string]*models.Task{},
		secret:   []byte("taskboard-dev-secret"),
		tokenTTL: 7 * 24 * time.Hour,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.e = s.routes()
	return s
}

// Handler serves the API under Prefix
func (s *Server) Handler() http.Handler {
	return s.e
}

// FailUpdates makes PUT /tasks/{id} fail with a 500 whenever fn returns an
// error. fn runs with the server locked and must not call back into it.
// nil turns fault injection off.
func (s *Server) FailUpdates(fn func(id string, update models.TaskUpdate) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = fn
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(s.requestLogger)

	g := e.Group(Prefix)
	g.POST("/auth/login", s.login)

	authed := g.Group("", s.requireUser)
	authed.GET("/auth/me", s.me)
	authed.GET("/dashboard", s.dashboard)

	authed.GET("/projects", s.listProjects)
	authed.POST("/projects", s.createProject)
	authed.GET("/projects/:id", s.getProject)
	authed.PUT("/projects/:id", s.updateProject)
	authed.DELETE("/projects/:id", s.deleteProject)

	authed.GET("/tasks", s.listTasks)
	authed.POST("/tasks", s.createTask)
	authed.GET("/tasks/prioritize", s.prioritizeTasks)
	authed.GET("/tasks/:id", s.getTask)
	authed.PUT("/tasks/:id", s.updateTask)
	authed.DELETE("/tasks/:id", s.deleteTask)
	return e
}

// errorHandler answers FastAPI style: {"detail": "..."}
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}
	if code == http.StatusUnauthorized {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
	}
	if err := c.JSON(code, map[string]string{"detail": detail}); err != nil {
		s.logger.Warn("write error response", zap.Error(err))
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info("request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	}
}

// AddUser registers an active user
func (s *Server) AddUser(email, password, fullName string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; ok {
		return models.User{}, errors.New("the user with this email already exists")
	}
	acc := &account{
		User: models.User{ID: uuid.NewString(), Email: email, FullName: fullName, IsActive: true},
		hash: hash,
	}
	s.accounts[email] = acc
	return acc.User, nil
}

// IssueToken signs an access token for userID
func (s *Server) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) login(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	password := c.FormValue("password")

	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}
	if !acc.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Inactive user")
	}
	token, err := s.IssueToken(acc.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, tokenStr, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}
		token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		user, ok := s.userByID(sub)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func (s *Server) userByID(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc.User, true
		}
	}
	return models.User{}, false
}

func currentUser(c echo.Context) models.User {
	user, _ := c.Get(userKey).(models.User)
	return user
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}
