package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/config"
	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const MinPasswordLength = 6

// AuthService handles employee login and the employee registry.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateEmployee(ctx context.Context, actor Actor, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	ListEmployees(ctx context.Context, actor Actor, filter dto.EmployeeFilter) ([]dto.EmployeeResponse, error)
	GetEmployee(ctx context.Context, actor Actor, id uint) (*dto.EmployeeResponse, error)
	UpdateEmployee(ctx context.Context, actor Actor, id uint, req dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	DeactivateEmployee(ctx context.Context, actor Actor, id uint) error
	ReactivateEmployee(ctx context.Context, actor Actor, id uint) error
}

type authService struct {
	repo repository.EmployeeRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.EmployeeRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

// HashPassword returns the bcrypt hash stored for employees.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apierror.Validation("password", "", "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	e, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized("invalid credentials")
		}
		return nil, storageErr("login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("invalid credentials")
	}
	return s.issueTokens(e)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Unauthorized("refresh token invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenRefresh {
		return nil, apierror.Unauthorized("not a refresh token")
	}
	rawID, ok := claims["employee_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, apierror.Unauthorized("malformed token")
	}

	e, err := s.repo.FindByID(ctx, uint(rawID))
	if err != nil || !e.Active {
		return nil, apierror.Unauthorized("employee not found or inactive")
	}
	return s.issueTokens(e)
}

func (s *authService) issueTokens(e *model.Employee) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(e, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(e, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		Employee:     *employeeToResponse(e),
	}, nil
}

func (s *authService) CreateEmployee(ctx context.Context, actor Actor, req dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := requireManager(actor, "creating employees"); err != nil {
		return nil, err
	}
	if err := validateRole(req.Role); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apierror.Validation("username", req.Username, "username must not be empty")
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, storageErr("create employee", err)
	}
	if taken {
		return nil, apierror.Duplicate("employee", "username", username)
	}

	e := &model.Employee{
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Duplicate("employee", "username", username)
		}
		return nil, storageErr("create employee", err)
	}
	return employeeToResponse(e), nil
}

func (s *authService) ListEmployees(ctx context.Context, actor Actor, filter dto.EmployeeFilter) ([]dto.EmployeeResponse, error) {
	if err := requireManager(actor, "listing employees"); err != nil {
		return nil, err
	}
	if filter.Role != "" {
		if err := validateRole(filter.Role); err != nil {
			return nil, err
		}
	}
	employees, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list employees", err)
	}
	resp := make([]dto.EmployeeResponse, len(employees))
	for i := range employees {
		resp[i] = *employeeToResponse(&employees[i])
	}
	return resp, nil
}

func (s *authService) GetEmployee(ctx context.Context, actor Actor, id uint) (*dto.EmployeeResponse, error) {
	if err := requireManager(actor, "viewing employees"); err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "employee", id, "get employee")
	}
	return employeeToResponse(e), nil
}

func (s *authService) UpdateEmployee(ctx context.Context, actor Actor, id uint, req dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := requireManager(actor, "updating employees"); err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "employee", id, "get employee")
	}
	if req.Name != "" {
		e.Name = strings.TrimSpace(req.Name)
	}
	if req.Role != "" {
		if err := validateRole(req.Role); err != nil {
			return nil, err
		}
		e.Role = req.Role
	}
	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		e.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, storageErr("update employee", err)
	}
	return employeeToResponse(e), nil
}

func (s *authService) DeactivateEmployee(ctx context.Context, actor Actor, id uint) error {
	if err := requireManager(actor, "deactivating employees"); err != nil {
		return err
	}
	if actor.EmployeeID == id {
		return apierror.Validation("id", id, "employees cannot deactivate themselves")
	}
	return s.setActive(ctx, id, false)
}

func (s *authService) ReactivateEmployee(ctx context.Context, actor Actor, id uint) error {
	if err := requireManager(actor, "reactivating employees"); err != nil {
		return err
	}
	return s.setActive(ctx, id, true)
}

func (s *authService) setActive(ctx context.Context, id uint, active bool) error {
	ok, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return storageErr("update employee", err)
	}
	if !ok {
		return apierror.NotFound("employee", id)
	}
	return nil
}

func (s *authService) generateToken(e *model.Employee, typ string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"employee_id": e.ID,
		"username":    e.Username,
		"role":        e.Role,
		"typ":         typ,
		"exp":         time.Now().Add(duration).Unix(),
		"iat":         time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func validateRole(role string) error {
	if role != model.RoleManager && role != model.RoleSalesperson {
		return apierror.Validation("role", role, "role must be manager or salesperson")
	}
	return nil
}

func employeeToResponse(e *model.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:       e.ID,
		Username: e.Username,
		Name:     e.Name,
		Role:     e.Role,
		Active:   e.Active,
	}
}
