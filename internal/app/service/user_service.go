package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daily_judge/internal/common"
	"daily_judge/internal/common/security"
	"daily_judge/internal/domain/model"
	"daily_judge/internal/domain/repository"
	"daily_judge/internal/platform/identity"
	"daily_judge/internal/platform/mail"

	log "github.com/sirupsen/logrus"
)

const generatedPasswordLength = 8

// User list groups accepted by ListUsers.
const (
	GroupAll      = "todos"
	GroupStudents = "estudiantes"
	GroupTeachers = "profesores"
)

type UserService struct {
	userRepo repository.UserRepository
	// accounts is the identity instance used to create accounts for other
	// people without touching the caller's session.
	accounts *identity.Provider
	mailer   mail.Mailer
	now      func() time.Time
	logger   *log.Entry
}

func NewUserService(userRepo repository.UserRepository, accounts *identity.Provider, mailer mail.Mailer) *UserService {
	return &UserService{
		userRepo: userRepo,
		accounts: accounts,
		mailer:   mailer,
		now:      time.Now,
		logger:   log.WithField("from", "user service"),
	}
}

type RegisterUserRequest struct {
	Name       string     `json:"name" validate:"required,max=120"`
	Email      string     `json:"email" validate:"required,email"`
	DocumentID string     `json:"document_id" validate:"required,max=40"`
	Role       model.Role `json:"role" validate:"omitempty,oneof=admin profesor estudiante"`
}

type RegisterUserResponse struct {
	User     *model.User `json:"user"`
	Password string      `json:"password"`
}

type BulkStudentRow struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	DocumentID string `json:"document_id"`
}

type BulkRegisterResponse struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Log     []string `json:"log"`
}

func (s *UserService) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %q: %w", userID, common.ErrNotFound)
		}
		return nil, common.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, group string) ([]model.User, error) {
	var role model.Role
	switch group {
	case "", GroupAll:
	case GroupStudents:
		role = model.RoleStudent
	case GroupTeachers:
		role = model.RoleTeacher
	default:
		return nil, fmt.Errorf("%w: unknown group %q", common.ErrValidation, group)
	}
	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, common.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// RegisterUser creates an account with a generated password on behalf of the
// actor. Students are linked to the actor, who becomes their teacher.
func (s *UserService) RegisterUser(ctx context.Context, actorID string, req RegisterUserRequest) (*RegisterUserResponse, error) {
	if err := common.ValidateInput(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}

	actor, err := s.GetMe(ctx, actorID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == model.RoleAdmin:
	case actor.Role == model.RoleTeacher && req.Role == model.RoleStudent:
	default:
		return nil, fmt.Errorf("%w: %s cannot register %s accounts", common.ErrForbidden, actor.Role, req.Role)
	}

	return s.register(ctx, actor.ID, req)
}

// BulkRegister registers every complete row as a student of the actor. Rows
// with empty fields are skipped; a failing row does not stop the others.
func (s *UserService) BulkRegister(ctx context.Context, actorID string, rows []BulkStudentRow) (*BulkRegisterResponse, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to register", common.ErrValidation)
	}
	actor, err := s.GetMe(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, common.ErrForbidden
	}

	res := &BulkRegisterResponse{Log: make([]string, 0, len(rows))}
	for i, row := range rows {
		line := i + 1
		req := RegisterUserRequest{
			Name:       strings.TrimSpace(row.Name),
			Email:      strings.TrimSpace(row.Email),
			DocumentID: strings.TrimSpace(row.DocumentID),
			Role:       model.RoleStudent,
		}
		if req.Name == "" || req.Email == "" || req.DocumentID == "" {
			res.Skipped++
			res.Log = append(res.Log, fmt.Sprintf("row %d: empty fields (skipped)", line))
			continue
		}
		if err := common.ValidateInput(req); err != nil {
			res.Failed++
			res.Log = append(res.Log, fmt.Sprintf("row %d: error registering %q: %v", line, req.Name, err))
			continue
		}

		created, err := s.register(ctx, actor.ID, req)
		if err != nil {
			res.Failed++
			res.Log = append(res.Log, fmt.Sprintf("row %d: error registering %q: %s", line, req.Name, common.PublicMessage(err)))
			continue
		}
		res.Created++
		res.Log = append(res.Log, fmt.Sprintf("row %d: %q created (%s)", line, req.Name, created.User.Email))
	}

	s.logger.Infof("bulk registration by %s: %d created, %d skipped, %d failed", actor.ID, res.Created, res.Skipped, res.Failed)
	return res, nil
}

func (s *UserService) register(ctx context.Context, teacherID string, req RegisterUserRequest) (*RegisterUserResponse, error) {
	password, err := security.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return nil, common.Errorf("failed to generate password: %w", err)
	}
	account, err := s.accounts.CreateAccount(ctx, req.Email, password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:             account.UserID,
		DisplayName:    req.Name,
		Email:          account.Email,
		DocumentID:     req.DocumentID,
		Role:           req.Role,
		TeacherID:      teacherID,
		SolvedProblems: []string{},
		Students:       []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, common.Errorf("failed to create user document: %w", err)
	}
	if user.Role == model.RoleStudent {
		if err := s.userRepo.AddStudent(ctx, teacherID, user.ID); err != nil {
			return nil, common.Errorf("failed to link student: %w", err)
		}
	}

	body := fmt.Sprintf("Hola %s,\n\nSe creó tu cuenta.\nUsuario: %s\nContraseña: %s\n", user.DisplayName, user.Email, password)
	if err := s.mailer.Send(ctx, user.Email, "Tu cuenta", body); err != nil {
		s.logger.Warnf("credentials mail for %s not sent: %v", user.Email, err)
	}

	s.logger.Infof("%s account %s created by %s", user.Role, user.ID, teacherID)
	return &RegisterUserResponse{User: user, Password: password}, nil
}

// EnsureAdmin creates the bootstrap admin account when no user has the email.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("failed to look up admin: %w", err)
	}

	account, err := s.accounts.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("create admin account: %w", err)
	}
	if name == "" {
		name = "Admin"
	}
	now := s.now().UTC()
	admin := &model.User{
		ID:             account.UserID,
		DisplayName:    name,
		Email:          account.Email,
		Role:           model.RoleAdmin,
		SolvedProblems: []string{},
		Students:       []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, common.Errorf("failed to create admin document: %w", err)
	}
	s.logger.Infof("bootstrap admin %s created", email)
	return admin, nil
}
