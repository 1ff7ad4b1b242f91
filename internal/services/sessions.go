package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quiz-ai/internal/models"
)

const (
	userKeyPrefix    = "user:"
	sessionKeyPrefix = "session:"
)

// SignupInput is the registration form of the dashboards.
type SignupInput struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,max=72"`
	Role        string `json:"role" validate:"required,oneof=student teacher"`
	Institution string `json:"institution"`
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	Class       string `json:"class"`
}

type storedUser struct {
	User         models.User `json:"user"`
	PasswordHash []byte      `json:"passwordHash"`
}

// SessionService keeps users and their sessions in the injected store.
// Callers carry the resulting session explicitly; nothing is cached here.
type SessionService struct {
	store KVStore
	cost  int
	now   func() time.Time

	mu sync.Mutex
}

func NewSessionService(store KVStore) *SessionService {
	return &SessionService{
		store: store,
		cost:  bcrypt.DefaultCost,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers a user and opens a session for it.
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (*models.Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, newError(ErrValidation, "Preencha nome, e-mail, senha e perfil corretamente", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(ctx, userKeyPrefix+in.Email); err == nil {
		return nil, newError(ErrEmailExists, "Este e-mail já está cadastrado", nil)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	user := models.User{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       in.Email,
		Role:        models.Role(in.Role),
		Institution: in.Institution,
		Subject:     in.Subject,
		Grade:       in.Grade,
		Class:       in.Class,
		CreatedAt:   s.now(),
	}
	if err := putJSON(ctx, s.store, userKeyPrefix+user.Email, storedUser{User: user, PasswordHash: hash}); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return s.openSession(ctx, user)
}

// Login checks the credentials and opens a new session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	var stored storedUser
	if err := getJSON(ctx, s.store, userKeyPrefix+normalizeEmail(email), &stored); err != nil {
		if isNotFound(err) {
			return nil, newError(ErrUnauthorized, "E-mail ou senha incorretos", nil)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte(password)); err != nil {
		return nil, newError(ErrUnauthorized, "E-mail ou senha incorretos", nil)
	}
	return s.openSession(ctx, stored.User)
}

// Lookup resolves a bearer token into its session.
func (s *SessionService) Lookup(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, newError(ErrUnauthorized, "Sessão inválida", nil)
	}
	session := &models.Session{}
	if err := getJSON(ctx, s.store, sessionKeyPrefix+token, session); err != nil {
		if isNotFound(err) {
			return nil, newError(ErrUnauthorized, "Sessão inválida", nil)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	if err := s.store.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) openSession(ctx context.Context, user models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: s.now(),
	}
	if err := putJSON(ctx, s.store, sessionKeyPrefix+session.Token, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// HomePath is the dashboard a role lands on after signing in.
func HomePath(role models.Role) string {
	if role == models.RoleTeacher {
		return "/teacher"
	}
	return "/student"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
