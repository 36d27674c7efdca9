package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"
)

type inMemoryUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{nextID: 1, users: map[uint]*domain.User{}}
}

func (r *inMemoryUserRepo) FindByID(id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) findBy(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *inMemoryUserRepo) FindByLoginOrEmail(v string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool { return u.Login == v || u.Email == v })
}

func (r *inMemoryUserRepo) FindByLogin(login string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool { return u.Login == login })
}

func (r *inMemoryUserRepo) FindByEmail(email string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool { return u.Email == email })
}

func (r *inMemoryUserRepo) FindByConfirmationCode(code string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool {
		return u.ConfirmationCode != nil && *u.ConfirmationCode == code
	})
}

func (r *inMemoryUserRepo) Create(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	cp.ID = r.nextID
	r.nextID++
	r.users[cp.ID] = &cp
	u.ID = cp.ID
	return nil
}

func (r *inMemoryUserRepo) Update(u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[cp.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) Delete(id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *inMemoryUserRepo) ListPaged(query repository.UserListQuery) (repository.PageResult[domain.User], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []domain.User
	for _, u := range r.users {
		items = append(items, *u)
	}
	return repository.PageResult[domain.User]{Items: items, Total: int64(len(items))}, nil
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	codes []string
}

func (s *recordingSender) SendConfirmationEmail(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	s.codes = append(s.codes, code)
	return nil
}

func (s *recordingSender) lastCode(t *testing.T) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		t.Fatal("no confirmation email sent")
	}
	return s.codes[len(s.codes)-1]
}

func newAuthServiceForTest() (*AuthService, *inMemoryUserRepo, *recordingSender) {
	repo := newInMemoryUserRepo()
	sender := &recordingSender{}
	return NewAuthService(repo, sender, NewInMemoryUnknownIdentifierCache(), 24*time.Hour, 10*time.Minute), repo, sender
}

func TestAuthServiceRegistrationAndConfirmation(t *testing.T) {
	svc, _, sender := newAuthServiceForTest()

	if err := svc.Register("login", "12345678", "login@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Unconfirmed users cannot log in; the failure is indistinguishable from
	// a wrong password.
	if _, err := svc.CheckCredentials("login", "12345678"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials before confirmation, got %v", err)
	}

	if err := svc.ConfirmEmail(sender.lastCode(t)); err != nil {
		t.Fatalf("confirm email: %v", err)
	}

	user, err := svc.CheckCredentials("login", "12345678")
	if err != nil {
		t.Fatalf("check credentials after confirmation: %v", err)
	}
	if user.Login != "login" {
		t.Fatalf("unexpected user: %+v", user)
	}

	// Lookup works by email too.
	if _, err := svc.CheckCredentials("login@example.com", "12345678"); err != nil {
		t.Fatalf("check credentials by email: %v", err)
	}
	if _, err := svc.CheckCredentials("login", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.CheckCredentials("ghost", "12345678"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthServiceRejectsDuplicateIdentifiers(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	if err := svc.Register("login", "12345678", "login@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Register("login", "12345678", "other@example.com"); !errors.Is(err, ErrLoginTaken) {
		t.Fatalf("expected ErrLoginTaken, got %v", err)
	}
	if err := svc.Register("other", "12345678", "login@example.com"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthServiceConfirmationCodeRules(t *testing.T) {
	svc, repo, sender := newAuthServiceForTest()

	if err := svc.ConfirmEmail("no-such-code"); !errors.Is(err, ErrInvalidConfirmationCode) {
		t.Fatalf("expected ErrInvalidConfirmationCode, got %v", err)
	}

	if err := svc.Register("login", "12345678", "login@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	code := sender.lastCode(t)

	// Expired codes are refused.
	user, err := repo.FindByEmail("login@example.com")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	user.ConfirmationExpiresAt = &past
	if err := repo.Update(user); err != nil {
		t.Fatalf("update user: %v", err)
	}
	if err := svc.ConfirmEmail(code); !errors.Is(err, ErrInvalidConfirmationCode) {
		t.Fatalf("expected ErrInvalidConfirmationCode for expired code, got %v", err)
	}

	// Resending replaces the code and resets the window.
	if err := svc.ResendConfirmation("login@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	newCode := sender.lastCode(t)
	if newCode == code {
		t.Fatal("resend must mint a fresh code")
	}
	if err := svc.ConfirmEmail(newCode); err != nil {
		t.Fatalf("confirm with fresh code: %v", err)
	}
	if err := svc.ResendConfirmation("login@example.com"); !errors.Is(err, ErrEmailAlreadyConfirmed) {
		t.Fatalf("expected ErrEmailAlreadyConfirmed, got %v", err)
	}
}

func TestAuthServicePasswordStorageUsesSalt(t *testing.T) {
	svc, repo, sender := newAuthServiceForTest()

	if err := svc.Register("a-user", "12345678", "a@example.com"); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := svc.ConfirmEmail(sender.lastCode(t)); err != nil {
		t.Fatalf("confirm a: %v", err)
	}
	if err := svc.Register("b-user", "12345678", "b@example.com"); err != nil {
		t.Fatalf("register b: %v", err)
	}

	a, err := repo.FindByLogin("a-user")
	if err != nil {
		t.Fatalf("find a: %v", err)
	}
	b, err := repo.FindByLogin("b-user")
	if err != nil {
		t.Fatalf("find b: %v", err)
	}
	if a.PasswordHash == b.PasswordHash {
		t.Fatal("same password must produce different hashes under different salts")
	}
	if !security.VerifyPassword("12345678", a.PasswordSalt, a.PasswordHash) {
		t.Fatal("stored hash must verify against stored salt")
	}
}

type countingUserRepo struct {
	*inMemoryUserRepo
	lookups int
}

func (r *countingUserRepo) FindByLoginOrEmail(identifier string) (*domain.User, error) {
	r.lookups++
	return r.inMemoryUserRepo.FindByLoginOrEmail(identifier)
}

func TestCheckCredentialsCachesUnknownIdentifiers(t *testing.T) {
	repo := &countingUserRepo{inMemoryUserRepo: newInMemoryUserRepo()}
	sender := &recordingSender{}
	svc := NewAuthService(repo, sender, NewInMemoryUnknownIdentifierCache(), 24*time.Hour, 10*time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := svc.CheckCredentials("ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("probe %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if repo.lookups != 1 {
		t.Fatalf("expected 1 database lookup for repeated unknown identifier, got %d", repo.lookups)
	}
}

func TestRegistrationResetsUnknownIdentifierCache(t *testing.T) {
	repo := &countingUserRepo{inMemoryUserRepo: newInMemoryUserRepo()}
	sender := &recordingSender{}
	svc := NewAuthService(repo, sender, NewInMemoryUnknownIdentifierCache(), 24*time.Hour, 10*time.Minute)

	if _, err := svc.CheckCredentials("newbie", "12345678"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials before registration, got %v", err)
	}

	if err := svc.Register("newbie", "12345678", "newbie@example.com"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.ConfirmEmail(sender.lastCode(t)); err != nil {
		t.Fatalf("confirm email: %v", err)
	}

	user, err := svc.CheckCredentials("newbie", "12345678")
	if err != nil {
		t.Fatalf("expected login to succeed after registration, got %v", err)
	}
	if user.Login != "newbie" {
		t.Fatalf("unexpected user %+v", user)
	}
}
