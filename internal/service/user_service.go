package service

import (
	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/repository"
)

// UserService backs the basic-auth admin surface. Users created here skip the
// email confirmation flow.
type UserService struct {
	users repository.UserRepository
	auth  *AuthService
}

func NewUserService(users repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{users: users, auth: auth}
}

func (s *UserService) List(query repository.UserListQuery) (repository.PageResult[domain.User], error) {
	return s.users.ListPaged(query)
}

// CreateConfirmed provisions a user that can log in immediately.
func (s *UserService) CreateConfirmed(login, password, email string) (*domain.User, error) {
	if err := s.auth.checkIdentifiersFree(login, email); err != nil {
		return nil, err
	}
	user, err := newUser(login, password, email)
	if err != nil {
		return nil, err
	}
	user.EmailConfirmed = true
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	s.auth.forgetUnknownIdentifiers()
	return user, nil
}

func (s *UserService) Delete(id uint) (bool, error) {
	return s.users.Delete(id)
}

func (s *UserService) GetByID(id uint) (*domain.User, error) {
	return s.users.FindByID(id)
}
