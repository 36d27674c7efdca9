package repository

import (
	"context"
	"errors"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/observability"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserListQuery struct {
	PageRequest
	SearchLogin string
	SearchEmail string
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByLoginOrEmail(value string) (*domain.User, error)
	FindByLogin(login string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByConfirmationCode(code string) (*domain.User, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	Delete(id uint) (bool, error)
	ListPaged(query UserListQuery) (PageResult[domain.User], error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

// FindByLoginOrEmail matches the credential identifier against either column.
// Matching is exact and case-sensitive.
func (r *GormUserRepository) FindByLoginOrEmail(value string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("login = ? OR email = ?", value, value).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_login_or_email", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByLogin(login string) (*domain.User, error) {
	return r.findOne("login = ?", login, "find_by_login")
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findOne("email = ?", email, "find_by_email")
}

func (r *GormUserRepository) FindByConfirmationCode(code string) (*domain.User, error) {
	return r.findOne("confirmation_code = ?", code, "find_by_confirmation_code")
}

func (r *GormUserRepository) findOne(cond string, arg any, op string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where(cond, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", op, "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", op, "success")
	return &u, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	err := r.db.Save(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}

func (r *GormUserRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&domain.User{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "delete", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "user", "delete", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "delete", "success")
	return true, nil
}

func (r *GormUserRepository) ListPaged(query UserListQuery) (PageResult[domain.User], error) {
	req := normalizePageRequest(query.PageRequest)
	result := PageResult[domain.User]{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	base := r.db.Model(&domain.User{})
	switch {
	case query.SearchLogin != "" && query.SearchEmail != "":
		base = base.Where("login LIKE ? OR email LIKE ?", "%"+query.SearchLogin+"%", "%"+query.SearchEmail+"%")
	case query.SearchLogin != "":
		base = base.Where("login LIKE ?", "%"+query.SearchLogin+"%")
	case query.SearchEmail != "":
		base = base.Where("email LIKE ?", "%"+query.SearchEmail+"%")
	}

	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	err := base.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "user", "list_paged", "success")
	return result, nil
}
