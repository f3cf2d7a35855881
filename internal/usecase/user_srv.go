package usecase

import (
	"context"
	"errors"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository"
	"contacts-api/internal/dto/request"
	"contacts-api/internal/dto/response"
	"contacts-api/pkg/utils"

	"go.uber.org/zap"
)

type UserService interface {
	Me(ctx context.Context, identity *entity.User) *response.UserResponse
	UpdateMe(ctx context.Context, identity *entity.User, req *request.UpdateMeRequest) (*response.UserResponse, error)

	Dashboard(ctx context.Context) (*response.DashboardResponse, error)
	ListUsers(ctx context.Context, req request.ListUsersRequest) (*response.PaginatedResponse[response.UserResponse], error)
	GetUser(ctx context.Context, userID int64) (*response.UserResponse, error)
	UpdateUser(ctx context.Context, userID int64, req *request.AdminUpdateUserRequest) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, actor *entity.User, userID int64) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	cache    *cached.EntityCache
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, cache *cached.EntityCache, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		cache:    cache,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) Me(_ context.Context, identity *entity.User) *response.UserResponse {
	resp := response.UserToResponse(identity)
	return &resp
}

// UpdateMe changes the caller's email and/or password. A new email makes the
// current token's subject stale, so the caller has to log in again.
func (us *userService) UpdateMe(ctx context.Context, identity *entity.User, req *request.UpdateMeRequest) (*response.UserResponse, error) {
	return us.update(ctx, identity.ID, userChanges{
		email:    req.Email,
		password: req.Password,
	})
}

func (us *userService) Dashboard(ctx context.Context) (*response.DashboardResponse, error) {
	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, "Failed to load dashboard")
	}

	admins, err := us.userRepo.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		us.log.Error("Failed to count admins", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, "Failed to load dashboard")
	}

	regular, err := us.userRepo.CountByRole(ctx, entity.RoleUser)
	if err != nil {
		us.log.Error("Failed to count regular users", zap.Error(err))
		return nil, newError(ErrStoreUnavailable, "Failed to load dashboard")
	}

	return &response.DashboardResponse{
		TotalUsers:   total,
		AdminUsers:   admins,
		RegularUsers: regular,
	}, nil
}

func (us *userService) ListUsers(ctx context.Context, req request.ListUsersRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	skip, limit := utils.NormalizeSkipLimit(req.Skip, req.Limit)

	var (
		users []*entity.User
		total int64
		err   error
	)

	if req.Role != "" {
		role := entity.UserRole(req.Role)
		if !role.Valid() {
			return nil, newError(ErrBadRequest, "Invalid role")
		}
		users, err = us.userRepo.FindByRole(ctx, role, skip, limit)
		if err == nil {
			total, err = us.userRepo.CountByRole(ctx, role)
		}
	} else {
		users, err = us.userRepo.FindAll(ctx, skip, limit)
		if err == nil {
			total, err = us.userRepo.CountAll(ctx)
		}
	}

	if err != nil {
		us.log.Error("Failed to get users",
			zap.Error(err),
			zap.Int("skip", skip),
			zap.Int("limit", limit),
			zap.String("role", req.Role),
		)
		return nil, newError(ErrStoreUnavailable, "Failed to get users")
	}

	us.log.Info("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("skip", skip),
		zap.Int("limit", limit),
	)

	return response.NewPaginatedResponse(response.UsersToResponse(users), skip, limit, total), nil
}

// GetUser reads through the user:<id> key.
func (us *userService) GetUser(ctx context.Context, userID int64) (*response.UserResponse, error) {
	if user, ok := us.cache.UserByID(ctx, userID); ok {
		resp := response.UserToResponse(user)
		return &resp, nil
	}

	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to get user")
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}

	us.cache.PutUserByID(ctx, user)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateUser(ctx context.Context, userID int64, req *request.AdminUpdateUserRequest) (*response.UserResponse, error) {
	changes := userChanges{
		email:      req.Email,
		password:   req.Password,
		isActive:   req.IsActive,
		isVerified: req.IsVerified,
	}
	if req.Role != nil {
		role := entity.UserRole(*req.Role)
		if !role.Valid() {
			return nil, newError(ErrBadRequest, "Invalid role")
		}
		changes.role = &role
	}

	return us.update(ctx, userID, changes)
}

// DeleteUser refuses to delete the acting admin before touching the store.
func (us *userService) DeleteUser(ctx context.Context, actor *entity.User, userID int64) (*response.UserResponse, error) {
	if err := RequireNotSelf(actor, userID); err != nil {
		return nil, err
	}

	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to get user for delete", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to delete user")
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}

	if err := us.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			us.cache.InvalidateUser(ctx, userID, user.Email)
			return nil, newError(ErrNotFound, "User not found")
		}
		us.log.Error("Failed to delete user", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to delete user")
	}

	us.cache.InvalidateUser(ctx, userID, user.Email)

	us.log.Info("User deleted", zap.Int64("user_id", userID), zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &resp, nil
}

type userChanges struct {
	email      *string
	password   *string
	isActive   *bool
	isVerified *bool
	role       *entity.UserRole
}

func (us *userService) update(ctx context.Context, userID int64, changes userChanges) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to load user for update", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to update user")
	}
	if user == nil {
		return nil, newError(ErrNotFound, "User not found")
	}

	oldEmail := user.Email

	if changes.email != nil && *changes.email != user.Email {
		existing, err := us.userRepo.FindByEmail(ctx, *changes.email)
		if err != nil {
			us.log.Error("Failed to check email", zap.Error(err), zap.String("email", *changes.email))
			return nil, newError(ErrStoreUnavailable, "Failed to update user")
		}
		if existing != nil && existing.ID != user.ID {
			return nil, newError(ErrConflict, "Email already registered")
		}
		user.Email = *changes.email
	}

	if changes.password != nil {
		hash, err := utils.HashPassword(*changes.password)
		if err != nil {
			us.log.Error("Failed to hash password", zap.Error(err))
			return nil, newError(ErrBadRequest, "Failed to process password")
		}
		user.PasswordHash = hash
	}
	if changes.isActive != nil {
		user.IsActive = *changes.isActive
	}
	if changes.isVerified != nil {
		user.IsVerified = *changes.isVerified
	}
	if changes.role != nil {
		user.Role = *changes.role
	}

	if err := us.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrConflict, "Email already registered")
		case errors.Is(err, repository.ErrNoRowsAffected):
			us.cache.InvalidateUser(ctx, userID, oldEmail)
			return nil, newError(ErrNotFound, "User not found")
		}
		us.log.Error("Failed to update user", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to update user")
	}

	us.cache.InvalidateUser(ctx, userID, user.Email, oldEmail)

	us.log.Info("User updated", zap.Int64("user_id", userID))

	resp := response.UserToResponse(user)
	return &resp, nil
}
