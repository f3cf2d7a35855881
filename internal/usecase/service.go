package usecase

import (
	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/repository"
	"contacts-api/pkg/mailer"
	"contacts-api/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Identity *IdentityResolver
	Auth     AuthService
	User     UserService
	Contact  ContactService
}

func NewService(
	repo *repository.Repository,
	entityCache *cached.EntityCache,
	tokens TokenIssuer,
	mail mailer.Mailer,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Identity: NewIdentityResolver(tokens, repo.User, entityCache, log),
		Auth:     NewAuthService(repo, entityCache, tokens, mail, config, log),
		User:     NewUserService(repo.User, entityCache, log),
		Contact:  NewContactService(repo.Contact, entityCache, log),
	}
}
