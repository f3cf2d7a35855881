package adaptor

import (
	"contacts-api/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Contact *ContactHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, service.User, log),
		User:    NewUserHandler(service.User, log),
		Contact: NewContactHandler(service.Contact, log),
	}
}
