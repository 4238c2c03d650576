package container

import (
	"github.com/inkwell/publisher/cmd/publisher/repository"
	"github.com/inkwell/publisher/cmd/publisher/service"
	"github.com/inkwell/publisher/common/bootstrap"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	UserRepo *repository.UserRepository
	PostRepo *repository.PostRepository
	TagRepo  *repository.TagRepository

	// Services
	UserService *service.UserService
	TagService  *service.TagService
	PostService *service.PostService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(components.DB)
	postRepo := repository.NewPostRepository(components.DB)
	tagRepo := repository.NewTagRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	userService := service.NewUserService(userRepo, components.Config.Auth, components.Logger)
	tagService := service.NewTagService(tagRepo, components.Logger)
	postService := service.NewPostService(
		postRepo,
		tagService,
		components.Cache,
		components.Config.Cache.DefaultTTL,
		components.Logger,
	)

	return &Container{
		Components:  components,
		UserRepo:    userRepo,
		PostRepo:    postRepo,
		TagRepo:     tagRepo,
		UserService: userService,
		TagService:  tagService,
		PostService: postService,
	}, nil
}
