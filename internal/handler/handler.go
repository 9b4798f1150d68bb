package handlers

import (
	"embed"
	"html/template"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"styleGallery/internal/config"
	"styleGallery/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

type Handlers struct {
	PostService  service.PostService
	TryOnService service.TryOnService
	Cfg          *config.Config
	Validate     *validator.Validate
	Log          *zap.Logger
	Pages        *template.Template
}

func NewHandlers(service *service.Service, config *config.Config, log *zap.Logger) *Handlers {
	return &Handlers{
		PostService:  service.Post,
		TryOnService: service.TryOn,
		Cfg:          config,
		Validate:     validator.New(),
		Log:          log,
		Pages:        ParsePages(),
	}
}

func ParsePages() *template.Template {
	return template.Must(template.New("pages").
		Funcs(template.FuncMap{"imageURL": ImageURL}).
		ParseFS(templateFS, "templates/*.html"))
}
