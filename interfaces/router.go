package interfaces

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var registerTagNames sync.Once

// NewRouter builds the gin engine with request id, access log and panic
// recovery, and mounts the API under basePath.
func NewRouter(deps Dependencies, basePath string, logger *zap.Logger) *gin.Engine {
	registerTagNames.Do(func() {
		// Report validation errors by JSON field name.
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})

	router := gin.New()
	router.Use(RequestID(logger), AccessLog(), Recovery())

	NewHTTPHandler(router.Group("/"+strings.Trim(basePath, "/")), deps)
	return router
}
