package server

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/medilive-templui/assets"
)

// SetupAssets configures static asset serving for the Gin router
func SetupAssets(r *gin.Engine) error {
	for _, dir := range []string{"css", "static"} {
		if _, err := fs.Stat(assets.Assets, dir); err != nil {
			return err
		}
	}
	r.StaticFS("/assets", http.FS(assets.Assets))
	return nil
}
