package http

import (
	"context"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="UTF-8">
  <title>GeoFotos Enrichment API - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.json',
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`

// openAPIPath is relative to the working directory of cmd/api.
var openAPIPath = "api/openapi.yaml"

// apiDoc loads and validates the OpenAPI document on first use.
type apiDoc struct {
	once sync.Once
	raw  []byte
	doc  *openapi3.T
	err  error
}

func (d *apiDoc) load() ([]byte, *openapi3.T, error) {
	d.once.Do(func() {
		d.raw, d.err = os.ReadFile(openAPIPath)
		if d.err != nil {
			return
		}
		loader := openapi3.NewLoader()
		d.doc, d.err = loader.LoadFromData(d.raw)
		if d.err != nil {
			return
		}
		d.err = d.doc.Validate(context.Background())
	})
	return d.raw, d.doc, d.err
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI document at
// /docs/openapi.yaml and /docs/openapi.json.
func SetupDocs(app *fiber.App) {
	spec := &apiDoc{}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		raw, _, err := spec.load()
		if os.IsNotExist(err) {
			return errNotFound(c, "openapi.yaml not found")
		}
		if err != nil {
			return errInternal(c, "invalid OpenAPI document: "+err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(raw)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		_, doc, err := spec.load()
		if os.IsNotExist(err) {
			return errNotFound(c, "openapi.yaml not found")
		}
		if err != nil {
			return errInternal(c, "invalid OpenAPI document: "+err.Error())
		}
		return c.JSON(doc)
	})
}
