package httpapi

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

// rawSpec returns the embedded OpenAPI document bytes.
func rawSpec() []byte { return specYAML }

var (
	docOnce sync.Once
	doc     *openapi3.T
	docErr  error
)

// Doc parses and validates the embedded OpenAPI document. The result
// is cached; the document cannot change at runtime.
func Doc() (*openapi3.T, error) {
	docOnce.Do(func() {
		ctx := context.Background()
		loader := &openapi3.Loader{Context: ctx}
		parsed, err := loader.LoadFromData(specYAML)
		if err != nil {
			docErr = fmt.Errorf("parse openapi document: %w", err)
			return
		}
		if err := parsed.Validate(ctx); err != nil {
			docErr = fmt.Errorf("validate openapi document: %w", err)
			return
		}
		doc = parsed
	})
	return doc, docErr
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Easel API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
