//go:build swagger

package httpapi

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "mtexp run browser",
        "description": "Read-only view of multitask training runs.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/runs": {"get": {"tags": ["runs"], "summary": "List recorded runs", "produces": ["application/json"],
            "responses": {"200": {"description": "OK"}}}},
        "/runs/{name}": {"get": {"tags": ["runs"], "summary": "Show one run manifest", "produces": ["application/json"],
            "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "run not found"}}}},
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "training"}}}}
    }
}`

// SwaggerInfo is registered with swag so the UI can fetch doc.json.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Title:            "mtexp run browser",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// swaggerUI serves the UI and doc.json of the run browser API.
func swaggerUI() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(swaggerDocPath))
}
