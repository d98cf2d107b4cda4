// Package docs holds the OpenAPI documents served by each service's
// swagger UI. Regenerate with `swag init` when handler annotations change.
package docs

import "github.com/swaggo/swag"

// Instance names passed to ginSwagger.InstanceName.
const (
	EmbeddingInstance = "embedding"
	IngestingInstance = "ingesting"
	RetrieverInstance = "retriever"
)

const commonDefinitions = `
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        }`

const healthPaths = `
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Welcome message",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }`

const fileParam = `[{"type": "file", "description": "Image file", "name": "file", "in": "formData", "required": true}]`

const errorRef = `{"$ref": "#/definitions/handler.ErrorResponse"}`

const embeddingTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {` + healthPaths + `,
        "/embed": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["embedding"],
                "summary": "Compute image embedding",
                "parameters": ` + fileParam + `,
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "number"}}},
                    "400": {"description": "Bad Request", "schema": ` + errorRef + `},
                    "422": {"description": "Unprocessable Entity", "schema": ` + errorRef + `},
                    "500": {"description": "Internal Server Error", "schema": ` + errorRef + `}
                }
            }
        }
    },
    "definitions": {` + commonDefinitions + `
    }
}`

const ingestingTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {` + healthPaths + `,
        "/push_image": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["ingesting"],
                "summary": "Ingest an image",
                "parameters": ` + fileParam + `,
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.PushResult"}},
                    "400": {"description": "Bad Request", "schema": ` + errorRef + `},
                    "422": {"description": "Unprocessable Entity", "schema": ` + errorRef + `},
                    "500": {"description": "Internal Server Error", "schema": ` + errorRef + `}
                }
            }
        }
    },
    "definitions": {` + commonDefinitions + `,
        "service.PushResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "file_id": {"type": "string"},
                "gcs_path": {"type": "string"},
                "signed_url": {"type": "string"}
            }
        }
    }
}`

const retrieverTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {` + healthPaths + `,
        "/search_image": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["retriever"],
                "summary": "Search similar images",
                "parameters": ` + fileParam + `,
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": ` + errorRef + `},
                    "422": {"description": "Unprocessable Entity", "schema": ` + errorRef + `}
                }
            }
        }
    },
    "definitions": {` + commonDefinitions + `
    }
}`

// EmbeddingInfo holds exported Swagger Info for the embedding service
var EmbeddingInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ViT-MSN Embedding Service",
	Description:      "Turns an image into a fixed-length feature vector.",
	InfoInstanceName: EmbeddingInstance,
	SwaggerTemplate:  embeddingTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// IngestingInfo holds exported Swagger Info for the ingesting service
var IngestingInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ingesting Service",
	Description:      "Stores an image, indexes its feature vector and returns a signed URL.",
	InfoInstanceName: IngestingInstance,
	SwaggerTemplate:  ingestingTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// RetrieverInfo holds exported Swagger Info for the retriever service
var RetrieverInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Retriever Service",
	Description:      "Returns signed URLs of the stored images most similar to a query image.",
	InfoInstanceName: RetrieverInstance,
	SwaggerTemplate:  retrieverTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(EmbeddingInfo.InstanceName(), EmbeddingInfo)
	swag.Register(IngestingInfo.InstanceName(), IngestingInfo)
	swag.Register(RetrieverInfo.InstanceName(), RetrieverInfo)
}
