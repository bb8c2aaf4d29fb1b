// Package docs holds the Swagger 2.0 document served at /swagger/*any.
//
// The template follows the layout swag emits from the annotations in
// cmd/survey and internal/http/handlers, but this copy is maintained by hand.
// Running `go generate ./cmd/survey` with the swag CLI installed overwrites it
// with a generated one. router_test checks that every API route is listed.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/test-data": {
            "post": {
                "description": "Inserts count synthetic submissions with random answers, concurrently. Only available in test mode. Partial failure is reported in aggregate.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Generate test submissions",
                "operationId": "seedTestData",
                "parameters": [
                    {"maximum": 1000, "minimum": 1, "type": "integer", "default": 10, "description": "Number of records", "name": "count", "in": "query"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SeedResponse"}},
                    "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/handlers.SeedResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Test mode disabled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Every insert failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/qr": {
            "get": {
                "description": "Renders the configured public survey URL as a PNG QR code (error correction High). download=1 sends it as an attachment named survey-qr.png.",
                "produces": ["image/png"],
                "tags": ["Survey"],
                "summary": "QR code for the survey",
                "operationId": "getQR",
                "parameters": [
                    {"maximum": 2048, "minimum": 64, "type": "integer", "default": 200, "description": "Pixels per side", "name": "size", "in": "query"},
                    {"type": "boolean", "description": "Send as attachment", "name": "download", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "PNG image", "schema": {"type": "file"}},
                    "500": {"description": "QR generation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Aggregates every stored submission: per-question average, median, mode, standard deviation and distribution, overall average, respondent counts and comments. state is \"no_data\" when nothing has been submitted. Supports weak ETag via If-None-Match.",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Statistics dashboard",
                "operationId": "getStats",
                "parameters": [
                    {"type": "boolean", "description": "Include test submissions", "name": "include_test", "in": "query"},
                    {"type": "string", "example": "W/\"surveys-12-1738555506789-0\"", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Dashboard"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current data"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Load failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Storage timeout", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/stats/comments": {
            "get": {
                "description": "Ranks the free-text suggestions against q by word overlap and returns the best k.",
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Search comments",
                "operationId": "searchComments",
                "parameters": [
                    {"type": "string", "example": "horario flexible", "description": "Search text", "name": "q", "in": "query", "required": true},
                    {"maximum": 50, "minimum": 1, "type": "integer", "default": 5, "description": "Max results", "name": "k", "in": "query"},
                    {"type": "boolean", "description": "Include test submissions", "name": "include_test", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CommentsResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Load failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/survey/questions": {
            "get": {
                "description": "Returns the localized questions, comment prompt and scale. The language is taken from ?lang= or Accept-Language; Spanish is the default.",
                "produces": ["application/json"],
                "tags": ["Survey"],
                "summary": "Get the questionnaire",
                "operationId": "getQuestions",
                "parameters": [
                    {"type": "string", "example": "en", "description": "Language tag", "name": "lang", "in": "query"},
                    {"type": "string", "example": "es-ES,es;q=0.9", "description": "Preferred languages", "name": "Accept-Language", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Catalog"}}
                }
            }
        },
        "/survey/status": {
            "get": {
                "description": "Runs the duplicate check for the caller's device. state is \"blocked\" when the device already submitted outside test mode. A failed check fails open and reports gate_warning.",
                "produces": ["application/json"],
                "tags": ["Survey"],
                "summary": "Check whether this device may answer",
                "operationId": "getSurveyStatus",
                "parameters": [
                    {"type": "string", "example": "3f0c2b7e-device", "description": "Stable device id chosen by the client", "name": "X-Device-ID", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Status"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/surveys": {
            "post": {
                "description": "Validates and stores ten answers plus an optional comment. Outside test mode the device is then blocked from submitting again.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Survey"],
                "summary": "Submit the questionnaire",
                "operationId": "submitSurvey",
                "parameters": [
                    {"type": "string", "example": "3f0c2b7e-device", "description": "Stable device id chosen by the client", "name": "X-Device-ID", "in": "header"},
                    {"type": "string", "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Answers", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SubmitSurveyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Idempotent replay", "schema": {"$ref": "#/definitions/handlers.SubmitSurveyResponse"}, "headers": {"Idempotency-Replayed": {"type": "string", "description": "true on replay"}}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SubmitSurveyResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Already submitted", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Submission failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Storage timeout", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Catalog": {
            "type": "object",
            "properties": {
                "comment": {"$ref": "#/definitions/domain.CommentPrompt"},
                "language": {"type": "string"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/domain.Question"}},
                "scale": {"$ref": "#/definitions/domain.Scale"},
                "subtitle": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "domain.CommentPrompt": {
            "type": "object",
            "properties": {
                "placeholder": {"type": "string"},
                "question": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "domain.Question": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "index": {"type": "integer"},
                "label": {"type": "string"},
                "question": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "domain.Scale": {
            "type": "object",
            "properties": {
                "max": {"type": "integer"},
                "max_label": {"type": "string"},
                "min": {"type": "integer"},
                "min_label": {"type": "string"}
            }
        },
        "handlers.CommentsResponse": {
            "type": "object",
            "properties": {
                "hits": {"type": "array", "items": {"$ref": "#/definitions/services.CommentHit"}},
                "query": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "validation_failed"},
                "message": {"type": "string", "example": "step 4: score out of range"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "step": {"type": "integer", "example": 3}
            }
        },
        "handlers.SeedResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "failed": {"type": "integer", "example": 0},
                "ids": {"type": "array", "items": {"type": "string"}},
                "inserted": {"type": "integer", "example": 10},
                "requested": {"type": "integer", "example": 10}
            }
        },
        "handlers.SubmitSurveyRequest": {
            "type": "object",
            "properties": {
                "answers": {"type": "array", "items": {"type": "string"}, "example": ["8", "7", "9", "6", "8", "7", "9", "8", "7", "8"]},
                "suggestions": {"type": "string", "example": "Más formación, por favor"}
            }
        },
        "handlers.SubmitSurveyResponse": {
            "type": "object",
            "properties": {
                "survey_id": {"type": "string", "example": "1738555506789-Kd8sPq2Zx"},
                "test_submission": {"type": "boolean", "example": false}
            }
        },
        "services.Comment": {
            "type": "object",
            "properties": {
                "survey_id": {"type": "string"},
                "test": {"type": "boolean"},
                "text": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "services.CommentHit": {
            "type": "object",
            "properties": {
                "score": {"type": "number"},
                "survey_id": {"type": "string"},
                "test": {"type": "boolean"},
                "text": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "services.Dashboard": {
            "type": "object",
            "properties": {
                "comments": {"type": "array", "items": {"$ref": "#/definitions/services.Comment"}},
                "generated_at": {"type": "string"},
                "include_test": {"type": "boolean"},
                "skipped": {"type": "integer"},
                "state": {"type": "string"},
                "summary": {"$ref": "#/definitions/stats.Summary"}
            }
        },
        "services.Status": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "gate_warning": {"type": "string"},
                "state": {"type": "string"},
                "test_mode": {"type": "boolean"}
            }
        },
        "stats.QuestionStats": {
            "type": "object",
            "properties": {
                "average": {"type": "number"},
                "distribution": {"type": "array", "items": {"type": "integer"}},
                "index": {"type": "integer"},
                "label": {"type": "string"},
                "median": {"type": "integer"},
                "mode": {"type": "integer"},
                "std_dev": {"type": "number"}
            }
        },
        "stats.Summary": {
            "type": "object",
            "properties": {
                "overall_average": {"type": "number"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/stats.QuestionStats"}},
                "total_responses": {"type": "integer"},
                "unique_respondents": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Employee Satisfaction Survey API",
	Description:      "Anonymous ten-question satisfaction survey with one submission per device, statistics dashboard and QR distribution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
