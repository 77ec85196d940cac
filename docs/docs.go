// Package docs holds the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Create an account", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.SignUpRequest"}}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/confirm": {"post": {"tags": ["auth"], "summary": "Confirm an email address", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login user", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout user", "responses": {"200": {"description": "OK"}}}},
        "/auth/reset-password": {"post": {"tags": ["auth"], "summary": "Request a password reset link", "responses": {"200": {"description": "OK"}}}},
        "/auth/recover": {"post": {"tags": ["auth"], "summary": "Exchange a recovery or magic link for a session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "OK"}}}, "put": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Update the signed-in user", "responses": {"200": {"description": "OK"}}}},
        "/me/registrations": {"get": {"security": [{"BearerAuth": []}], "tags": ["registrations"], "summary": "List the signed-in user's registrations", "responses": {"200": {"description": "OK"}}}},
        "/guard": {"get": {"tags": ["auth"], "summary": "Evaluate access to a frontend screen", "parameters": [{"type": "string", "name": "path", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/courses": {"get": {"tags": ["courses"], "summary": "List published courses", "parameters": [{"type": "string", "name": "category", "in": "query"}, {"type": "string", "name": "level", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/courses/{slug}": {"get": {"tags": ["courses"], "summary": "Get a published course", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/courses/{id}/registrations": {"post": {"tags": ["registrations"], "summary": "Register one participant for a course", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}}}},
        "/courses/{id}/group-registrations": {"post": {"tags": ["registrations"], "summary": "Register a company group for a course", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/testimonials": {"get": {"tags": ["testimonials"], "summary": "List published testimonials", "responses": {"200": {"description": "OK"}}}},
        "/settings": {"get": {"tags": ["settings"], "summary": "All site settings keyed by name", "responses": {"200": {"description": "OK"}}}},
        "/admin/courses": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List all courses", "responses": {"200": {"description": "OK"}}}, "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create a course or template", "responses": {"201": {"description": "Created"}}}},
        "/admin/courses/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Get any course", "responses": {"200": {"description": "OK"}}}, "put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Replace a course's editable fields", "responses": {"200": {"description": "OK"}}}, "delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete a course", "responses": {"204": {"description": "No Content"}}}},
        "/admin/courses/{id}/from-template": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Schedule a course from a template", "responses": {"201": {"description": "Created"}}}},
        "/admin/courses/{id}/publish": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Publish or unpublish a course", "responses": {"200": {"description": "OK"}}}},
        "/admin/courses/{id}/registrations": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List a course's registrations with status counts", "responses": {"200": {"description": "OK"}}}},
        "/admin/registrations": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List registrations across courses", "responses": {"200": {"description": "OK"}}}},
        "/admin/registrations/{id}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Change a registration's status or payment status", "responses": {"200": {"description": "OK"}}}, "delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete a registration", "responses": {"204": {"description": "No Content"}}}},
        "/admin/testimonials": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List all testimonials", "responses": {"200": {"description": "OK"}}}, "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create a testimonial", "responses": {"201": {"description": "Created"}}}},
        "/admin/testimonials/{id}": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Replace a testimonial", "responses": {"200": {"description": "OK"}}}, "delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete a testimonial", "responses": {"204": {"description": "No Content"}}}},
        "/admin/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List users with their roles", "responses": {"200": {"description": "OK"}}}},
        "/admin/users/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Get user by ID", "responses": {"200": {"description": "OK"}}}},
        "/admin/users/{id}/role": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Assign a role", "responses": {"200": {"description": "OK"}}}},
        "/admin/settings/{key}": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create or replace a site setting", "responses": {"200": {"description": "OK"}}}},
        "/admin/media": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["admin"], "summary": "Upload an object", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/admin/seed": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Seed courses, settings and testimonials", "responses": {"200": {"description": "OK"}}}},
        "/instructor/courses/{id}/registrations": {"get": {"security": [{"BearerAuth": []}], "tags": ["instructor"], "summary": "List a course's registrations", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.SignUpRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "company": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "password": {"type": "string", "maxLength": 72, "minLength": 8},
                "phone": {"type": "string"},
                "redirect_to": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Agile Coach API",
	Description:      "Course catalog, registrations and back-office administration for an agile coaching business.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
