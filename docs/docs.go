// Package docs holds the OpenAPI description served at /swagger. It follows
// the layout produced by swag init; regenerate with
// `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/auth/register": {
            "post": {
                "description": "Always creates a regular user; any requested role is ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Revokes the presented access token until it expires.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout user",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Regular users only see their own tickets whatever user_id says.",
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "List tickets, newest first",
                "parameters": [
                    {"type": "integer", "description": "Owner id (admins only)", "name": "user_id", "in": "query"},
                    {"enum": ["open", "in_progress", "pending_llm", "pending_human", "resolved", "closed"], "type": "string", "description": "Status", "name": "status", "in": "query"},
                    {"type": "boolean", "description": "Resolved flag", "name": "is_resolved", "in": "query"},
                    {"enum": ["llm", "human", "none"], "type": "string", "description": "Responder", "name": "responded_by", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Page size, 1 to 500", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Ticket"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Create a ticket",
                "parameters": [
                    {"description": "Ticket query, at least 10 characters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateTicketRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Get a ticket",
                "parameters": [
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Ticket"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Admins may change every field. Owners may only set user_satisfied; other fields they send are ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Partially update a ticket",
                "parameters": [
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateTicketRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Ticket statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TicketStats"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "maxLength": 100},
                "full_name": {"type": "string", "maxLength": 100},
                "password": {"type": "string", "maxLength": 72, "minLength": 6},
                "role": {"type": "string"},
                "username": {"type": "string", "maxLength": 50, "minLength": 3}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "handler.UserResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "id": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "role": {"type": "string", "enum": ["user", "admin"]},
                "username": {"type": "string"}
            }
        },
        "handler.CreateTicketRequest": {
            "type": "object",
            "required": ["query"],
            "properties": {
                "query": {"type": "string"}
            }
        },
        "handler.UpdateTicketRequest": {
            "type": "object",
            "properties": {
                "final_response": {"type": "string"},
                "is_resolved": {"type": "boolean"},
                "llm_response": {"type": "string"},
                "responded_by": {"type": "string", "enum": ["llm", "human", "none"]},
                "status": {"type": "string", "enum": ["open", "in_progress", "pending_llm", "pending_human", "resolved", "closed"]},
                "user_satisfied": {"type": "boolean"}
            }
        },
        "model.Ticket": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "final_response": {"type": "string"},
                "id": {"type": "integer"},
                "is_resolved": {"type": "boolean"},
                "llm_response": {"type": "string"},
                "query": {"type": "string"},
                "responded_by": {"type": "string", "enum": ["llm", "human", "none"]},
                "status": {"type": "string", "enum": ["open", "in_progress", "pending_llm", "pending_human", "resolved", "closed"]},
                "updated_at": {"type": "string"},
                "user_id": {"type": "integer"},
                "user_satisfied": {"type": "boolean"},
                "username": {"type": "string"}
            }
        },
        "model.TicketStats": {
            "type": "object",
            "properties": {
                "resolved_tickets": {"type": "integer"},
                "response_types": {"type": "object", "additionalProperties": {"type": "integer"}},
                "tickets_by_status": {"type": "object", "additionalProperties": {"type": "integer"}},
                "total_tickets": {"type": "integer"},
                "total_users": {"type": "integer"},
                "user_satisfaction": {
                    "type": "object",
                    "properties": {
                        "no_response": {"type": "integer"},
                        "satisfied": {"type": "integer"},
                        "unsatisfied": {"type": "integer"}
                    }
                }
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
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "HelpHub API",
	Description:      "Support ticketing with role-based access and an assistant chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
