// Package docs registers the OpenAPI document of the lock API with swag.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/lock/acquire": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Acquires the lock for namespace:business_id. Re-acquiring a lock already held by the same owner refreshes it and returns the existing lock id.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lock"],
                "summary": "Acquire a lock",
                "parameters": [
                    {
                        "description": "Lock acquisition request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.AcquireLockRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Lock acquired", "schema": {"$ref": "#/definitions/handlers.AcquireLockResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Lock held by another owner", "schema": {"$ref": "#/definitions/handlers.LockHeldResponse"}},
                    "500": {"description": "Backend Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/lock/heartbeat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Refreshes the expiry clock of the lock identified by lock_id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lock"],
                "summary": "Heartbeat a lock",
                "parameters": [
                    {
                        "description": "Heartbeat request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.LockIDRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Heartbeat recorded", "schema": {"$ref": "#/definitions/handlers.HeartbeatResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Lock not found or expired", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Backend Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/lock/release": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Releases the lock identified by lock_id",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["lock"],
                "summary": "Release a lock",
                "parameters": [
                    {
                        "description": "Release request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.LockIDRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Lock released", "schema": {"$ref": "#/definitions/handlers.ReleaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Lock not found or not owned", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Backend Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/lock/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the live lock for namespace:business_id",
                "produces": ["application/json"],
                "tags": ["lock"],
                "summary": "Lock status",
                "parameters": [
                    {"type": "string", "default": "default", "description": "Namespace", "name": "namespace", "in": "query"},
                    {"type": "string", "description": "Business id", "name": "business_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Live lock", "schema": {"$ref": "#/definitions/handlers.LockStatusResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Lock not found or expired", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Backend Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AcquireLockRequest": {
            "type": "object",
            "properties": {
                "business_id": {"type": "string", "example": "order_001"},
                "namespace": {"type": "string", "example": "default"},
                "owner_id": {"type": "string", "example": "user123"},
                "owner_name": {"type": "string", "example": "Alice"},
                "timeout": {"type": "integer", "example": 60}
            }
        },
        "handlers.AcquireLockResponse": {
            "type": "object",
            "properties": {
                "lock_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"},
                "reentrant": {"type": "boolean", "example": false}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "LOCK_NOT_FOUND"},
                "message": {"type": "string", "example": "lock not found or expired"}
            }
        },
        "handlers.HeartbeatResponse": {
            "type": "object",
            "properties": {
                "updated": {"type": "boolean", "example": true}
            }
        },
        "handlers.LockHeldResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "LOCK_HELD"},
                "current_holder": {"type": "string", "example": "Alice"},
                "current_holder_id": {"type": "string", "example": "user123"},
                "locked_at": {"type": "string", "example": "2025-07-13T13:34:56Z"},
                "message": {"type": "string", "example": "Lock already held by Alice"}
            }
        },
        "handlers.LockIDRequest": {
            "type": "object",
            "properties": {
                "lock_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"}
            }
        },
        "handlers.LockStatusResponse": {
            "type": "object",
            "properties": {
                "acquired_at": {"type": "string"},
                "business_id": {"type": "string"},
                "expires_at": {"type": "string"},
                "last_heartbeat_at": {"type": "string"},
                "lock_id": {"type": "string"},
                "namespace": {"type": "string"},
                "owner_id": {"type": "string"},
                "owner_name": {"type": "string"},
                "timeout_seconds": {"type": "integer"}
            }
        },
        "handlers.ReleaseResponse": {
            "type": "object",
            "properties": {
                "released": {"type": "boolean", "example": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and an API key.",
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Lock Service API",
	Description:      "Distributed lock service: acquire, heartbeat and release named locks with automatic expiry.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
