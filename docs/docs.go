// Package docs holds the OpenAPI document served under /swagger. It follows
// swag's output layout and mirrors the handler annotations; run
// `swag init -g cmd/server/main.go` after changing them.
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
		"/api/auth/login": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Login",
				"parameters": [
					{
						"description": "Login credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.loginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"423": {
						"description": "Locked",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					}
				}
			}
		},
		"/api/auth/register": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Register a new user",
				"parameters": [
					{
						"description": "User registration details",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.registerRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/ports.AuthResult"
						}
					}
				}
			}
		},
		"/api/dashboard/admin-data": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"dashboard"
				],
				"summary": "Admin dashboard data",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.MessageResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/notes": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notes"
				],
				"summary": "List notes",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/ports.NoteView"
							}
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notes"
				],
				"summary": "Create note",
				"parameters": [
					{
						"description": "Note",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.noteRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/ports.NoteView"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/notes/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"notes"
				],
				"summary": "Get note",
				"parameters": [
					{
						"type": "string",
						"description": "Note ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.NoteView"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"tags": [
					"notes"
				],
				"summary": "Update note",
				"parameters": [
					{
						"type": "string",
						"description": "Note ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Note",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.noteRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"notes"
				],
				"summary": "Delete note",
				"parameters": [
					{
						"type": "string",
						"description": "Note ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/tasks": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "List tasks",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/ports.TaskView"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "Create task",
				"parameters": [
					{
						"description": "Task",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createTaskRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/ports.TaskView"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/tasks/my-tasks": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "List my tasks",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/ports.TaskView"
							}
						}
					}
				}
			}
		},
		"/api/tasks/urgency-levels": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "List urgency levels",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/tasks/users": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "List assignable users",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.UserSummary"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/tasks/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "Get task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/ports.TaskView"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "Update task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Task",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateTaskRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"tasks"
				],
				"summary": "Delete task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/tasks/{id}/comments": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "Comment on task",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Comment",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.commentRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/ports.CommentView"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/tasks/{id}/status": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"tags": [
					"tasks"
				],
				"summary": "Update task status",
				"parameters": [
					{
						"type": "string",
						"description": "Task ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Status",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateStatusRequest"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/user/profile": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"user"
				],
				"summary": "Current user profile",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.ProfileResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/api/user/user-specific-data": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"user"
				],
				"summary": "User-only data",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.MessageResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"domain.UserSummary": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"handler.ErrorResponse": {
			"type": "object",
			"properties": {
				"details": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"error": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				}
			}
		},
		"handler.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"handler.ProfileResponse": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"roles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"userId": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"handler.commentRequest": {
			"type": "object",
			"required": [
				"text"
			],
			"properties": {
				"text": {
					"type": "string",
					"maxLength": 500,
					"minLength": 1
				}
			}
		},
		"handler.createTaskRequest": {
			"type": "object",
			"required": [
				"assignedToUserId",
				"title",
				"urgency"
			],
			"properties": {
				"assignedToUserId": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"maxLength": 500
				},
				"dueDate": {
					"type": "string"
				},
				"title": {
					"type": "string",
					"maxLength": 100,
					"minLength": 3
				},
				"urgency": {
					"type": "string",
					"enum": [
						"Low",
						"Medium",
						"High"
					]
				}
			}
		},
		"handler.loginRequest": {
			"type": "object",
			"required": [
				"password",
				"usernameOrEmail"
			],
			"properties": {
				"password": {
					"type": "string"
				},
				"usernameOrEmail": {
					"type": "string"
				}
			}
		},
		"handler.noteRequest": {
			"type": "object",
			"required": [
				"title"
			],
			"properties": {
				"description": {
					"type": "string",
					"maxLength": 1000
				},
				"title": {
					"type": "string",
					"maxLength": 100,
					"minLength": 1
				}
			}
		},
		"handler.registerRequest": {
			"type": "object",
			"required": [
				"email",
				"password",
				"username"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"username": {
					"type": "string",
					"maxLength": 50,
					"minLength": 3
				}
			}
		},
		"handler.updateStatusRequest": {
			"type": "object",
			"required": [
				"status"
			],
			"properties": {
				"status": {
					"type": "string",
					"enum": [
						"Assigned",
						"InProgress",
						"Completed",
						"Blocked"
					]
				},
				"version": {
					"type": "integer",
					"minimum": 0
				}
			}
		},
		"handler.updateTaskRequest": {
			"type": "object",
			"required": [
				"assignedToUserId",
				"title",
				"urgency"
			],
			"properties": {
				"assignedToUserId": {
					"type": "string"
				},
				"description": {
					"type": "string",
					"maxLength": 500
				},
				"dueDate": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"Assigned",
						"InProgress",
						"Completed",
						"Blocked"
					]
				},
				"title": {
					"type": "string",
					"maxLength": 100,
					"minLength": 3
				},
				"urgency": {
					"type": "string",
					"enum": [
						"Low",
						"Medium",
						"High"
					]
				},
				"version": {
					"type": "integer",
					"minimum": 0
				}
			}
		},
		"ports.AuthResult": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"errors": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"identityId": {
					"type": "string"
				},
				"isSuccess": {
					"type": "boolean"
				},
				"message": {
					"type": "string"
				},
				"roles": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"token": {
					"type": "string"
				},
				"username": {
					"type": "string"
				}
			}
		},
		"ports.CommentView": {
			"type": "object",
			"properties": {
				"authorId": {
					"type": "string"
				},
				"authorUserName": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"taskId": {
					"type": "string"
				},
				"text": {
					"type": "string"
				}
			}
		},
		"ports.NoteView": {
			"type": "object",
			"properties": {
				"createdAt": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"ports.TaskView": {
			"type": "object",
			"properties": {
				"assignedToUserEmail": {
					"type": "string"
				},
				"assignedToUserId": {
					"type": "string"
				},
				"assignedToUserName": {
					"type": "string"
				},
				"comments": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/ports.CommentView"
					}
				},
				"createdAt": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"dueDate": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				},
				"urgency": {
					"type": "string"
				},
				"version": {
					"type": "integer"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Task System API",
	Description:      "Role-based task management: registration, login, task assignment and personal notes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
