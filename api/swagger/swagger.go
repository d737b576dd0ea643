package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Notes Approval API",
        "description": "Scored evaluation notes with a direction approval workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Notes", "description": "Evaluation note records"},
        {"name": "Workflow", "description": "Submission and review lifecycle"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/notes": {
            "post": {
                "tags": ["Notes"],
                "summary": "Record a new evaluation note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation error"},
                    "412": {"description": "No weighting configured"}
                }
            }
        },
        "/notes/pending": {
            "get": {
                "tags": ["Workflow"],
                "summary": "List notes awaiting review",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notes/{id}": {
            "get": {
                "tags": ["Notes"],
                "summary": "Fetch one note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Notes"],
                "summary": "Edit a mutable note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Immutable record or version conflict"}
                }
            },
            "delete": {
                "tags": ["Notes"],
                "summary": "Delete a note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Permission denied"}
                }
            }
        },
        "/notes/{id}/submit": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Submit a draft for review",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/notes/{id}/resubmit": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Resubmit a revised note for review",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/notes/{id}/review": {
            "post": {
                "tags": ["Workflow"],
                "summary": "Apply a review decision on a pending note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Permission denied"},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/notes/{id}/history": {
            "get": {
                "tags": ["Notes"],
                "summary": "Fetch the audit trail of a note",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Permission denied"}
                }
            }
        },
        "/students/{id}/notes": {
            "get": {
                "tags": ["Notes"],
                "summary": "List the notes recorded for a student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
