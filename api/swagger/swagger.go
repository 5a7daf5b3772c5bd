package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Schedule Engine API",
        "description": "Allocates catalog activities into free time slots and keeps weekly proposals.",
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
        {"name": "Auth", "description": "Machine client tokens"},
        {"name": "Activities", "description": "Activity catalog"},
        {"name": "Planner", "description": "Daily plans, weekly proposals and day recalculation"},
        {"name": "Exports", "description": "Asynchronous CSV and PDF exports of weekly proposals"}
    ],
    "paths": {
        "/auth/token": {
            "post": {
                "tags": ["Auth"],
                "summary": "Issue an access token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities": {
            "get": {
                "tags": ["Activities"],
                "summary": "List catalog activities",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "goal", "type": "string"},
                    {"in": "query", "name": "active", "type": "boolean", "description": "Only active activities (default true)"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "pageSize", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Add a catalog activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateActivityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/daily": {
            "post": {
                "tags": ["Planner"],
                "summary": "Generate one day's plan",
                "description": "Allocates catalog activities into the given slots. Unprocessable when the day has no slots, the catalog is empty or the slots cannot hold the daily minimum.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/DailyPlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "EMPTY_SLOT_SET, EMPTY_CATALOG or INSUFFICIENT_CAPACITY", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/weekly": {
            "post": {
                "tags": ["Planner"],
                "summary": "Build a weekly proposal",
                "description": "Solves the template day and replicates it onto the selected days of [startDate, endDate). endDate is exclusive.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/WeeklyPlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Template day could not be solved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/weekly/{id}": {
            "get": {
                "tags": ["Planner"],
                "summary": "Fetch a weekly proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/weekly/{id}/recalculate": {
            "post": {
                "tags": ["Planner"],
                "summary": "Recalculate one day of a proposal",
                "description": "Re-solves the day with the slots now available. Under auto or reschedule handling, a day below the minimum may move to another day of the proposal window.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RecalculateDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Day could not be solved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/weekly/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an export of a proposal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export through its signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "required": ["clientId", "clientSecret"],
            "properties": {
                "clientId": {"type": "string"},
                "clientSecret": {"type": "string"}
            }
        },
        "CreateActivityRequest": {
            "type": "object",
            "required": ["name", "minDuration", "maxDuration"],
            "properties": {
                "name": {"type": "string"},
                "minDuration": {"type": "integer"},
                "maxDuration": {"type": "integer"},
                "goals": {"type": "array", "items": {"type": "string"}},
                "locations": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SlotInput": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "OptionsInput": {
            "type": "object",
            "properties": {
                "dailyMinimumMinutes": {"type": "integer"},
                "dailyMaximumMinutes": {"type": "integer"},
                "avoidConsecutiveRepeat": {"type": "boolean"},
                "locationMatchBonus": {"type": "integer"}
            }
        },
        "DailyPlanRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "timezone": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SlotInput"}},
                "goals": {"type": "array", "items": {"type": "string"}},
                "locations": {"type": "array", "items": {"type": "string"}},
                "activityIds": {"type": "array", "items": {"type": "string", "format": "uuid"}},
                "options": {"$ref": "#/definitions/OptionsInput"}
            }
        },
        "WeeklyPlanRequest": {
            "type": "object",
            "required": ["template", "startDate", "endDate"],
            "properties": {
                "template": {"$ref": "#/definitions/DailyPlanRequest"},
                "timezone": {"type": "string"},
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date", "description": "Exclusive"},
                "daysToPlan": {"type": "integer", "minimum": 1, "maximum": 7},
                "allowedWeekdays": {"type": "array", "items": {"type": "integer", "minimum": 1, "maximum": 7}, "description": "1 is Sunday"},
                "excludedDates": {"type": "array", "items": {"type": "string", "format": "date"}},
                "excludedHandling": {"type": "string", "enum": ["auto", "reschedule", "drop"]}
            }
        },
        "RecalculateDayRequest": {
            "type": "object",
            "required": ["date", "availableSlots"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "availableSlots": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/SlotInput"}}
                },
                "excludedHandling": {"type": "string", "enum": ["auto", "reschedule", "drop"]},
                "options": {"$ref": "#/definitions/OptionsInput"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "title": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
