// Package docs registers the OpenAPI document served at /swagger.
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
        "/healthz": {
            "get": {"summary": "Liveness", "responses": {"200": {"description": "OK"}}}
        },
        "/zones": {
            "get": {
                "tags": ["zones"],
                "summary": "List zones with live usage and slot colors",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/query.ZoneOverview"}}}}
            }
        },
        "/zones/{id}": {
            "get": {
                "tags": ["zones"],
                "summary": "Get zone definition",
                "parameters": [{"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Zone"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/zones/{id}/summary": {
            "get": {
                "tags": ["zones"],
                "summary": "Zone capacity usage",
                "description": "Counts live holds overlapping [from, to). Without from/to the current instant is used.",
                "parameters": [
                    {"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "view start (RFC3339)", "name": "from", "in": "query"},
                    {"type": "string", "description": "view end (RFC3339)", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/query.ZoneSummary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/zones/{id}/slots": {
            "get": {
                "tags": ["zones"],
                "summary": "Slot occupancy at the current instant",
                "parameters": [{"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/query.SlotStatus"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/zones/{id}/holds": {
            "post": {
                "tags": ["holds"],
                "summary": "Request a hold (idempotent)",
                "parameters": [
                    {"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateHoldRequest"}}
                ],
                "responses": {
                    "200": {"description": "existing hold checked in", "schema": {"$ref": "#/definitions/httpgin.HoldResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.HoldResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "duplicate hold / capacity exceeded / idempotency key in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/zones/{id}/arrivals": {
            "post": {
                "tags": ["holds"],
                "summary": "Arrive at a zone",
                "parameters": [
                    {"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.ArrivalRequest"}}
                ],
                "responses": {
                    "200": {"description": "existing hold checked in", "schema": {"$ref": "#/definitions/httpgin.HoldResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.HoldResponse"}},
                    "400": {"description": "outside the geofence", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/holds/{id}": {
            "get": {
                "tags": ["holds"],
                "summary": "Get a hold",
                "parameters": [
                    {"type": "string", "description": "Reservation ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "owner", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reservation"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["holds"],
                "summary": "Cancel a hold",
                "parameters": [
                    {"type": "string", "description": "Reservation ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "owner", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reservation"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "invalid transition", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/holds/{id}/check-in": {
            "post": {
                "tags": ["holds"],
                "summary": "Check in to a pending hold",
                "parameters": [
                    {"type": "string", "description": "Reservation ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "owner", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reservation"}},
                    "409": {"description": "outside the window", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/holds/{id}/complete": {
            "post": {
                "tags": ["holds"],
                "summary": "Check out of an active hold",
                "parameters": [
                    {"type": "string", "description": "Reservation ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "owner", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reservation"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users/{user_id}/holds": {
            "get": {
                "tags": ["holds"],
                "summary": "List a user's holds",
                "description": "All statuses, latest window end first.",
                "parameters": [{"type": "string", "description": "User ID", "name": "user_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.HoldView"}}}}
            }
        },
        "/admin/zones": {
            "post": {
                "tags": ["admin"],
                "summary": "Create zone",
                "parameters": [
                    {"type": "string", "description": "admin token", "name": "X-Admin-Token", "in": "header", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateZoneRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Zone"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/zones/{id}": {
            "patch": {
                "tags": ["admin"],
                "summary": "Edit zone capacity, boundary, name or active flag",
                "parameters": [
                    {"type": "string", "description": "admin token", "name": "X-Admin-Token", "in": "header", "required": true},
                    {"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.UpdateZoneRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Zone"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/zones/{id}/slots": {
            "put": {
                "tags": ["admin"],
                "summary": "Insert or replace zone slots",
                "parameters": [
                    {"type": "string", "description": "admin token", "name": "X-Admin-Token", "in": "header", "required": true},
                    {"type": "integer", "description": "Zone ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.PutSlotsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Slot"}}}}
            }
        },
        "/admin/holds/{id}": {
            "delete": {
                "tags": ["admin"],
                "summary": "Cancel any hold",
                "parameters": [
                    {"type": "string", "description": "admin token", "name": "X-Admin-Token", "in": "header", "required": true},
                    {"type": "string", "description": "Reservation ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Reservation"}}}
            }
        }
    },
    "definitions": {
        "domain.Point": {
            "type": "object",
            "properties": {"lat": {"type": "number"}, "lng": {"type": "number"}}
        },
        "domain.Geometry": {
            "type": "object",
            "properties": {
                "ring": {"type": "array", "items": {"$ref": "#/definitions/domain.Point"}},
                "center": {"$ref": "#/definitions/domain.Point"},
                "radius_m": {"type": "number"}
            }
        },
        "domain.Window": {
            "type": "object",
            "properties": {"start": {"type": "string", "format": "date-time"}, "end": {"type": "string", "format": "date-time"}}
        },
        "domain.Zone": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "boundary": {"$ref": "#/definitions/domain.Geometry"},
                "capacity": {"type": "integer"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.Slot": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "integer"},
                "id": {"type": "string"},
                "position": {"type": "integer"},
                "tag": {"type": "string"},
                "geometry": {"$ref": "#/definitions/domain.Geometry"}
            }
        },
        "domain.Reservation": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "user_id": {"type": "string"},
                "zone_id": {"type": "integer"},
                "slot_id": {"type": "string"},
                "window": {"$ref": "#/definitions/domain.Window"},
                "status": {"type": "string", "enum": ["pending", "active", "cancelled", "expired", "completed"]},
                "activated_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.HoldView": {
            "allOf": [
                {"$ref": "#/definitions/domain.Reservation"},
                {"type": "object", "properties": {"zone_name": {"type": "string"}, "slot_tag": {"type": "string"}}}
            ]
        },
        "query.ZoneSummary": {
            "type": "object",
            "properties": {
                "zone_id": {"type": "integer"},
                "capacity": {"type": "integer"},
                "active_count": {"type": "integer"},
                "pending_count": {"type": "integer"},
                "available": {"type": "integer"},
                "view": {"$ref": "#/definitions/domain.Window"}
            }
        },
        "query.SlotStatus": {
            "type": "object",
            "properties": {
                "slot_id": {"type": "string"},
                "tag": {"type": "string"},
                "occupied": {"type": "boolean"},
                "reservation_status": {"type": "string"}
            }
        },
        "query.ZoneOverview": {
            "type": "object",
            "properties": {
                "zone": {"$ref": "#/definitions/domain.Zone"},
                "summary": {"$ref": "#/definitions/query.ZoneSummary"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/query.SlotStatus"}}
            }
        },
        "httpgin.CreateHoldRequest": {
            "type": "object",
            "required": ["user_id", "window_start", "window_end"],
            "properties": {
                "user_id": {"type": "string"},
                "slot_id": {"type": "string"},
                "window_start": {"type": "string", "format": "date-time"},
                "window_end": {"type": "string", "format": "date-time"},
                "arrival": {"type": "boolean"}
            }
        },
        "httpgin.ArrivalRequest": {
            "type": "object",
            "required": ["user_id", "lat", "lng", "window_end"],
            "properties": {
                "user_id": {"type": "string"},
                "slot_id": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "window_end": {"type": "string", "format": "date-time"}
            }
        },
        "httpgin.HoldResponse": {
            "type": "object",
            "properties": {
                "reservation_id": {"type": "string"},
                "status": {"type": "string"},
                "converted": {"type": "boolean"},
                "window": {"$ref": "#/definitions/domain.Window"}
            }
        },
        "httpgin.CreateZoneRequest": {
            "type": "object",
            "required": ["name", "capacity"],
            "properties": {
                "name": {"type": "string"},
                "boundary": {"$ref": "#/definitions/domain.Geometry"},
                "capacity": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "httpgin.UpdateZoneRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "boundary": {"$ref": "#/definitions/domain.Geometry"},
                "capacity": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "httpgin.SlotInput": {
            "type": "object",
            "required": ["id", "tag"],
            "properties": {
                "id": {"type": "string"},
                "position": {"type": "integer"},
                "tag": {"type": "string"},
                "geometry": {"$ref": "#/definitions/domain.Geometry"}
            }
        },
        "httpgin.PutSlotsRequest": {
            "type": "object",
            "required": ["slots"],
            "properties": {"slots": {"type": "array", "items": {"$ref": "#/definitions/httpgin.SlotInput"}}}
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "code": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "park-go API",
	Description:      "Parking slot reservations with live capacity accounting.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
