package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CivicFlow API",
        "description": "Civic issue, delegation, and tender workflow engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Issues", "description": "Citizen issue reporting and lifecycle"},
        {"name": "Assignments", "description": "Issue delegation down the responsibility chain"},
        {"name": "Tenders", "description": "Tender lifecycle and awards"},
        {"name": "Bids", "description": "Contractor bids and evaluations"},
        {"name": "Progress", "description": "Work progress reporting and review"},
        {"name": "Documents", "description": "Tender document storage"},
        {"name": "Directory", "description": "Actors, areas, and departments"},
        {"name": "Notifications", "description": "Workflow notifications"},
        {"name": "Exports", "description": "Department register exports"}
    ],
    "paths": {
        "/issues": {
            "get": {
                "tags": ["Issues"],
                "summary": "List issues visible to the acting actor",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "stage", "in": "query", "type": "string"},
                    {"name": "area_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Issues"],
                "summary": "Report a new issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportIssueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}": {
            "get": {
                "tags": ["Issues"],
                "summary": "Get an issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/history": {
            "get": {
                "tags": ["Issues"],
                "summary": "Transition history for an issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments for an issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Delegate an issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DelegateIssueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/complete": {
            "post": {
                "tags": ["Issues"],
                "summary": "Mark in-progress work as done, moving the issue to departmental review",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/issues/{id}/resolve": {
            "post": {
                "tags": ["Issues"],
                "summary": "Resolve a reviewed issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders": {
            "get": {
                "tags": ["Tenders"],
                "summary": "List tenders visible to the acting actor",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "stage", "in": "query", "type": "string"},
                    {"name": "department_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tenders"],
                "summary": "Create a tender from a delegated issue",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTenderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}": {
            "get": {
                "tags": ["Tenders"],
                "summary": "Get a tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/open-bidding": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Open a tender for bids",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/close-bidding": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Close the bidding window",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/start-review": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Begin evaluating received bids",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/start-work": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Record the start of awarded work",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/verify": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Verify completed work",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/VerifyTenderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/close": {
            "post": {
                "tags": ["Tenders"],
                "summary": "Close a verified tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/bids": {
            "get": {
                "tags": ["Bids"],
                "summary": "List bids on a tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bids"],
                "summary": "Submit a bid",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitBidRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/bids/{bidId}/accept": {
            "post": {
                "tags": ["Bids"],
                "summary": "Accept a bid and award the tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "bidId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Another bid already accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bids": {
            "get": {
                "tags": ["Bids"],
                "summary": "List the acting contractor's bids",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bids/{id}/reject": {
            "post": {
                "tags": ["Bids"],
                "summary": "Reject a bid",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bids/{id}/withdraw": {
            "post": {
                "tags": ["Bids"],
                "summary": "Withdraw an own bid",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bids/{id}/evaluations": {
            "get": {
                "tags": ["Bids"],
                "summary": "List evaluations for a bid",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bids"],
                "summary": "Record a scored evaluation",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateBidRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "List progress entries for a tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Progress"],
                "summary": "Submit a progress entry",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitProgressRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress/{id}/review": {
            "post": {
                "tags": ["Progress"],
                "summary": "Approve or reject a submitted progress entry",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tenders/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List documents for a tender",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "document_type", "in": "formData", "required": true, "type": "string"},
                    {"name": "replaces_document_id", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}/link": {
            "get": {
                "tags": ["Documents"],
                "summary": "Generate a signed download link",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a document through a signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "401": {"description": "Expired or tampered token"}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Directory"],
                "summary": "Acting actor profile",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/areas": {
            "get": {
                "tags": ["Directory"],
                "summary": "List areas",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Directory"],
                "summary": "List departments",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications for the acting actor",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments/{id}/tenders/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export the department tender register",
                "parameters": [
                    {"name": "X-Actor-ID", "in": "header", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File content"}
                }
            }
        }
    },
    "definitions": {
        "ReportIssueRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"}
            },
            "required": ["title", "description", "category", "location"]
        },
        "DelegateIssueRequest": {
            "type": "object",
            "properties": {
                "assignment_type": {"type": "string", "enum": ["ADMIN_TO_AREA", "AREA_TO_DEPARTMENT", "DEPARTMENT_TO_CONTRACTOR"]},
                "area_id": {"type": "string"},
                "department_id": {"type": "string"},
                "assignee_id": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["assignment_type"]
        },
        "CreateTenderRequest": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "source_issue_id": {"type": "string"}
            },
            "required": ["reference", "title", "description"]
        },
        "VerifyTenderRequest": {
            "type": "object",
            "properties": {
                "verification_notes": {"type": "string"}
            },
            "required": ["verification_notes"]
        },
        "SubmitBidRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "proposal": {"type": "string"}
            },
            "required": ["amount", "proposal"]
        },
        "EvaluateBidRequest": {
            "type": "object",
            "properties": {
                "technical_score": {"type": "number"},
                "financial_score": {"type": "number"},
                "experience_score": {"type": "number"},
                "recommendation": {"type": "string", "enum": ["ACCEPT", "REJECT", "REQUEST_CLARIFICATION"]},
                "comments": {"type": "string"}
            },
            "required": ["recommendation"]
        },
        "SubmitProgressRequest": {
            "type": "object",
            "properties": {
                "progress_type": {"type": "string", "enum": ["UPDATE", "MILESTONE", "COMPLETION", "ISSUE"]},
                "progress_percentage": {"type": "number"},
                "description": {"type": "string"},
                "is_milestone": {"type": "boolean"}
            },
            "required": ["progress_type", "description"]
        },
        "ReviewProgressRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVED", "REJECTED", "REQUIRES_CHANGES"]},
                "review_notes": {"type": "string"}
            },
            "required": ["decision"]
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
