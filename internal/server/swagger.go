package server

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/swaggo/swag"
)

// apiDoc serves the OpenAPI document for the evaluator API. Maintained by
// hand; keep it in sync with routes().
type apiDoc struct{}

func (apiDoc) ReadDoc() string { return apiDocJSON }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

func (s *Server) mountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

const apiDocJSON = `{
  "swagger": "2.0",
  "info": {
    "title": "UX-Evaluator API",
    "description": "Automated heuristic UX evaluation: crawl a site, analyze pages, and retrieve annotated results and reports.",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/evaluate": {
      "post": {
        "summary": "Start an evaluation",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [
          {
            "name": "body",
            "in": "body",
            "required": true,
            "schema": {
              "type": "object",
              "properties": {
                "url": {"type": "string"},
                "max_pages": {"type": "integer"},
                "depth": {"type": "integer"}
              },
              "required": ["url"]
            }
          }
        ],
        "responses": {
          "202": {"description": "Job accepted"},
          "400": {"description": "Invalid request"}
        }
      }
    },
    "/evaluations/{evaluationID}": {
      "get": {
        "summary": "Get the issue collection for an evaluation",
        "produces": ["application/json"],
        "parameters": [
          {"name": "evaluationID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Issue collection"},
          "404": {"description": "Evaluation not found"}
        }
      }
    },
    "/evaluations/{evaluationID}/screenshot": {
      "get": {
        "summary": "Get the primary page screenshot",
        "produces": ["image/jpeg", "image/png"],
        "parameters": [
          {"name": "evaluationID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Screenshot bytes"},
          "404": {"description": "Screenshot not found"}
        }
      }
    },
    "/evaluations/{evaluationID}/view": {
      "get": {
        "summary": "Get the display-ready view of an evaluation",
        "produces": ["application/json"],
        "parameters": [
          {"name": "evaluationID", "in": "path", "required": true, "type": "string"},
          {"name": "width", "in": "query", "required": false, "type": "number"}
        ],
        "responses": {
          "200": {"description": "View snapshot with annotation rects"},
          "404": {"description": "Evaluation not found"}
        }
      }
    },
    "/generate-report/{evaluationID}": {
      "post": {
        "summary": "Generate a report for a completed evaluation",
        "produces": ["application/json"],
        "parameters": [
          {"name": "evaluationID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Report trigger acknowledgment"},
          "400": {"description": "Evaluation not completed"},
          "404": {"description": "Evaluation not found"},
          "409": {"description": "Report generation already in progress"}
        }
      }
    },
    "/reports/{evaluationID}": {
      "get": {
        "summary": "Get the stored report",
        "produces": ["application/json"],
        "parameters": [
          {"name": "evaluationID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Report body"},
          "404": {"description": "Report not found"}
        }
      }
    },
    "/heuristics": {
      "get": {
        "summary": "List the heuristic catalog",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "Heuristic list"}
        }
      }
    },
    "/jobs": {
      "get": {
        "summary": "List evaluation jobs",
        "produces": ["application/json"],
        "responses": {
          "200": {"description": "Job list"}
        }
      }
    },
    "/jobs/{jobID}": {
      "get": {
        "summary": "Get a job",
        "produces": ["application/json"],
        "parameters": [
          {"name": "jobID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Job"},
          "404": {"description": "Job not found"}
        }
      },
      "delete": {
        "summary": "Cancel a running job",
        "parameters": [
          {"name": "jobID", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "204": {"description": "Cancel requested"}
        }
      }
    },
    "/screenshots/blob/{token}": {
      "get": {
        "summary": "Serve a live screenshot handle",
        "produces": ["image/jpeg", "image/png"],
        "parameters": [
          {"name": "token", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {"description": "Screenshot bytes"},
          "404": {"description": "Handle not found or released"}
        }
      }
    }
  }
}`
