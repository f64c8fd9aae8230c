package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*
var EmbeddedTemplatesFS embed.FS

// errorTemplate is compiled into the binary so error pages render even when
// the on-disk template directory is missing or broken.
var errorTemplate = template.Must(template.ParseFS(EmbeddedTemplatesFS, "templates/error.html"))

// ErrorPageData is the data handed to the embedded error template
type ErrorPageData struct {
	StatusCode  int
	Status      string
	Description string
}

// errorDescriptions holds the one-line body text for each error page
var errorDescriptions = map[int]string{
	http.StatusNotFound:            "The requested URL was not found on the server. If you entered the URL manually please check your spelling and try again.",
	http.StatusMethodNotAllowed:    "The method is not allowed for the requested URL.",
	http.StatusTooManyRequests:     "This user has exceeded an allotted request count. Try again later.",
	http.StatusInternalServerError: "The server encountered an internal error and was unable to complete your request. Either the server is overloaded or there is an error in the application.",
}

// renderErrorPage renders the generic page for statusCode
func renderErrorPage(statusCode int) ([]byte, error) {
	description, ok := errorDescriptions[statusCode]
	if !ok {
		description = http.StatusText(statusCode)
	}
	var buf bytes.Buffer
	err := errorTemplate.Execute(&buf, ErrorPageData{
		StatusCode:  statusCode,
		Status:      http.StatusText(statusCode),
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
