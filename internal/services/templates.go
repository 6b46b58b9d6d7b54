package services

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateConfig holds template configuration
type TemplateConfig struct {
	File        string
	Subject     string
	Description string
	Parameters  []string
}

var decisionParameters = []string{
	"folio", "precio", "categoria", "aprobada", "codigo_verificacion",
	"destino", "total_km", "precio_km", "porcentaje_categoria", "cliente",
}

// EmailTemplates maps template names to their file and subject line
var EmailTemplates = map[string]TemplateConfig{
	"quotation_accepted": {
		File:        "cotizacion.html",
		Subject:     "Cotización aceptada",
		Description: "Client accepted a quotation",
		Parameters:  decisionParameters,
	},
	"quotation_rejected": {
		File:        "cotizacion.html",
		Subject:     "Cotización rechazada",
		Description: "Client rejected a quotation",
		Parameters:  decisionParameters,
	},
}

// TemplateService renders the email templates
type TemplateService struct {
	templates *template.Template
}

// NewTemplateService parses every embedded template once.
func NewTemplateService() (*TemplateService, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse email templates")
	}
	return &TemplateService{templates: t}, nil
}

// Render returns the subject and HTML body of templateName filled with params.
func (ts *TemplateService) Render(templateName string, params map[string]any) (string, string, error) {
	cfg, exists := EmailTemplates[templateName]
	if !exists {
		return "", "", errors.Errorf("template '%s' not found", templateName)
	}

	// Validate required parameters
	for _, requiredParam := range cfg.Parameters {
		if _, ok := params[requiredParam]; !ok {
			return "", "", errors.Errorf("missing required parameter: %s", requiredParam)
		}
	}

	var buf bytes.Buffer
	if err := ts.templates.ExecuteTemplate(&buf, cfg.File, params); err != nil {
		return "", "", errors.Wrapf(err, "failed to render template '%s'", templateName)
	}
	return cfg.Subject, buf.String(), nil
}
