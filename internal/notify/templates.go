package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/ifixandrepair/shop-api/internal/config"
)

//go:embed templates/*
var templateFS embed.FS

type templateData struct {
	Payload
	Business config.BusinessInfo
}

var funcs = map[string]any{
	"stageLabel": func(stage string) string { return strings.ReplaceAll(stage, "-", " ") },
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
)

// Email kinds without their own template render as a status update.
func emailTemplateName(kind Kind) string {
	if kind == KindConfirmation {
		return string(KindConfirmation)
	}
	return string(KindStatusUpdate)
}

func renderEmail(kind Kind, data templateData) (htmlBody, textBody string, err error) {
	name := emailTemplateName(kind)

	var hb bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&hb, name+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	var tb bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&tb, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	return hb.String(), tb.String(), nil
}

func renderSMS(kind Kind, data templateData) (string, error) {
	name := "sms_" + string(kind) + ".txt"
	if textTemplates.Lookup(name) == nil {
		name = "sms_" + string(KindStatusUpdate) + ".txt"
	}

	var b bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	// Optional clauses leave doubled spaces behind.
	return strings.Join(strings.Fields(b.String()), " "), nil
}
