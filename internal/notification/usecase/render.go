package usecase

import (
	"bytes"
	htmltemplate "html/template"
	"regexp"
	"text/template"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otphub/internal/notification/entity"
	"github.com/shandysiswandi/otphub/internal/pkg/valueobject"
)

// reSecretKey matches template data that carries the code: otp, digits and d1..dN.
var reSecretKey = regexp.MustCompile(`^(otp|digits|d[0-9]+)$`)

type rendered struct {
	Subject  string
	Body     string
	HTMLBody string
}

func renderTemplate(tpl *entity.Template, data valueobject.JSONMap) (*rendered, error) {
	subject, err := renderText("subject", tpl.Subject, data)
	if err != nil {
		return nil, err
	}

	body, err := renderText("body", tpl.Body, data)
	if err != nil {
		return nil, err
	}

	var html string
	if tpl.HTMLBody != "" {
		html, err = renderHTML("html_body", tpl.HTMLBody, data)
		if err != nil {
			return nil, err
		}
	}

	return &rendered{Subject: subject, Body: body, HTMLBody: html}, nil
}

func renderText(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func renderHTML(name, tpl string, data map[string]any) (string, error) {
	t, err := htmltemplate.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// redactSecrets drops the code from data before it is persisted.
func redactSecrets(data valueobject.JSONMap) valueobject.JSONMap {
	return lo.OmitBy(data, func(k string, _ any) bool {
		return reSecretKey.MatchString(k)
	})
}
