package entity

import "errors"

var (
	ErrTemplateNotFound   = errors.New("notification: template not found")
	ErrUnsupportedChannel = errors.New("notification: unsupported channel")
	ErrRenderTemplate     = errors.New("notification: render template")
)
