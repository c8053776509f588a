package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sopgate/internal/models"
	"github.com/starford/sopgate/internal/noteservice"
	"github.com/starford/sopgate/internal/sopref"
)

var errContentNotString = errors.New("content must be a string")

// AppendRequest is the request body for POST /obsidian/append. Both fields
// are decoded loosely so that wrong JSON types surface as validation
// reasons rather than decode failures.
type AppendRequest struct {
	Path    any `json:"path" example:"Inbox/today.md" swaggertype:"string"`
	Content any `json:"content" example:"- reviewed SOPRef[sop/05-intake.md#phase-2]\n" swaggertype:"string"`
}

// ValidateContent checks that content is a JSON string. The empty string
// is accepted.
func (r AppendRequest) ValidateContent() error {
	return validation.Validate(r.Content, validation.By(func(v any) error {
		if _, ok := v.(string); !ok {
			return errContentNotString
		}
		return nil
	}))
}

// AppendResponse is returned after a successful append.
type AppendResponse struct {
	OK bool `json:"ok" example:"true"`
	models.AppendResult
}

// ContentRequest carries free-form text for the reference endpoints.
type ContentRequest struct {
	Content string `json:"content" example:"see SOPRef[sop/a.md#intro]"`
}

// Validate implements validation.Validatable.
func (r ContentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Length(0, 1<<20)),
	)
}

// ParseResponse lists the references found in a text.
type ParseResponse struct {
	OK         bool               `json:"ok" example:"true"`
	References []sopref.Reference `json:"references"`
}

// RenderResponse is the rendered form of a text.
type RenderResponse struct {
	OK       bool              `json:"ok" example:"true"`
	Segments []*sopref.Segment `json:"segments"`
	HTML     string            `json:"html"`
}

// CitationsResponse lists the notes citing a target.
type CitationsResponse struct {
	OK        bool              `json:"ok" example:"true"`
	Citations []models.Citation `json:"citations"`
}

// PreviewResponse is a rendered note.
type PreviewResponse struct {
	OK bool `json:"ok" example:"true"`
	*noteservice.NotePreview
}

type okResponse struct {
	OK bool `json:"ok" example:"true"`
}
