package ingest

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/relations"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// actionsRequest is the POST /v1/actions body. A bare JSON array is accepted
// as shorthand for {"actions": [...]}.
type actionsRequest struct {
	Actions []ir.Action `json:"actions" validate:"required,min=1,max=500"`
}

// batchRequest is the POST /v1/batches body.
type batchRequest struct {
	Elements  []ir.BatchItem `json:"elements" validate:"required_without=DeleteIDs,max=1000"`
	DeleteIDs []string       `json:"deleteIds" validate:"omitempty,max=1000,dive,required"`
	Message   string         `json:"message" validate:"max=500"`
}

func (r batchRequest) batch() ir.Batch {
	return ir.Batch{Elements: r.Elements, DeleteIDs: r.DeleteIDs, Message: r.Message}
}

// relationsQuery is the GET /v1/relations query.
type relationsQuery struct {
	IDs []string `json:"ids" validate:"max=1000,dive,required"`
}

type actionsResponse struct {
	Results   []ir.ActionResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type sceneResponse struct {
	Type        string   `json:"type"`
	Version     string   `json:"version"`
	Source      string   `json:"source"`
	Fingerprint string   `json:"fingerprint"`
	Elements    ir.Scene `json:"elements"`
}

type relationsResponse struct {
	Relationships []relations.Relationship `json:"relationships"`
	Context       string                   `json:"context"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetails flattens validator errors into "field: rule" strings.
func validationDetails(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		detail := fe.Namespace() + ": " + fe.Tag()
		if fe.Param() != "" {
			detail += "=" + fe.Param()
		}
		out = append(out, detail)
	}
	return out
}
