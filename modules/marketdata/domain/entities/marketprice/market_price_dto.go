package marketprice

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/petroflow/petroflow/pkg/constants"
	"github.com/petroflow/petroflow/pkg/serrors"
)

// ImportUploadDTO is the ingestion request: one file, one declared feed kind.
type ImportUploadDTO struct {
	FileName   string `json:"fileName" validate:"required"`
	FeedKind   string `json:"feedKind" validate:"required"`
	ImportedBy string `json:"importedBy" validate:"required"`
	Overwrite  bool   `json:"overwrite"`
	Content    []byte `json:"-" validate:"required"`
}

func (d *ImportUploadDTO) Normalize() {
	d.FileName = strings.TrimSpace(d.FileName)
	d.FeedKind = strings.TrimSpace(strings.ToLower(d.FeedKind))
	d.ImportedBy = strings.TrimSpace(d.ImportedBy)
}

func (d *ImportUploadDTO) Ok(ctx context.Context) (serrors.ValidationErrors, bool) {
	d.Normalize()
	errs := constants.Validate.StructCtx(ctx, d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.FromValidator(errs.(validator.ValidationErrors)), false
}

// DeleteRangeDTO is the administrative delete-by-date-range request.
type DeleteRangeDTO struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtefield=From"`
}

func (d *DeleteRangeDTO) Ok(ctx context.Context) (serrors.ValidationErrors, bool) {
	errs := constants.Validate.StructCtx(ctx, d)
	if errs == nil {
		return serrors.ValidationErrors{}, true
	}
	return serrors.FromValidator(errs.(validator.ValidationErrors)), false
}
