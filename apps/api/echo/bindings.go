package echoapi

import (
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/assessment"
)

const (
	teacherFilterParam = "teacher"
	audioField         = "audio"
)

// DataFilter is the teacher picked on the data page.
type DataFilter struct {
	Teacher string
}

func (f *DataFilter) Bind(ctx echo.Context) {
	f.Teacher = core.CleanString(ctx.QueryParam(teacherFilterParam))
}

// bindAudioFile reads the recording from the multipart `audio` field.
// Oversized files are not read: their size alone is enough for the workflow to reject them.
func bindAudioFile(ctx echo.Context) (assessment.AudioFile, error) {
	fh, err := ctx.FormFile(audioField)
	if err != nil {
		return assessment.AudioFile{}, core.NewFieldError(audioField, "Please select an audio file")
	}

	file := assessment.AudioFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
	}
	if fh.Size <= 0 || fh.Size > assessment.MaxAudioBytes {
		return file, nil
	}

	src, err := fh.Open()
	if err != nil {
		return file, errors.Wrap(err, "opening audio file")
	}
	defer src.Close()

	if file.Content, err = io.ReadAll(src); err != nil {
		return file, errors.Wrap(err, "reading audio file")
	}
	return file, nil
}
