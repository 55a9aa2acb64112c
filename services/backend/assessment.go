package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/bainum/dashboard/core/assessment"
)

var _ assessment.Backend = (*Client)(nil)

// Transcribe uploads the recording to /api/whisper. It is bounded by the upload timeout, not the
// regular one.
func (c *Client) Transcribe(ctx context.Context, req assessment.TranscribeRequest) (assessment.Transcription, error) {
	body, contentType, err := transcribeBody(req)
	if err != nil {
		return assessment.Transcription{}, err
	}

	res, err := c.send(ctx, call{
		method:  rest.Post,
		path:    "/api/whisper",
		body:    body,
		headers: map[string]string{"Content-Type": contentType},
		timeout: c.uploadTimeout,
	})
	if err != nil {
		return assessment.Transcription{}, err
	}

	var tr assessment.Transcription
	if err = json.Unmarshal([]byte(res.Body), &tr); err != nil {
		return assessment.Transcription{}, errors.Wrap(err, "decoding transcription")
	}
	return tr, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func transcribeBody(req assessment.TranscribeRequest) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	contentType := req.Audio.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, quoteEscaper.Replace(req.Audio.Name)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", errors.Wrap(err, "creating audio part")
	}
	if _, err = part.Write(req.Audio.Content); err != nil {
		return nil, "", errors.Wrap(err, "writing audio part")
	}

	for _, f := range [][2]string{
		{"childId", req.ChildID},
		{"uploadedBy", req.UploadedBy},
		{"recordingDate", req.RecordingDate},
	} {
		if err = w.WriteField(f[0], f[1]); err != nil {
			return nil, "", errors.Wrapf(err, "writing %s", f[0])
		}
	}
	if err = w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart body")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// AcceptAssessment persists the assessment exactly as it was received from the transcription.
// The saved assessment is nil when the backend does not echo it back.
func (c *Client) AcceptAssessment(ctx context.Context, a assessment.Assessment) (*assessment.Assessment, error) {
	res, err := c.send(ctx, call{method: rest.Post, path: "/api/assessments/accept", body: a.Raw()})
	if err != nil {
		return nil, err
	}

	var saved *assessment.Assessment
	if err = json.Unmarshal([]byte(res.Body), &envelope{key: "assessment", value: &saved}); err != nil {
		return nil, errors.Wrap(err, "decoding saved assessment")
	}
	return saved, nil
}

// LatestAssessment returns nil, and no error, when the child has no assessment yet.
func (c *Client) LatestAssessment(ctx context.Context, childID string) (*assessment.Assessment, error) {
	var latest *assessment.Assessment
	err := c.do(ctx, rest.Get, "/api/assessments/child/"+escape(childID)+"/latest", nil, &envelope{key: "assessment", value: &latest})
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return latest, nil
}

// ChildAssessments skips entries that are not JSON objects.
func (c *Client) ChildAssessments(ctx context.Context, childID string) ([]assessment.Assessment, error) {
	raws := make([]json.RawMessage, 0)
	err := c.do(ctx, rest.Get, "/api/assessments/child/"+escape(childID), nil, &envelope{key: "assessments", value: &raws})
	if IsNotFound(err) {
		return make([]assessment.Assessment, 0), nil
	}
	if err != nil {
		return nil, err
	}

	all := make([]assessment.Assessment, 0, len(raws))
	for _, raw := range raws {
		var a assessment.Assessment
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		all = append(all, a)
	}
	return all, nil
}
