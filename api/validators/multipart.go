package validators

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 8 << 20

var answerFieldPattern = regexp.MustCompile(`^answers\[([0-9a-fA-F-]{36})\]$`)

// IsMultipart reports whether the request carries a multipart body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ParseMultipart parses the form, rejecting bodies larger than maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.Form, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").WithDetails(map[string]any{"body": "too large"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return r.MultipartForm, nil
}

// FormValue returns the first trimmed value for key.
func FormValue(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// FormValues collects repeated keys, key[] keys and comma separated values.
func FormValues(form *multipart.Form, key string) []string {
	if form == nil {
		return nil
	}
	var out []string
	for _, name := range []string{key, key + "[]"} {
		for _, value := range form.Value[name] {
			for _, part := range strings.Split(value, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

// FormAnswers splits answers[<question_id>] parts into text values and file parts.
func FormAnswers(form *multipart.Form) (map[uuid.UUID]string, map[uuid.UUID]*multipart.FileHeader, error) {
	values := map[uuid.UUID]string{}
	files := map[uuid.UUID]*multipart.FileHeader{}
	if form == nil {
		return values, files, nil
	}
	for name, raw := range form.Value {
		id, ok, err := answerQuestionID(name)
		if err != nil {
			return nil, nil, err
		}
		if ok && len(raw) > 0 {
			values[id] = raw[len(raw)-1]
		}
	}
	for name, headers := range form.File {
		id, ok, err := answerQuestionID(name)
		if err != nil {
			return nil, nil, err
		}
		if ok && len(headers) > 0 {
			files[id] = headers[len(headers)-1]
		}
	}
	return values, files, nil
}

func answerQuestionID(field string) (uuid.UUID, bool, error) {
	match := answerFieldPattern.FindStringSubmatch(field)
	if match == nil {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(match[1])
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid answer field").WithDetails(map[string]any{field: "must name a question id"})
	}
	return id, true, nil
}
