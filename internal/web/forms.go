package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/importer"
)

const (
	// maxJSONBody limits API request bodies other than uploads.
	maxJSONBody = 1 << 20

	// multipartOverhead is allowed on top of the file size limit for the
	// multipart framing and the other form fields.
	multipartOverhead = 1 << 20

	// multipartMemory is kept in memory while parsing uploads; the rest
	// spills to temporary files.
	multipartMemory = 8 << 20
)

// notices are the flash messages a redirect can ask for.
var notices = map[string]string{
	"set-created":  "Set created.",
	"set-updated":  "Set saved.",
	"set-deleted":  "Set deleted. Its cards were kept.",
	"card-deleted": "Card deleted.",
}

func notice(r *http.Request) string {
	return notices[r.URL.Query().Get("notice")]
}

// redirect sends a browser to path after a form post.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// withNotice adds the notice key to a local path.
func withNotice(path, key string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set("notice", key)
	u.RawQuery = q.Encode()
	return u.String()
}

// localPath returns p if it is a path on this site, otherwise fallback.
func localPath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	return p
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", catalog.ErrInvalidInput, err)
	}
	return nil
}

func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// readSetInput reads a set from JSON or from the HTML form.
func readSetInput(w http.ResponseWriter, r *http.Request) (catalog.SetInput, error) {
	var in catalog.SetInput
	if isJSONRequest(r) {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: form: %v", catalog.ErrInvalidInput, err)
	}
	in = catalog.SetInput{
		Name:          r.PostFormValue("set_name"),
		Series:        r.PostFormValue("series"),
		ReleaseDate:   r.PostFormValue("release_date"),
		LogoURL:       r.PostFormValue("logo_url"),
		BackgroundURL: r.PostFormValue("background_url"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("card_amount")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, &catalog.ValidationError{Fields: map[string]string{
				"card_amount": "Card amount must be a whole number",
			}}
		}
		in.CardAmount = n
	}
	return in, nil
}

// validationFields returns the per-field messages of a validation error,
// or nil for any other error.
func validationFields(err error) map[string]string {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// cardQuery reads the list filters: set, q, sort and dir.
func cardQuery(r *http.Request) (catalog.CardQuery, error) {
	v := r.URL.Query()
	q := catalog.CardQuery{
		Search: strings.TrimSpace(v.Get("q")),
		Sort:   catalog.CardSortField(v.Get("sort")),
		Desc:   strings.EqualFold(v.Get("dir"), "desc"),
	}
	if raw := v.Get("set"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, fmt.Errorf("%w: set %q is not a valid id", catalog.ErrInvalidInput, raw)
		}
		q.SetID = id
	}
	if q.Sort != "" && !q.Sort.Valid() {
		return q, fmt.Errorf("%w: cannot sort by %q", catalog.ErrInvalidInput, q.Sort)
	}
	return q.Normalize(), nil
}

func setOrder(r *http.Request) catalog.SetOrder {
	if r.URL.Query().Get("order") == "name" {
		return catalog.SetsByName
	}
	return catalog.SetsNewestFirst
}

// idParam parses a UUID route parameter. Malformed IDs cannot exist, so
// they are reported as not found.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q", catalog.ErrNotFound, name, raw)
	}
	return id, nil
}

// formSetID parses the optional set_id field of a form. Empty means no
// set was chosen.
func formSetID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: set_id %q is not a valid id", catalog.ErrInvalidInput, raw)
	}
	return id, nil
}

// parseUpload parses a multipart form capped at the import size limit.
// A zero limit means no cap beyond the framing allowance.
func parseUpload(w http.ResponseWriter, r *http.Request, maxFileSize int64) error {
	if maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return importer.ErrNoFile
		}
		return fmt.Errorf("%w: upload form: %v", catalog.ErrInvalidInput, err)
	}
	return nil
}

// uploadedFile returns the "file" part of a parsed multipart form.
func uploadedFile(r *http.Request) (multipart.File, string, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", importer.ErrNoFile
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: upload: %v", catalog.ErrInvalidInput, err)
	}
	return file, header.Filename, nil
}

// hasUpload reports whether a parsed form carries a file.
func hasUpload(r *http.Request) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0
}
