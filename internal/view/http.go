package view

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/clog"
)

const maxImportBytes = 8 << 20

var contentTypes = map[Format]string{
	FormatYAML: "application/yaml; charset=utf-8",
	FormatTOML: "application/toml; charset=utf-8",
}

func formatParam(r *http.Request) (Format, error) {
	f := Format(r.URL.Query().Get("format"))
	if f == "" {
		return FormatYAML, nil
	}
	if _, ok := contentTypes[f]; !ok {
		return "", cerr.NewError(cerr.InvalidArgument, "format must be yaml or toml", nil).
			AddViolation("format", "enum", string(f))
	}
	return f, nil
}

// Routes mounts the document endpoints used to move whole views in and out
// as YAML or TOML files.
func (s *Server) Routes(r chi.Router) {
	r.Get("/views/{viewID}/export", s.export)
	r.Post("/views/import", s.importView)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewID := chi.URLParam(r, "viewID")
	clog.AddAttribute(ctx, "view_id", viewID)

	f, err := formatParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	v, err := s.svc.GetView(ctx, viewID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	data, err := Encode(v, f)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "failed to encode view", err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		clog.AddError(ctx, err)
	}
}

// importView creates a new view from a document. The document's id and
// timestamps are ignored; the name query parameter overrides its name.
func (s *Server) importView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := formatParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "failed to read body", err)
		return
	}
	if len(body) > maxImportBytes {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "document too large", nil)
		return
	}
	doc, err := Decode(body, f)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, err.Error(), err)
		return
	}
	name := doc.Name
	if q := r.URL.Query().Get("name"); q != "" {
		name = q
	}
	v, err := s.svc.CreateView(ctx, name, doc.Data())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, &ViewResponse{View: v})
}
