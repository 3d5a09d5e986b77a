package content

import (
	"html/template"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

var redirectFormTemplate = template.Must(template.New("return_form").Parse(`<!DOCTYPE html>
<html>
<head><title>Returning to platform</title></head>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.TargetURL}}">
<input type="hidden" name="JWT" value="{{.Token}}"/>
<noscript><button type="submit">Continue</button></noscript>
</form>
</body>
</html>
`))

type HandlerConfig struct {
	Builder *Builder
	Logger  core.Logger
}

// Handler is the HTTP surface of the content return flow. Any failure is
// logged server-side and answered with a bare redirect home so platform
// details never leak into the response body.
type Handler struct {
	builder *Builder
	logger  core.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		builder: cfg.Builder,
		logger:  glog.Ensure(cfg.Logger),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.builder == nil {
		http.Error(w, "content return is not configured", http.StatusServiceUnavailable)
		return
	}

	params := paramsFromRequest(r)
	ctx := r.Context()

	if err := h.builder.Authorize(ctx, params); err != nil {
		h.fail(w, "content return denied", err)
		return
	}
	message, err := h.builder.BuildReturn(ctx, params)
	if err != nil {
		h.fail(w, "content return build failed", err)
		return
	}

	payload, err := RenderRedirect(message)
	if err != nil {
		h.fail(w, "content return render failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload.HTML))
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.logger.Warn(message, "error", err)
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusInternalServerError)
}

// RenderRedirect produces the auto-submitting form that posts the signed
// message back to the platform return endpoint.
func RenderRedirect(message *core.ReturnMessage) (core.RedirectPayload, error) {
	if message == nil {
		return core.RedirectPayload{}, core.BuildError(nil)
	}
	var rendered strings.Builder
	if err := redirectFormTemplate.Execute(&rendered, message); err != nil {
		return core.RedirectPayload{}, core.BuildError(err)
	}
	return core.RedirectPayload{
		HTML:      rendered.String(),
		TargetURL: message.TargetURL,
	}, nil
}

func paramsFromRequest(r *http.Request) core.ReturnParams {
	if r == nil {
		return core.ReturnParams{}
	}
	_ = r.ParseForm()
	read := func(name string) string {
		if value := strings.TrimSpace(r.PostForm.Get(name)); value != "" {
			return value
		}
		return strings.TrimSpace(r.Form.Get(name))
	}
	return core.ReturnParams{
		ClientID:   read("client_id"),
		ReturnURL:  read("return"),
		EntityType: read("entityType"),
		EntityID:   read("entityId"),
		Icon:       read("icon"),
		Thumbnail:  read("thumbnail"),
		IFrame:     read("iframe"),
		Custom:     read("custom"),
		LineItem:   read("lineItem"),
		Available:  read("available"),
		Submission: read("submission"),
	}
}

var _ http.Handler = (*Handler)(nil)
