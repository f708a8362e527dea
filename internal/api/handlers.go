package api

import (
	"bytes"
	"errors"
	"image"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/catalog"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/session"
)

// errSuperseded marks a preview whose session moved on while it rendered.
var errSuperseded = errors.New("preview superseded by a newer request")

type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// Handler serves the certificate API.
type Handler struct {
	catalog  *catalog.Catalog
	comp     *imagepkg.Compositor
	batch    *batch.Renderer
	sessions *session.Store
	hue      *session.Coalescer
	stamp    *imagepkg.Stamp
	logger   *slog.Logger
	now      func() time.Time
}

// Deps are the collaborators of a Handler. Stamp and Logger are optional.
type Deps struct {
	Catalog    *catalog.Catalog
	Compositor *imagepkg.Compositor
	Batch      *batch.Renderer
	Sessions   *session.Store
	Hue        *session.Coalescer
	Stamp      *imagepkg.Stamp
	Logger     *slog.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		catalog:  d.Catalog,
		comp:     d.Compositor,
		batch:    d.Batch,
		sessions: d.Sessions,
		hue:      d.Hue,
		stamp:    d.Stamp,
		logger:   d.Logger,
		now:      time.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.hue == nil {
		h.hue = session.NewCoalescer(session.DefaultHueDebounce)
	}
	if h.stamp == nil {
		h.stamp = &imagepkg.Stamp{Size: 400, Prefix: "cert:"}
	}
	return h
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var br badRequest
	var ale *imagepkg.AssetLoadError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &br), errors.Is(err, batch.ErrEmptyBatch):
		status = http.StatusBadRequest
	case errors.Is(err, errSuperseded):
		status = http.StatusConflict
	case errors.As(err, &ale):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type tierInfo struct {
	ID    award.Tier `json:"id"`
	Label string     `json:"label"`
}

type categoryInfo struct {
	Name  string       `json:"name"`
	Tiers []award.Tier `json:"tiers"`
}

func (h *Handler) catalogInfo(c *gin.Context) {
	tiers := make([]tierInfo, 0, len(award.Tiers))
	for _, t := range award.Tiers {
		tiers = append(tiers, tierInfo{ID: t, Label: h.catalog.Label(t)})
	}
	cats := []categoryInfo{}
	for _, name := range h.catalog.Categories() {
		ci := categoryInfo{Name: name, Tiers: []award.Tier{}}
		for _, t := range award.Tiers {
			if _, err := h.catalog.ResolveOverlay(name, t); err == nil {
				ci.Tiers = append(ci.Tiers, t)
			}
		}
		cats = append(cats, ci)
	}
	c.JSON(http.StatusOK, gin.H{
		"product":    h.catalog.Product(),
		"default":    h.catalog.DefaultCategory(),
		"tiers":      tiers,
		"categories": cats,
	})
}

func (h *Handler) reloadAssets(c *gin.Context) {
	h.comp.Reload()
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

type createSessionRequest struct {
	Category string                `json:"category"`
	Issue    string                `json:"issue"`
	Theme    string                `json:"theme"`
	Winners  map[award.Tier]string `json:"winners"`
}

func (h *Handler) category(name string) (string, error) {
	if name == "" {
		return h.catalog.DefaultCategory(), nil
	}
	if !h.catalog.Has(name) {
		return "", badRequest{catalog.ErrUnknownCategory}
	}
	return name, nil
}

func validWinners(w map[award.Tier]string) error {
	for t := range w {
		if !t.Valid() {
			return badRequest{catalog.ErrUnknownAwardTier}
		}
	}
	return nil
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest{err})
		return
	}
	cat, err := h.category(req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := validWinners(req.Winners); err != nil {
		writeError(c, err)
		return
	}
	st := session.New(cat)
	st.Issue, st.Theme = req.Issue, req.Theme
	if len(req.Winners) > 0 {
		if st, err = st.Generate(req.Winners, req.Issue, req.Theme); err != nil {
			writeError(c, err)
			return
		}
	}
	id := h.sessions.Create(st)
	h.logger.Info("session created", "session", id, "category", cat, "records", st.Total())
	c.JSON(http.StatusCreated, gin.H{"id": id, "preview": st.Info(h.catalog)})
}

type generateRequest struct {
	Issue   string                `json:"issue"`
	Theme   string                `json:"theme"`
	Winners map[award.Tier]string `json:"winners"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest{err})
		return
	}
	if err := validWinners(req.Winners); err != nil {
		writeError(c, err)
		return
	}
	st, err := h.sessions.Update(c.Param("id"), func(st session.State) (session.State, error) {
		return st.Generate(req.Winners, req.Issue, req.Theme)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

// importCSV builds the batch from a winner sheet posted as the request body.
func (h *Handler) importCSV(c *gin.Context) {
	winners, err := award.ReadCSV(c.Request.Body, h.catalog.TierOf)
	if err != nil {
		writeError(c, badRequest{err})
		return
	}
	st, err := h.sessions.Update(c.Param("id"), func(st session.State) (session.State, error) {
		return st.Generate(winners, st.Issue, st.Theme)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

func (h *Handler) getSession(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

// apply returns a handler running a state command on the session.
func (h *Handler) apply(cmd func(*gin.Context, session.State) (session.State, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := h.sessions.Update(c.Param("id"), func(st session.State) (session.State, error) {
			return cmd(c, st)
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st.Info(h.catalog))
	}
}

func next(_ *gin.Context, st session.State) (session.State, error) { return st.Next(), nil }

func prev(_ *gin.Context, st session.State) (session.State, error) { return st.Prev(), nil }

func jump(c *gin.Context, st session.State) (session.State, error) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return st, badRequest{err}
	}
	return st.Jump(i), nil
}

type hueRequest struct {
	Hue *int `json:"hue" binding:"required"`
}

// setHue schedules a hue change. Rapid updates collapse into the last one.
func (h *Handler) setHue(c *gin.Context) {
	id := c.Param("id")
	var req hueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest{err})
		return
	}
	if _, err := h.sessions.Get(id); err != nil {
		writeError(c, err)
		return
	}
	hue := imagepkg.NormalizeHue(*req.Hue)
	h.hue.Submit(id, func() {
		if _, err := h.sessions.Apply(id, func(st session.State) session.State { return st.WithHue(hue) }); err != nil {
			h.logger.Debug("hue update dropped", "session", id, "error", err)
		}
	})
	c.JSON(http.StatusAccepted, gin.H{"hue": hue})
}

func (h *Handler) resetHue(c *gin.Context) {
	id := c.Param("id")
	h.hue.Cancel(id)
	st, err := h.sessions.Apply(id, session.State.ResetHue)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

type categoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// setCategory switches category, which clears the current batch.
func (h *Handler) setCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest{err})
		return
	}
	cat, err := h.category(req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	st, err := h.sessions.Apply(c.Param("id"), func(st session.State) session.State {
		return st.WithCategory(cat)
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

func (h *Handler) reset(c *gin.Context) {
	id := c.Param("id")
	h.hue.Cancel(id)
	st, err := h.sessions.Apply(id, func(st session.State) session.State {
		return st.Reset(h.catalog.DefaultCategory())
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Info(h.catalog))
}

func (h *Handler) deleteSession(c *gin.Context) {
	id := c.Param("id")
	h.hue.Cancel(id)
	if err := h.sessions.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writePNG(c *gin.Context, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return err
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
	return nil
}

// preview renders the current certificate. The image is only returned if
// the session is still at the generation the render started from.
func (h *Handler) preview(c *gin.Context) {
	id := c.Param("id")
	st, err := h.sessions.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if st.Empty() {
		c.Status(http.StatusNoContent)
		return
	}
	img, err := h.batch.Preview(c.Request.Context(), st.Records, st.Index, st.Hue)
	if err != nil {
		writeError(c, err)
		return
	}
	if !h.sessions.IsCurrent(id, st.Gen) {
		h.logger.Debug("stale preview discarded", "session", id, "gen", st.Gen)
		writeError(c, errSuperseded)
		return
	}
	c.Header("X-Certificate-Index", strconv.Itoa(st.Index))
	c.Header("X-Certificate-Gen", strconv.FormatUint(st.Gen, 10))
	if err := writePNG(c, img); err != nil {
		writeError(c, err)
	}
}

// qr returns the verification code of the current certificate.
func (h *Handler) qr(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	rec, ok := st.Current()
	if !ok {
		writeError(c, batch.ErrEmptyBatch)
		return
	}
	size := h.stamp.Size
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 2048 {
		size = v
	}
	q, err := imagepkg.GenerateQRImage(h.stamp.Content(rec), size)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := writePNG(c, q); err != nil {
		writeError(c, err)
	}
}

// export renders the whole batch and streams it as a zip archive.
func (h *Handler) export(c *gin.Context) {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	files, err := h.batch.ExportAll(c.Request.Context(), st.Snapshot(), st.Hue)
	if err != nil {
		writeError(c, err)
		return
	}
	now := h.now()
	name := batch.ArchiveName(h.catalog.Product(), st.Category, now)
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Status(http.StatusOK)
	if err := batch.WriteArchive(c.Writer, files, now); err != nil {
		h.logger.Error("writing archive", "archive", name, "error", err)
	}
}
