package ui

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"meetscribe/internal/extract"
	"meetscribe/internal/generate"
	"meetscribe/internal/history"
	"meetscribe/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookieName = "meetscribe_session"
	// The login gate accepts this one fixed username plus any non-empty
	// password. Placeholder check only; real authentication is out of scope.
	privilegedUsername = "admin"
)

// Handler serves the interactive surface. A nil generator means no
// credential is configured; generation then goes straight to the demo
// fallback, unlike the stateless API which refuses the call.
type Handler struct {
	store     *history.Store
	generator *generate.Client
	sessions  SessionStore
	logger    *slog.Logger
	cookieTTL int
}

// NewHandler constructs the UI handler.
func NewHandler(store *history.Store, generator *generate.Client, sessions SessionStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:     store,
		generator: generator,
		sessions:  sessions,
		logger:    logger,
		cookieTTL: int(DefaultSessionTTL.Seconds()),
	}
}

// RegisterRoutes attaches templates and all UI routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/login", h.showLogin)
	router.POST("/login", h.doLogin)

	app := router.Group("")
	app.Use(h.requireSession())
	app.GET("/", h.home)
	app.POST("/upload", h.upload)
	app.POST("/generate", h.generateContent)
	app.POST("/reset", h.reset)
	app.GET("/history", h.showHistory)
	app.GET("/history/:id", h.showHistoryDetail)
	app.POST("/logout", h.logout)
}

const (
	sessionContextKey = "ui_session"
	tokenContextKey   = "ui_session_token"
)

// requireSession resolves the caller's session from the cookie and redirects
// to the login gate when there is none.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		sess, err := h.sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(sessionContextKey, sess)
		c.Set(tokenContextKey, token)
		c.Next()
	}
}

func (h *Handler) sessionFromContext(c *gin.Context) (*Session, string) {
	sess := c.MustGet(sessionContextKey).(*Session)
	token := c.MustGet(tokenContextKey).(string)
	return sess, token
}

func (h *Handler) saveSession(c *gin.Context, token string, sess *Session) {
	if err := h.sessions.Put(c.Request.Context(), token, sess); err != nil {
		h.logger.Error("save session failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) showLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *Handler) doLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if username != privilegedUsername || password == "" {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Error": "Invalid credentials. Hint: username is \"admin\".",
		})
		return
	}

	token, err := newSessionToken()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "Could not start a session."})
		return
	}
	sess := &Session{Username: username, Step: StepUpload, CreatedAt: time.Now().UTC()}
	if err := h.sessions.Put(c.Request.Context(), token, sess); err != nil {
		h.logger.Error("create session failed", slog.String("error", err.Error()))
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "Could not start a session."})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, h.cookieTTL, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	_, token := h.sessionFromContext(c)
	if err := h.sessions.Delete(c.Request.Context(), token); err != nil {
		h.logger.Error("delete session failed", slog.String("error", err.Error()))
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}

// home renders whichever step the session is in.
func (h *Handler) home(c *gin.Context) {
	sess, _ := h.sessionFromContext(c)
	switch sess.Step {
	case StepReview:
		c.HTML(http.StatusOK, "review.html", gin.H{
			"Username":   sess.Username,
			"Filename":   sess.Filename,
			"Transcript": sess.Transcript,
		})
	case StepResult:
		h.renderResult(c, sess)
	default:
		c.HTML(http.StatusOK, "upload.html", gin.H{"Username": sess.Username})
	}
}

func (h *Handler) renderResult(c *gin.Context, sess *Session) {
	result := sess.Result
	if result == nil {
		result = &models.GenerationResult{}
	}
	c.HTML(http.StatusOK, "result.html", gin.H{
		"Username": sess.Username,
		"Filename": sess.Filename,
		"Summary":  result.Summary,
		"Drafts":   buildDrafts(result.Emails),
		"SavedID":  sess.SavedID,
	})
}

func (h *Handler) upload(c *gin.Context) {
	sess, token := h.sessionFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.HTML(http.StatusBadRequest, "upload.html", gin.H{
			"Username": sess.Username,
			"Error":    "Please choose a file to upload.",
		})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "upload.html", gin.H{
			"Username": sess.Username,
			"Error":    "Could not open the uploaded file.",
		})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "upload.html", gin.H{
			"Username": sess.Username,
			"Error":    "Could not read the uploaded file.",
		})
		return
	}

	transcript, err := extract.Text(data, file.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		c.HTML(status, "upload.html", gin.H{
			"Username": sess.Username,
			"Error":    err.Error(),
		})
		return
	}

	sess.Filename = file.Filename
	sess.Transcript = transcript
	sess.Result = nil
	sess.SavedID = 0
	sess.Step = StepReview
	h.saveSession(c, token, sess)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) generateContent(c *gin.Context) {
	sess, token := h.sessionFromContext(c)
	if sess.Step != StepReview {
		c.Redirect(http.StatusFound, "/")
		return
	}

	// Blocks for the duration of the external call; the fallback policy
	// guarantees this step always reaches a result.
	var result *models.GenerationResult
	if h.generator == nil {
		h.logger.Warn("no generation credential configured, serving demo result")
		result = generate.Fallback()
	} else {
		result = h.generator.Generate(c.Request.Context(), sess.Transcript)
	}

	id, err := h.store.Append(c.Request.Context(), sess.Filename, sess.Transcript, result.Summary, result.Emails)
	if err != nil {
		h.logger.Error("persist meeting record failed",
			slog.String("filename", sess.Filename),
			slog.String("error", err.Error()))
	}

	sess.Result = result
	sess.SavedID = id
	sess.Step = StepResult
	h.saveSession(c, token, sess)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) reset(c *gin.Context) {
	sess, token := h.sessionFromContext(c)
	sess.Reset()
	h.saveSession(c, token, sess)
	c.Redirect(http.StatusFound, "/")
}

type historyItem struct {
	ID         int64
	Filename   string
	Summary    string
	EmailCount int
	Timestamp  string
}

func (h *Handler) showHistory(c *gin.Context) {
	sess, _ := h.sessionFromContext(c)
	records, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusInternalServerError, "history.html", gin.H{
			"Username": sess.Username,
			"Error":    "Could not load history.",
		})
		return
	}
	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			ID:         rec.ID,
			Filename:   rec.Filename,
			Summary:    snippet(rec.Summary, 180),
			EmailCount: len(rec.Emails),
			Timestamp:  rec.Timestamp.Format("2006-01-02 15:04"),
		})
	}
	c.HTML(http.StatusOK, "history.html", gin.H{
		"Username": sess.Username,
		"Items":    items,
	})
}

func (h *Handler) showHistoryDetail(c *gin.Context) {
	sess, _ := h.sessionFromContext(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Redirect(http.StatusFound, "/history")
		return
	}
	rec, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.HTML(http.StatusNotFound, "history.html", gin.H{
				"Username": sess.Username,
				"Error":    "Record not found.",
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "history.html", gin.H{
			"Username": sess.Username,
			"Error":    "Could not load record.",
		})
		return
	}
	c.HTML(http.StatusOK, "detail.html", gin.H{
		"Username":  sess.Username,
		"Record":    rec,
		"Timestamp": rec.Timestamp.Format("2006-01-02 15:04"),
		"Drafts":    buildDrafts(rec.Emails),
	})
}

// emailDraft is the per-tone view of one generated email, with mail-client
// deep links prefilled from the parsed subject line.
type emailDraft struct {
	Tone      string
	Content   string
	GmailURL  string
	MailtoURL string
}

var draftTones = []string{"Formal", "Action-Oriented", "Casual"}

func buildDrafts(emails []string) []emailDraft {
	drafts := make([]emailDraft, 0, len(emails))
	for i, email := range emails {
		tone := fmt.Sprintf("Draft %d", i+1)
		if i < len(draftTones) {
			tone = draftTones[i]
		}
		subject, body := splitSubject(email)
		q := url.QueryEscape
		drafts = append(drafts, emailDraft{
			Tone:      tone,
			Content:   email,
			GmailURL:  "https://mail.google.com/mail/?view=cm&fs=1&su=" + q(subject) + "&body=" + q(body),
			MailtoURL: "mailto:?subject=" + q(subject) + "&body=" + q(body),
		})
	}
	return drafts
}

// splitSubject pulls a "Subject:" line out of a draft; everything after it
// becomes the mail body. Drafts without one get a generic subject.
func splitSubject(email string) (string, string) {
	subject := "Meeting Follow-up"
	body := email
	lines := strings.Split(email, "\n")
	for i, line := range lines {
		if strings.Contains(line, "Subject:") {
			subject = strings.TrimSpace(strings.ReplaceAll(strings.Replace(line, "Subject:", "", 1), "*", ""))
			body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			break
		}
	}
	return subject, body
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
