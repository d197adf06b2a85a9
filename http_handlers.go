package main

// this file contains implementation of HTTP handlers - REST API

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/labstack/gommon/log"

	"github.com/himanshub16/nowplaying/queue"
)

const claimsContextKey = "claims"

// defaultDisplay is what the public display shows when nothing is playing.
var defaultDisplay = displaySong{
	Title:  "WhereDoWeCameFrom",
	Artist: "ANA",
	Image:  queue.DefaultImage,
	Status: queue.StatusPlaying,
}

type displaySong struct {
	Title  string       `json:"title"`
	Artist string       `json:"artist"`
	Image  string       `json:"image"`
	Status queue.Status `json:"status"`
}

type handlers struct {
	store  *queue.Store
	gate   *Gate
	logger *log.Logger
}

func NewHTTPRouter(store *queue.Store, gate *Gate, logger *log.Logger) *echo.Echo {
	h := &handlers{store: store, gate: gate, logger: logger}

	r := echo.New()
	r.HideBanner = true
	r.HTTPErrorHandler = h.errorHandler
	r.Use(middleware.Recover())
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))

	router := r.Group("/api")
	router.GET("/health", healthCheckHandler)
	router.GET("/songs", h.nowPlayingHandler)

	adminGroup := router.Group("/admin")
	adminGroup.POST("/login", h.loginHandler)
	adminGroup.GET("/verify", h.verifyHandler)

	songGroup := adminGroup.Group("/songs")
	songGroup.Use(h.requireAdmin)
	{
		songGroup.GET("", h.listSongsHandler)
		songGroup.POST("", h.addSongHandler)
		songGroup.PUT("", h.updateSongHandler)
		songGroup.DELETE("", h.deleteSongHandler)
		songGroup.PUT("/reorder", h.reorderSongsHandler)
	}

	return r
}

// requireAdmin rejects the request unless it carries a valid admin token.
func (h *handlers) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := h.claimsFromRequest(c)
		if err != nil {
			h.logger.Debugf("rejected %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
		}
		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

func (h *handlers) claimsFromRequest(c echo.Context) (*Claims, error) {
	token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return h.gate.Verify(token)
}

func healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

func (h *handlers) nowPlayingHandler(c echo.Context) error {
	song, ok, err := h.store.CurrentlyPlaying(c.Request().Context())
	if err != nil {
		h.logger.Errorf("fetching current song: %v", err)
	}
	if err != nil || !ok {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "song": defaultDisplay})
	}

	image := song.Image
	if image == "" {
		image = queue.DefaultImage
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"song": displaySong{
			Title:  song.Title,
			Artist: song.Artist,
			Image:  image,
			Status: song.Status,
		},
	})
}

func (h *handlers) loginHandler(c echo.Context) error {
	form := struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}{}
	if err := c.Bind(&form); err != nil || form.Username == "" || form.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Username and password are required",
		})
	}

	token, claims, err := h.gate.Issue(form.Username, form.Password)
	if err != nil {
		h.logger.Warnf("failed login for %q", form.Username)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"token":   token,
		"user":    echo.Map{"username": claims.Username, "role": claims.Role},
	})
}

func (h *handlers) verifyHandler(c echo.Context) error {
	claims, err := h.claimsFromRequest(c)
	if err != nil {
		message := "Invalid token"
		switch {
		case errors.Is(err, ErrTokenMissing):
			message = "No token provided"
		case errors.Is(err, ErrTokenExpired):
			message = "Token expired"
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": message})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Token valid",
		"user":    echo.Map{"username": claims.Username, "role": claims.Role},
	})
}

func (h *handlers) listSongsHandler(c echo.Context) error {
	songs := h.store.List(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"songs": songs})
}

func (h *handlers) addSongHandler(c echo.Context) error {
	form := queue.NewSong{}
	if err := c.Bind(&form); err != nil {
		return err
	}
	if strings.TrimSpace(form.Artist) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Artist name is required"})
	}

	song, err := h.store.Add(c.Request().Context(), form)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Song added successfully",
		"song":    song,
	})
}

func (h *handlers) updateSongHandler(c echo.Context) error {
	form := struct {
		ID     string  `json:"id"`
		Status *string `json:"status"`
		Title  *string `json:"title"`
		Artist *string `json:"artist"`
		Image  *string `json:"image"`
	}{}
	if err := c.Bind(&form); err != nil {
		return err
	}
	if form.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Song ID is required"})
	}

	upd := queue.SongUpdate{Title: form.Title, Artist: form.Artist, Image: form.Image}
	if form.Status != nil && *form.Status != "" {
		status, ok := queue.ParseStatus(*form.Status)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid status"})
		}
		upd.Status = &status
	}

	song, err := h.store.Update(c.Request().Context(), form.ID, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Song updated successfully",
		"song":    song,
	})
}

func (h *handlers) deleteSongHandler(c echo.Context) error {
	form := struct {
		ID string `json:"id" query:"id"`
	}{}
	if err := c.Bind(&form); err != nil {
		return err
	}
	if form.ID == "" {
		form.ID = c.QueryParam("id")
	}
	if form.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Song ID is required"})
	}

	removed, err := h.store.Remove(c.Request().Context(), form.ID)
	if err != nil {
		return err
	}
	if !removed {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Song not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Song removed successfully"})
}

func (h *handlers) reorderSongsHandler(c echo.Context) error {
	form := struct {
		SongIDs      []string `json:"songIds"`
		UpdateStatus bool     `json:"updateStatus"`
	}{}
	if err := c.Bind(&form); err != nil || form.SongIDs == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Song IDs array is required"})
	}

	songs, err := h.store.Reorder(c.Request().Context(), form.SongIDs, form.UpdateStatus)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Songs reordered successfully",
		"songs":   songs,
	})
}

// errorHandler turns errors returned by handlers into JSON responses.
func (h *handlers) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	case errors.Is(err, queue.ErrValidation):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, queue.ErrNotFound):
		code, message = http.StatusNotFound, "Song not found"
	case errors.Is(err, ErrBadCredentials):
		code, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Unauthorized"
	}

	if code >= http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Response().Committed {
		return
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(code)
	} else {
		respErr = c.JSON(code, echo.Map{"message": message})
	}
	if respErr != nil {
		h.logger.Errorf("writing error response: %v", respErr)
	}
}
