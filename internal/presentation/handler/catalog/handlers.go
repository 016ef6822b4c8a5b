package catalog

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/json"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/validate"
	"github.com/maruel/natural"
)

type listGamesRequest struct {
	Genre    string `json:"genre" validate:"max=64"`
	Platform string `json:"platform" validate:"max=64"`
	Search   string `json:"search" validate:"max=100"`
	Limit    int    `json:"limit" validate:"gte=0,lte=200"`
}

type listGamesResponse struct {
	Games []domain.CatalogGame `json:"games"`
	Count int                  `json:"count"`
}

type Handler struct {
	catalog domain.CatalogRepository
	logger  logging.Logger
}

func NewHandler(catalog domain.CatalogRepository, logger logging.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// ListGamesHandler godoc
// @Summary      List catalog games
// @Description  Known games with genre and platform, in natural name order
// @Tags         catalog
// @Produce      json
// @Param        genre query string false "Exact genre, case-insensitive"
// @Param        platform query string false "Exact platform, case-insensitive"
// @Param        search query string false "Substring of the name"
// @Param        limit query int false "Maximum number of games (max 200)"
// @Success      200 {object} listGamesResponse
// @Failure      400 {object} map[string]interface{} "Invalid filter"
// @Router       /games [get]
func (h *Handler) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listGamesRequest{
		Genre:    q.Get("genre"),
		Platform: q.Get("platform"),
		Search:   q.Get("search"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			json.WriteBadRequestError(w, "limit must be a number")
			return
		}
		req.Limit = n
	}
	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	games, err := h.catalog.List(r.Context(), domain.CatalogFilter{
		Genre:    req.Genre,
		Platform: req.Platform,
		Search:   req.Search,
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.Error(logging.Postgres, logging.ExternalService, "failed to list catalog", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		json.WriteInternalError(w)
		return
	}

	// "Game 2" before "Game 10"
	sort.SliceStable(games, func(i, j int) bool {
		return natural.Less(games[i].Name, games[j].Name)
	})

	json.Write(w, http.StatusOK, listGamesResponse{Games: games, Count: len(games)})
}
