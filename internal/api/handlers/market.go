package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"market-tax-sim/internal/api/models"
	"market-tax-sim/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MarketHandler lists the market presets on disk
type MarketHandler struct {
	marketDir string
}

// NewMarketHandler creates a new market handler. An empty dir falls back to
// MARKET_DIR, then ./examples/markets.
func NewMarketHandler(dir string) *MarketHandler {
	if dir == "" {
		dir = os.Getenv("MARKET_DIR")
	}
	if dir == "" {
		dir = filepath.Join("examples", "markets")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log.Info().Str("dir", dir).Msg("MarketHandler: using market directory")
	return &MarketHandler{marketDir: dir}
}

// Dir returns the preset directory
func (h *MarketHandler) Dir() string {
	return h.marketDir
}

// ListMarkets handles GET /api/v1/markets
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	markets := []models.MarketInfo{}

	entries, err := os.ReadDir(h.marketDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", h.marketDir).Msg("MarketHandler: failed to read market directory")
		c.JSON(http.StatusOK, gin.H{"markets": markets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.marketDir, entry.Name())
		info, err := loadMarketInfo(path, entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("MarketHandler: skipping market file")
			continue
		}
		markets = append(markets, *info)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })

	c.JSON(http.StatusOK, gin.H{"markets": markets})
}

func loadMarketInfo(path, filename string) (*models.MarketInfo, error) {
	mc, err := config.LoadMarketFile(path)
	if err != nil {
		return nil, err
	}
	// Presets may be partial; show them as they would open.
	mc = config.MergeMarket(config.Default().Market, mc)

	id := strings.TrimSuffix(filename, ".yaml")
	name := mc.Name
	if name == "" || name == "default" {
		name = id
	}
	return &models.MarketInfo{
		ID:     id,
		Name:   name,
		File:   path,
		Market: mc.ToModelParams(),
	}, nil
}
