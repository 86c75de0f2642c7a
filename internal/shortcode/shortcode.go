// Package shortcode parses [org_chart ...] embed tokens in content
// bodies and resolves the display configuration for each embed.
package shortcode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/orgkit/orgchart/internal/model"
)

var (
	tokenRe = regexp.MustCompile(`\[org_chart\s+([^\]]+)\]`)
	attrRe  = regexp.MustCompile(`(\w+)\s*=\s*("[^"]*"|'[^']*'|[^\s\]]+)`)
)

// Shortcode is one parsed embed token.
type Shortcode struct {
	ChartID string
	Attrs   map[string]string
}

// Parse reads a single [org_chart ...] token. chart_id is required.
func Parse(token string) (*Shortcode, error) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return nil, fmt.Errorf("parsing shortcode: not an org_chart token")
	}
	sc := &Shortcode{Attrs: make(map[string]string)}
	for _, attr := range attrRe.FindAllStringSubmatch(m[1], -1) {
		key := strings.ToLower(attr[1])
		val := strings.Trim(attr[2], `"'`)
		if key == "chart_id" {
			sc.ChartID = val
			continue
		}
		sc.Attrs[key] = val
	}
	if sc.ChartID == "" {
		return nil, fmt.Errorf("parsing shortcode: chart_id is required")
	}
	return sc, nil
}

// Renderer turns a parsed shortcode into embed markup. A render error
// leaves the token in place.
type Renderer func(sc *Shortcode) (string, error)

// ProcessTokens replaces every org_chart token in the text with
// rendered markup. Tokens that fail to parse or render pass through
// untouched.
func ProcessTokens(text string, render Renderer) string {
	return tokenRe.ReplaceAllStringFunc(text, func(token string) string {
		sc, err := Parse(token)
		if err != nil {
			return token
		}
		out, err := render(sc)
		if err != nil {
			return token
		}
		return out
	})
}

// ResolveDisplay builds the effective display configuration for an
// embed. Resolution is layered: the defaults first, then the theme's
// settings, then the token's own attributes. Each layer only overrides
// the keys it actually sets.
func ResolveDisplay(themeSettings json.RawMessage, attrs map[string]string) (model.DisplayConfig, error) {
	cfg := model.DefaultDisplayConfig()
	if len(themeSettings) > 0 {
		if err := json.Unmarshal(themeSettings, &cfg); err != nil {
			return cfg, fmt.Errorf("applying theme settings: %w", err)
		}
	}
	for key, val := range attrs {
		if err := applyAttr(&cfg, key, val); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func applyAttr(cfg *model.DisplayConfig, key, val string) error {
	switch key {
	case "show_title":
		return parseBool(&cfg.ShowTitle, key, val)
	case "show_controls":
		return parseBool(&cfg.ShowControls, key, val)
	case "fullscreen", "enable_fullscreen":
		return parseBool(&cfg.EnableFullscreen, key, val)
	case "max_width":
		cfg.MaxWidth = val
	case "max_height":
		cfg.MaxHeight = val
	case "lazy_loading":
		return parseBool(&cfg.LazyLoading, key, val)
	case "animation", "animation_enabled":
		return parseBool(&cfg.AnimationEnabled, key, val)
	case "animation_duration":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("shortcode attribute %s: invalid duration %q", key, val)
		}
		cfg.AnimationDuration = n
	case "horizontal_scroll":
		return parseBool(&cfg.HorizontalScroll, key, val)
	case "theme":
		// Resolved by the caller before this layer applies.
	default:
		// Unknown attributes are ignored so older content keeps
		// rendering after attributes are retired.
	}
	return nil
}

func parseBool(dst *bool, key, val string) error {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		return fmt.Errorf("shortcode attribute %s: invalid boolean %q", key, val)
	}
	return nil
}
