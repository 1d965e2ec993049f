package catalog

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/alphabotai/webappshop/internal/domain"
)

// Defaults for missing columns.
const (
	DefaultName        = "Untitled"
	DefaultDescription = "No description"
)

const driveHost = "drive.google.com"

// Normalize turns a raw row into a Product. It is the only place defaults
// are applied.
func Normalize(raw RawProduct) domain.Product {
	id := raw.ID.Text("")
	if id == "" {
		id = uuid.NewString()
	}

	return domain.Product{
		ID:          id,
		Name:        raw.Name.Text(DefaultName),
		ImageURL:    RewriteImageURL(raw.ImageURL.Text("")),
		Price:       ParsePrice(raw.Price.Text("")),
		Description: raw.Description.Text(DefaultDescription),
		Stock:       raw.Stock.Text(""),
		Size:        raw.Size.Text(""),
		Colors:      splitColors(raw.Colors.Text("")),
	}
}

// ParsePrice reads the leading integer of s. "1500 ₸" is 1500; anything
// without leading digits, negative or out of range is 0.
func ParsePrice(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// RewriteImageURL turns a Drive share link (".../d/<ID>/...") into a direct
// view link. A Drive link without an id yields "". Other URLs are returned
// unchanged.
func RewriteImageURL(raw string) string {
	if !strings.Contains(raw, driveHost) {
		return raw
	}

	_, rest, ok := strings.Cut(raw, "/d/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	id, _, _ = strings.Cut(id, "?")
	if id == "" {
		return ""
	}
	return "https://drive.google.com/uc?export=view&id=" + id
}

func splitColors(s string) []string {
	if s == "" {
		return nil
	}
	var colors []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}
