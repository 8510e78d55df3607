package scraper

import (
	"context"
	"strings"

	"scraper-llm/internal/imagepipe"
	"scraper-llm/internal/models"
)

// DedupKey is the canonical composite key of an item: the lowercased,
// trimmed concatenation of title, price and img. Empty means no usable key.
func DedupKey(item models.Item) string {
	return strings.ToLower(strings.TrimSpace(item.Title) + strings.TrimSpace(item.Price) + strings.TrimSpace(item.Img))
}

// Dedup drops items whose key was already seen, keeping first occurrences in
// order. Items without a usable key are never treated as duplicates.
func Dedup(items []models.Item) []models.Item {
	seen := make(map[string]bool, len(items))
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		key := DedupKey(item)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, item)
	}
	return out
}

// TruncateToBudget keeps at most maxTokens/2 words of text, marking the cut with " ..."
func TruncateToBudget(text string, maxTokens int) string {
	limit := maxTokens / 2
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + " ..."
}

// finalizeItems rejects untitled items, resolves image and item URLs against
// pageURL, stores images locally and deduplicates.
func (s *Service) finalizeItems(ctx context.Context, pageURL string, items []models.Item) []models.Item {
	accepted := make([]models.Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			s.logger.Debug("dropping item without title", "item", item)
			continue
		}
		if item.URL != "" {
			item.URL = imagepipe.Resolve(pageURL, item.URL)
		}
		if item.Img != "" {
			item.Img = imagepipe.Resolve(pageURL, item.Img)
			if s.images != nil {
				if local := s.images.Download(ctx, item.Img); local != item.Img {
					item.ImgLocal = local
				}
			}
		}
		accepted = append(accepted, item)
	}
	return Dedup(accepted)
}
